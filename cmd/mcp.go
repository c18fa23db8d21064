package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/repoflow/repoflow/internal/analyses"
	"github.com/repoflow/repoflow/internal/db"
	mcpserver "github.com/repoflow/repoflow/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for AI agent integration",
	Long: `Starts a Model Context Protocol server on stdio, exposing repository
flow analysis tools to AI agents. Analyses share the same database as
repoflow serve.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		database, err := db.Open(cfg.Server.DatabasePath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		svc := analyses.NewService(analyses.NewStore(database), newHostClient())

		fmt.Fprintf(os.Stderr, "repoflow MCP server started on stdio (database=%s)\n", cfg.Server.DatabasePath)

		return mcpserver.NewServer(svc, Version).Serve()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
