// Package cmd implements the repoflow command line interface.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/repoflow/repoflow/internal/config"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "repoflow",
	Short: "Map the user-facing navigation flow of a frontend codebase",
	Long: `Repoflow scans a React-style repository, classifies its screens and
modals, and builds a navigation flow graph with user journeys. Results
can be rendered as Mermaid diagrams or reports, served over a REST API,
or handed to AI agents via MCP.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.FileName, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
