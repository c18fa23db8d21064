package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/repoflow/repoflow/internal/analyses"
	"github.com/repoflow/repoflow/internal/db"
	"github.com/repoflow/repoflow/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the analysis REST API server",
	Long: `Starts the repoflow HTTP server: submit analyses, fetch flow graphs and
diagrams, follow progress over websockets, and search nodes semantically
when an OpenAI key is configured.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if servePort > 0 {
			cfg.Server.Port = servePort
		}

		database, err := db.Open(cfg.Server.DatabasePath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		svc := analyses.NewService(analyses.NewStore(database), newHostClient())

		index, err := newSearchIndex(cfg)
		if err != nil {
			return fmt.Errorf("creating search index: %w", err)
		}
		if index != nil {
			svc.SetSearchIndex(index)
		}

		srv := server.New(server.Config{
			Port:     cfg.Server.Port,
			AllowAll: cfg.Server.AllowAllOrigins,
		}, database, svc)

		// Graceful shutdown.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			srv.Shutdown(context.Background())
		}()

		fmt.Fprintf(os.Stderr, "repoflow server v%s starting on port %d\n", Version, cfg.Server.Port)
		fmt.Fprintf(os.Stderr, "  Database: %s\n", cfg.Server.DatabasePath)
		if index != nil {
			fmt.Fprintln(os.Stderr, "  Semantic search: enabled")
		} else {
			fmt.Fprintln(os.Stderr, "  Semantic search: off (no OPENAI_API_KEY)")
		}

		return srv.Start()
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "port to listen on (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
