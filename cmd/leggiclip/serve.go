package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/remorses/leggiclip/internal/config"
	"github.com/remorses/leggiclip/internal/server"
)

var (
	serveHost string
	servePort string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the LeggiClip server",
	Long: `Start the LeggiClip HTTP server.

The server provides:
  - /api/generate   - Stream a full generation run as NDJSON
  - /api/videos     - Generated video history
  - /api/source/*   - Law text extraction from URLs and PDFs
  - /health         - Basic server health check

Examples:
  leggiclip serve                    # Start on default port 8080
  leggiclip serve --port 3000        # Start on custom port
  leggiclip serve --host 0.0.0.0     # Bind to all interfaces`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// Set up logger
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))

		// Load config with hot-reload support
		cm, err := config.NewManager(cfgFile)
		if err != nil {
			return err
		}
		cm.WatchConfig()

		srv, err := server.New(server.Config{
			Host:          serveHost,
			Port:          servePort,
			ConfigManager: cm,
			Logger:        logger,
		})
		if err != nil {
			return err
		}

		// Start server (blocks until shutdown)
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "Host to bind to")
	serveCmd.Flags().StringVar(&servePort, "port", "8080", "Port to listen on")

	rootCmd.AddCommand(serveCmd)
}
