package main

import (
	"github.com/spf13/cobra"

	"github.com/remorses/leggiclip/internal/server/endpoints"
)

var serverURL string

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Commands that call the running server",
	Long: `API commands call the running LeggiClip server via HTTP.

These commands require a running server (leggiclip serve).
Use --server to specify a custom server URL.

Examples:
  leggiclip api health              # Check server health
  leggiclip api generate -f law.txt # Stream a generation run
  leggiclip api videos list         # List generated videos`,
}

var videosCmd = &cobra.Command{
	Use:   "videos",
	Short: "Generated video commands",
}

var sourceCmd = &cobra.Command{
	Use:   "source",
	Short: "Law text extraction commands",
}

// getServerURL returns the server URL at runtime (after flag parsing).
func getServerURL() string {
	return serverURL
}

func init() {
	// Add --server flag to api command (persistent so all subcommands inherit it)
	apiCmd.PersistentFlags().StringVar(
		&serverURL, "server", "http://localhost:8080", "Server URL",
	)

	// Health and generation at top level of api
	apiCmd.AddCommand((&endpoints.HealthEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.StatusEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.GenerateEndpoint{}).Command(getServerURL))

	// Videos as subcommand group
	videosCmd.AddCommand((&endpoints.ListVideosEndpoint{}).Command(getServerURL))
	videosCmd.AddCommand((&endpoints.VideoStatusEndpoint{}).Command(getServerURL))

	// Law sources as subcommand group
	sourceCmd.AddCommand((&endpoints.SourceURLEndpoint{}).Command(getServerURL))
	sourceCmd.AddCommand((&endpoints.SourcePDFEndpoint{}).Command(getServerURL))

	apiCmd.AddCommand(videosCmd)
	apiCmd.AddCommand(sourceCmd)
	rootCmd.AddCommand(apiCmd)
}
