package main

import (
	"github.com/spf13/cobra"

	"github.com/remorses/leggiclip/internal/api"
	"github.com/remorses/leggiclip/version"
)

var (
	cfgFile      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "leggiclip",
	Short: "Turn legal text into short vertical videos with AI avatars",
	Long: `LeggiClip turns laws and regulations into short vertical video scripts
and renders them as avatar videos with stock footage backgrounds.

The pipeline includes:
  - Streaming script generation from legal text via LLM
  - Stock footage search and download per keyword
  - Background assembly with ffmpeg
  - Avatar render submission and status polling`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.leggiclip/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		api.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
}
