// Package cli implements the docqa command line interface.
package cli

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "docqa",
	Short: "Document question answering service",
	Long: `docqa answers natural-language questions grounded in uploaded
documents. It runs as two processes: an API server handling uploads
and chat queries, and a worker consuming the ingestion queue.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		// secrets come from the environment; a local .env is optional
		_ = godotenv.Load()
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
