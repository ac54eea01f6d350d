package main

import (
	"github.com/spf13/cobra"

	"github.com/copyleftdev/hypertune/internal/logging"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "hypertune",
	Short: "Ask/tell hyperparameter optimization service",
	Long: `hypertune hosts optimization experiments over declared parameter spaces.
Clients ask for candidate points, evaluate them, and tell the results back.
Without a subcommand it starts the HTTP server.`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides LOG_LEVEL")
}

// cliLogger is the human-readable logger used by the non-server commands.
func cliLogger() (*logging.Logger, error) {
	level := logLevel
	if level == "" {
		level = "warn"
	}
	return logging.NewLogger(&logging.Config{
		Level:  level,
		Format: "console",
		Output: "stderr",
	})
}
