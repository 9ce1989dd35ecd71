package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"droneops-scout/internal/logging"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "scout",
	Short: "DroneOps scout mission toolkit",
	Long:  "scout flies exploration missions over an occupancy grid, fusing perception scores into a value map, and replays or exports the results.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		slog.SetDefault(logging.New(logLevel))
	},
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", envOr("LOG_LEVEL", "info"), "Log level (debug, info, warn, error)")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(exportCmd)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
