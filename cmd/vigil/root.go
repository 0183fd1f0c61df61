package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "vigil",
	Short: "Vigil - operational rate limiting and monitoring",
	Long: `Vigil is an operational daemon that combines multi-tier rate limiting
with periodic health monitoring and alerting.

It provides:
  - Fixed-window rate limits with per-scope tiers and failure policies
  - In-memory or Redis-backed counters for multi-instance deployments
  - Periodic sampling of memory, goroutines, disk, and probe latency
  - Threshold evaluation with warning and critical severities
  - Throttled alert delivery to Slack, Discord, email, and webhooks
  - Operational HTTP endpoints for health, metrics, and alert history`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
