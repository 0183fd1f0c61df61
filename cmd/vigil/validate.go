package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"atelier-hq/vigil/pkg/cli"
	"atelier-hq/vigil/pkg/config"
)

var validateFlags struct {
	format string
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Long: `Load and validate the configuration file without starting the daemon.

All validation errors are collected and reported together, so one run
surfaces every problem in the file.

Examples:
  # Validate the default config
  vigil validate

  # Validate a specific file with JSON output
  vigil validate --config /etc/vigil/config.yaml --format json`,
	RunE: validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVar(&validateFlags.format, "format", "text", "output format: text, json")
}

// validationSummary is what a successful validation prints.
type validationSummary struct {
	Valid      bool     `json:"valid"`
	ConfigFile string   `json:"config_file"`
	Scopes     []string `json:"scopes"`
	Thresholds int      `json:"thresholds"`
	Channels   []string `json:"channels"`
}

func validateConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithEnvOverrides(cfgFile)
	if err != nil {
		var verr config.ValidationError
		if errors.As(err, &verr) {
			fmt.Fprintf(os.Stderr, "✗ Configuration invalid (%d errors):\n", len(verr.Errors))
			for _, fe := range verr.Errors {
				fmt.Fprintf(os.Stderr, "  - %s\n", fe)
			}
			os.Exit(1)
		}
		return cli.NewConfigError("", err.Error())
	}

	scopes := make([]string, 0, len(cfg.Limits))
	for scope := range cfg.Limits {
		scopes = append(scopes, scope)
	}

	summary := validationSummary{
		Valid:      true,
		ConfigFile: cfgFile,
		Scopes:     scopes,
		Thresholds: len(cfg.Thresholds),
		Channels:   enabledChannels(cfg),
	}

	if validateFlags.format == "json" {
		return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, summary)
	}

	fmt.Println("✓ Configuration valid")
	fmt.Printf("  Scopes:     %d\n", len(summary.Scopes))
	fmt.Printf("  Thresholds: %d\n", summary.Thresholds)
	fmt.Printf("  Channels:   %d\n", len(summary.Channels))
	return nil
}

func enabledChannels(cfg *config.Config) []string {
	var names []string
	if cfg.Alerting.Channels.Slack.Enabled {
		names = append(names, "slack")
	}
	if cfg.Alerting.Channels.Discord.Enabled {
		names = append(names, "discord")
	}
	if cfg.Alerting.Channels.Webhook.Enabled {
		names = append(names, "webhook")
	}
	if cfg.Alerting.Channels.Email.Enabled {
		names = append(names, "email")
	}
	return names
}
