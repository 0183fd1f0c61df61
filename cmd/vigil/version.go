package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"atelier-hq/vigil/pkg/cli"
)

// Build metadata, stamped by the release linker flags.
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var versionFlags struct {
	short  bool
	format string
}

type buildInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	RunE: func(cmd *cobra.Command, args []string) error {
		if versionFlags.short {
			fmt.Fprintln(cmd.OutOrStdout(), Version)
			return nil
		}

		info := buildInfo{
			Version:   Version,
			GitCommit: GitCommit,
			BuildDate: BuildDate,
			GoVersion: runtime.Version(),
			Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		}

		if versionFlags.format == string(cli.FormatJSON) {
			return cli.NewFormatter(cli.FormatJSON).FormatTo(cmd.OutOrStdout(), info)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "vigil %s (commit %s, built %s)\n", info.Version, info.GitCommit, info.BuildDate)
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", info.GoVersion, info.Platform)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)

	versionCmd.Flags().BoolVar(&versionFlags.short, "short", false, "print only the version number")
	versionCmd.Flags().StringVar(&versionFlags.format, "format", "text", "output format: text, json")
}
