package main

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/learnercorpus/errmap/internal/report"
)

// Set at build time via -ldflags "-X main.Version=...".
var (
	Version   = "0.1.0-dev"
	GitCommit = ""
	BuildDate = ""
)

type versionPayload struct {
	Tool      string `json:"tool"`
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	GitCommit string `json:"git_commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show build information",
	Args:  cobra.NoArgs,
	// Version needs no configuration.
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		p := versionPayload{
			Tool:      "errmap",
			Version:   Version,
			GoVersion: runtime.Version(),
			GitCommit: GitCommit,
			BuildDate: BuildDate,
		}
		switch strings.ToLower(format) {
		case "json":
			b, err := report.MarshalNoEscape(p, true)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(b)
			return err
		case "pretty", "":
		default:
			return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
		}

		bold := color.New(color.FgYellow, color.Bold)
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s)\n", p.Tool, bold.Sprint(p.Version), p.GoVersion)
		if p.GitCommit != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "commit %s\n", p.GitCommit)
		}
		if p.BuildDate != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "built  %s\n", p.BuildDate)
		}
		return nil
	},
}

func init() {
	versionCmd.Flags().String("format", "pretty", "output format (pretty|json)")
}
