package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/Sahithiv25/InsightMiner/internal/version"
)

type buildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// NewVersionCommand prints build metadata. It never loads configuration.
func NewVersionCommand() *cobra.Command {
	var (
		asJSON bool
		short  bool
	)
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show InsightMiner version information",
		Annotations: map[string]string{
			SkipContainer: "true",
		},
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := buildInfo{
				Version:   version.Version,
				Commit:    version.Commit,
				BuildDate: version.BuildDate,
				GoVersion: runtime.Version(),
				Platform:  runtime.GOOS + "/" + runtime.GOARCH,
			}
			out := cmd.OutOrStdout()
			switch {
			case short:
				_, err := fmt.Fprintln(out, info.Version)
				return err
			case asJSON:
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			default:
				return renderBuildInfo(out, info)
			}
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print build metadata as JSON")
	cmd.Flags().BoolVar(&short, "short", false, "Print only the version string")
	return cmd
}

func renderBuildInfo(out io.Writer, info buildInfo) error {
	fmt.Fprintf(out, "InsightMiner version %s\n", info.Version)
	if info.Commit != "" {
		fmt.Fprintf(out, "Commit: %s\n", info.Commit)
	}
	if info.BuildDate != "" {
		fmt.Fprintf(out, "Built: %s\n", info.BuildDate)
	}
	_, err := fmt.Fprintf(out, "Go: %s (%s)\n", info.GoVersion, info.Platform)
	return err
}
