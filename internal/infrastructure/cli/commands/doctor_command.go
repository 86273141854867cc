package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Sahithiv25/InsightMiner/internal/app"
	"github.com/Sahithiv25/InsightMiner/internal/domain"
)

// NewDoctorCommand runs the health checks and fails when any check errors.
func NewDoctorCommand(container *app.Container) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose config, registry, warehouse and generator setup",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if container.DoctorService == nil {
				return errors.New(ErrDoctorServiceUnavailable)
			}
			report, runErr := container.DoctorService.Run(cmd.Context())

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return err
				}
			} else {
				renderHealthReport(out, report)
			}

			if runErr != nil {
				return fmt.Errorf("diagnostics incomplete: %w", runErr)
			}
			if !report.Healthy() {
				return errors.New(ErrDoctorUnhealthy)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	return cmd
}

func renderHealthReport(out io.Writer, report domain.HealthReport) {
	counts := map[domain.HealthStatus]int{}
	for _, check := range report.Checks {
		counts[check.Status]++
		fmt.Fprintf(out, "%-6s %-16s %s\n",
			strings.ToUpper(string(check.Status)), check.Name, check.Details)
	}
	fmt.Fprintf(out, "\n%d ok, %d warnings, %d errors\n",
		counts[domain.HealthOK], counts[domain.HealthWarn], counts[domain.HealthError])
}
