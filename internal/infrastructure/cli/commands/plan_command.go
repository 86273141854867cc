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

// PlanOptions are the flags shared by `plan` and the root shorthand.
type PlanOptions struct {
	Start      string
	End        string
	Dimensions []string
	Mode       string
	JSON       bool
	Inline     bool
}

// BindFlags registers plan flags on cmd.
func (o *PlanOptions) BindFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.Start, "start", "", "Inclusive window start (YYYY-MM-DD, default from config)")
	cmd.Flags().StringVar(&o.End, "end", "", "Inclusive window end (YYYY-MM-DD, default from config)")
	cmd.Flags().StringSliceVarP(&o.Dimensions, "dim", "d", nil, "Dimension to group by (repeatable)")
	cmd.Flags().StringVarP(&o.Mode, "mode", "m", "", "Planner mode: auto|llm|registry (default from config)")
	cmd.Flags().BoolVar(&o.JSON, "json", false, "Print the plan as JSON")
	cmd.Flags().BoolVar(&o.Inline, "inline", false, "Substitute :start/:end with quoted dates")
}

// NewPlanCommand creates the plan command
func NewPlanCommand(container *app.Container) *cobra.Command {
	var opts PlanOptions
	cmd := &cobra.Command{
		Use:   "plan <question>",
		Short: "Plan a SQL statement for a business question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunPlan(cmd, container, strings.Join(args, " "), opts)
		},
	}
	opts.BindFlags(cmd)
	return cmd
}

// RunPlan plans a question and renders the result.
func RunPlan(cmd *cobra.Command, container *app.Container, question string, opts PlanOptions) error {
	if strings.TrimSpace(question) == "" {
		return errors.New(ErrQuestionRequired)
	}
	result, err := container.QueryService.Plan(cmd.Context(), domain.PlanRequest{
		Question:   question,
		Start:      opts.Start,
		End:        opts.End,
		Dimensions: opts.Dimensions,
		Mode:       domain.Mode(opts.Mode),
	})
	if err != nil {
		return err
	}
	if opts.Inline {
		result.SQL = result.Inline()
	}
	out := cmd.OutOrStdout()
	if opts.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	renderPlan(out, result)
	return nil
}

func renderPlan(out io.Writer, result domain.PlanResult) {
	meta := result.Meta
	fmt.Fprintf(out, "KPI: %s", meta.KPI)
	if meta.Unit != "" {
		fmt.Fprintf(out, " (%s)", meta.Unit)
	}
	fmt.Fprintln(out)
	if meta.Dimension != "" {
		fmt.Fprintf(out, "Dimension: %s\n", meta.Dimension)
	}
	fmt.Fprintf(out, "Window: %s .. %s\n", meta.Start, meta.End)
	if meta.FallbackReason != domain.ReasonNone {
		fmt.Fprintf(out, "Planner: %s (%s)\n", meta.Provenance(), meta.FallbackReason)
	} else {
		fmt.Fprintf(out, "Planner: %s\n", meta.Provenance())
	}
	if meta.ID != "" {
		fmt.Fprintf(out, "Plan ID: %s\n", meta.ID)
	}
	fmt.Fprintf(out, "\n%s\n", strings.TrimSpace(result.SQL))
}
