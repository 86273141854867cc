// Package cli builds the insightminer command tree.
package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Sahithiv25/InsightMiner/internal/app"
	"github.com/Sahithiv25/InsightMiner/internal/infrastructure/cli/commands"
)

// Options holds CLI-level configuration.
type Options struct {
	Verbose bool
}

// NewRootCmd wires the cobra root command. The container is built after flag parsing
// so --config and --verbose apply; commands share the same instance.
func NewRootCmd(ctx context.Context, opts Options) (*cobra.Command, error) {
	container := &app.Container{}
	var configPath string
	var planOpts commands.PlanOptions

	root := &cobra.Command{
		Use:   "insightminer [question]",
		Short: "InsightMiner - KPI copilot for the analytics warehouse",
		Long:  "InsightMiner turns business questions into validated, read-only SQL over the analytics warehouse.",
		Args:  cobra.ArbitraryArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !needsContainer(cmd) {
				return nil
			}
			built, err := app.BuildContainer(cmd.Context(), app.Options{ConfigPath: configPath, Verbose: opts.Verbose})
			if err != nil {
				return err
			}
			*container = *built
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return container.Close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return commands.RunPlan(cmd, container, strings.Join(args, " "), planOpts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetContext(ctx)

	root.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.insightminer/config.yaml)")
	root.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", opts.Verbose, "Enable debug logging")
	planOpts.BindFlags(root)

	root.AddCommand(
		commands.NewPlanCommand(container),
		commands.NewValidateCommand(container),
		commands.NewKPIsCommand(container),
		commands.NewHistoryCommand(container),
		commands.NewDoctorCommand(container),
		commands.NewServeCommand(container),
		commands.NewConfigCommand(container),
		commands.NewVersionCommand(),
	)
	return root, nil
}

func needsContainer(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[commands.SkipContainer] == "true" {
			return false
		}
		if c.Name() == "help" || c.Name() == cobra.ShellCompRequestCmd || c.Name() == "completion" {
			return false
		}
	}
	return true
}
