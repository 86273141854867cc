package commands

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Sahithiv25/InsightMiner/internal/app"
)

// NewKPIsCommand creates the kpis command
func NewKPIsCommand(container *app.Container) *cobra.Command {
	kpisCmd := &cobra.Command{
		Use:   "kpis",
		Short: "List the KPI registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listKPIs(cmd.OutOrStdout(), container)
		},
	}
	kpisCmd.AddCommand(newKPIShowCommand(container))
	return kpisCmd
}

func newKPIShowCommand(container *app.Container) *cobra.Command {
	var dimension string
	cmd := &cobra.Command{
		Use:   "show <key>",
		Short: "Print the canonical SQL for a KPI",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return showKPI(cmd.OutOrStdout(), container, args[0], dimension)
		},
	}
	cmd.Flags().StringVarP(&dimension, "dim", "d", "", "Render with this dimension")
	return cmd
}

func listKPIs(out io.Writer, container *app.Container) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tNAME\tUNIT\tDIMENSIONS")
	for _, kpi := range container.Registry.KPIs() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", kpi.Key, kpi.Name, kpi.Unit, strings.Join(kpi.AllowDimensions, ","))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "\nDefault KPI: %s\n", container.Registry.DefaultKPI().Key)
	return nil
}

func showKPI(out io.Writer, container *app.Container, key, dimension string) error {
	kpi, ok := container.Registry.KPI(key)
	if !ok {
		return fmt.Errorf("unknown KPI %q", key)
	}
	if dimension != "" && !kpi.Allows(dimension) {
		return fmt.Errorf("KPI %s cannot be grouped by %q (allowed: %s)", key, dimension, strings.Join(kpi.AllowDimensions, ", "))
	}
	sql, _ := container.Registry.SQL(key, dimension)
	fmt.Fprintf(out, "%s (%s)\n", kpi.Name, kpi.Unit)
	if kpi.Description != "" {
		fmt.Fprintln(out, kpi.Description)
	}
	fmt.Fprintf(out, "\n%s\n", strings.TrimSpace(sql))
	return nil
}
