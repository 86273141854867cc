package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sahithiv25/InsightMiner/internal/app"
	"github.com/Sahithiv25/InsightMiner/internal/domain"
	"github.com/Sahithiv25/InsightMiner/internal/infrastructure/cli/helpers"
	"github.com/Sahithiv25/InsightMiner/internal/infrastructure/history"
	"github.com/Sahithiv25/InsightMiner/internal/ports"
)

// NewHistoryCommand creates the history command with all subcommands
func NewHistoryCommand(container *app.Container) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect plan history and provenance",
	}

	historyCmd.AddCommand(
		newHistoryListCommand(container),
		newHistorySearchCommand(container),
		newHistoryClearCommand(container),
		newHistoryExportCommand(container),
		newHistoryStatsCommand(container),
	)

	return historyCmd
}

func newHistoryListCommand(container *app.Container) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent plans",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listHistoryEntries(cmd.Context(), cmd.OutOrStdout(), container, limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", DefaultHistoryLimit, "Max entries to show")
	return cmd
}

func newHistorySearchCommand(container *app.Container) *cobra.Command {
	var query string
	var searchLimit int

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search plans by question, KPI, planner or SQL",
		RunE: func(cmd *cobra.Command, args []string) error {
			if query == "" {
				return errors.New(ErrQueryRequired)
			}
			return searchHistoryEntries(cmd.Context(), cmd.OutOrStdout(), container, query, searchLimit)
		},
	}

	cmd.Flags().StringVar(&query, "query", "", "Search keyword")
	cmd.Flags().IntVar(&searchLimit, "limit", DefaultHistorySearchLimit, "Limit search results")
	return cmd
}

func newHistoryClearCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all recorded plans",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := historyStore(container)
			if err != nil {
				return err
			}
			if err := store.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("failed to clear history: %w", err)
			}
			return nil
		},
	}
}

func newHistoryExportCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "export <path>",
		Short: "Export history to a JSONL file (- for stdout)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return exportHistory(cmd.Context(), cmd.OutOrStdout(), container, args[0])
		},
	}
}

func newHistoryStatsCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show plan counts per planner and fallback reason",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showHistoryStats(cmd.Context(), cmd.OutOrStdout(), container)
		},
	}
}

func historyStore(container *app.Container) (ports.HistoryRepository, error) {
	if container.HistoryStore == nil {
		return nil, errors.New(ErrHistoryStoreUnavailable)
	}
	return container.HistoryStore, nil
}

func listHistoryEntries(ctx context.Context, out io.Writer, container *app.Container, limit int) error {
	store, err := historyStore(container)
	if err != nil {
		return err
	}
	records, err := store.List(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to retrieve history records: %w", err)
	}
	renderRecords(out, records)
	return nil
}

func searchHistoryEntries(ctx context.Context, out io.Writer, container *app.Container, query string, limit int) error {
	store, err := historyStore(container)
	if err != nil {
		return err
	}
	records, err := store.Search(ctx, query, limit)
	if err != nil {
		return fmt.Errorf("failed to search history: %w", err)
	}
	renderRecords(out, records)
	return nil
}

func renderRecords(out io.Writer, records []domain.PlanRecord) {
	if len(records) == 0 {
		fmt.Fprintln(out, MsgNoHistoryRecorded)
		return
	}
	for _, rec := range records {
		planner := string(rec.Provenance())
		if rec.FallbackReason != domain.ReasonNone {
			planner += "/" + string(rec.FallbackReason)
		}
		fmt.Fprintf(out, "%s | %s | %s | %s | %s\n",
			rec.Timestamp.Format(TimestampFormat),
			rec.ID,
			planner,
			rec.KPI,
			rec.Question)
	}
}

func exportHistory(ctx context.Context, stdout io.Writer, container *app.Container, path string) error {
	store, err := historyStore(container)
	if err != nil {
		return err
	}
	if path == "-" {
		return history.Export(ctx, store, stdout)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, domain.SecureFilePermissions)
	if err != nil {
		return err
	}
	if err := history.Export(ctx, store, file); err != nil {
		file.Close()
		return fmt.Errorf("failed to export history to %s: %w", path, err)
	}
	return file.Close()
}

func showHistoryStats(ctx context.Context, out io.Writer, container *app.Container) error {
	store, err := historyStore(container)
	if err != nil {
		return err
	}
	stats, err := store.Stats(ctx)
	if err != nil {
		return fmt.Errorf("failed to aggregate history: %w", err)
	}
	if stats.Total == 0 {
		fmt.Fprintln(out, MsgNoHistoryRecorded)
		return nil
	}

	fmt.Fprintf(out, "Plans recorded: %d (since %s)\nFallback rate: %.1f%%\n",
		stats.Total,
		stats.OldestSeen.Format(TimestampFormat),
		helpers.FallbackRate(stats))

	fmt.Fprintln(out, "By planner:")
	for _, stat := range helpers.RankCounts(helpers.StrategyCounts(stats.ByPlanner), 0) {
		fmt.Fprintf(out, "  %s: %d\n", stat.Label, stat.Count)
	}
	if len(stats.ByReason) > 0 {
		fmt.Fprintln(out, "Fallback reasons:")
		for _, stat := range helpers.RankCounts(helpers.ReasonCounts(stats.ByReason), 0) {
			fmt.Fprintf(out, "  %s: %d\n", stat.Label, stat.Count)
		}
	}
	fmt.Fprintln(out, "Top KPIs:")
	for _, stat := range helpers.RankCounts(stats.ByKPI, topKPIs) {
		fmt.Fprintf(out, "  %s (%d)\n", stat.Label, stat.Count)
	}
	return nil
}
