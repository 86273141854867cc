package history

import (
	"context"
	"encoding/json"
	"io"

	"github.com/Sahithiv25/InsightMiner/internal/domain"
	"github.com/Sahithiv25/InsightMiner/internal/ports"
)

func computeStats(records []domain.PlanRecord) domain.HistoryStats {
	stats := domain.HistoryStats{
		Total:     len(records),
		ByPlanner: make(map[domain.Strategy]int),
		ByReason:  make(map[domain.ReasonCode]int),
		ByKPI:     make(map[string]int),
	}
	for _, rec := range records {
		stats.ByPlanner[rec.Provenance()]++
		if rec.FallbackReason != domain.ReasonNone {
			stats.ByReason[rec.FallbackReason]++
		}
		stats.ByKPI[rec.KPI]++
		if stats.OldestSeen.IsZero() || rec.Timestamp.Before(stats.OldestSeen) {
			stats.OldestSeen = rec.Timestamp
		}
	}
	return stats
}

// Export writes every record, oldest first, as JSON lines.
func Export(ctx context.Context, repo ports.HistoryRepository, w io.Writer) error {
	records, err := repo.List(ctx, 0)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	for i := len(records) - 1; i >= 0; i-- {
		if err := enc.Encode(records[i]); err != nil {
			return err
		}
	}
	return nil
}
