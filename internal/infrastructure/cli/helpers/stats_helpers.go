// Package helpers holds formatting utilities shared by CLI commands.
package helpers

import (
	"sort"

	"github.com/Sahithiv25/InsightMiner/internal/domain"
)

// CountStatistic is one labelled bucket of a frequency table.
type CountStatistic struct {
	Label string
	Count int
}

// RankCounts returns buckets by count (descending) then label (ascending).
// If limit is 0 or negative, returns all buckets.
func RankCounts(frequency map[string]int, limit int) []CountStatistic {
	stats := make([]CountStatistic, 0, len(frequency))
	for label, count := range frequency {
		stats = append(stats, CountStatistic{Label: label, Count: count})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count == stats[j].Count {
			return stats[i].Label < stats[j].Label
		}
		return stats[i].Count > stats[j].Count
	})
	if limit > 0 && len(stats) > limit {
		return stats[:limit]
	}
	return stats
}

// StrategyCounts converts provenance counts to string keys.
func StrategyCounts(in map[domain.Strategy]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[string(k)] = v
	}
	return out
}

// ReasonCounts converts fallback reason counts to string keys.
func ReasonCounts(in map[domain.ReasonCode]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[string(k)] = v
	}
	return out
}

// FallbackRate is the share of plans served by the registry after a generative attempt, as a percentage.
func FallbackRate(stats domain.HistoryStats) float64 {
	if stats.Total == 0 {
		return 0.0
	}
	return float64(stats.ByPlanner[domain.StrategyFallback]) / float64(stats.Total) * 100.0
}
