package domain

import "time"

// PlanRecord captures one orchestrated plan and its provenance.
type PlanRecord struct {
	ID             string     `json:"id"`
	Timestamp      time.Time  `json:"timestamp"`
	Question       string     `json:"question"`
	Mode           Mode       `json:"mode"`
	Planner        Strategy   `json:"planner"`
	FallbackReason ReasonCode `json:"fallback_reason,omitempty"`
	KPI            string     `json:"kpi"`
	Dimension      string     `json:"dimension,omitempty"`
	SQL            string     `json:"sql"`
	DurationMS     int64      `json:"duration_ms"`
}

// HistoryStats aggregates plan records by provenance.
type HistoryStats struct {
	Total      int                `json:"total"`
	ByPlanner  map[Strategy]int   `json:"by_planner"`
	ByReason   map[ReasonCode]int `json:"by_reason"`
	ByKPI      map[string]int     `json:"by_kpi"`
	OldestSeen time.Time          `json:"oldest_seen"`
}

// Provenance reports registry, llm or fallback for the stored plan.
func (r PlanRecord) Provenance() Strategy {
	return PlanMeta{Planner: r.Planner, FallbackReason: r.FallbackReason}.Provenance()
}
