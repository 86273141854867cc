package domain

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Mode selects which planners the orchestrator runs.
type Mode string

const (
	ModeAuto     Mode = "auto"
	ModeLLM      Mode = "llm"
	ModeRegistry Mode = "registry"
)

// ParseMode converts user input into a Mode. Empty input means auto.
func ParseMode(value string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(value))) {
	case "", ModeAuto:
		return ModeAuto, nil
	case ModeLLM:
		return ModeLLM, nil
	case ModeRegistry:
		return ModeRegistry, nil
	default:
		return "", fmt.Errorf("%w: mode must be auto|llm|registry, got %q", ErrInvalidRequest, value)
	}
}

// Strategy records which stage produced a plan.
type Strategy string

const (
	StrategyRegistry Strategy = "registry"
	StrategyLLM      Strategy = "llm"
	StrategyFallback Strategy = "fallback"
)

// PlanRequest is the caller-facing planning input.
type PlanRequest struct {
	Question   string
	Start      string
	End        string
	Dimensions []string
	Mode       Mode
}

// Normalize fills defaults and validates the date window.
func (r PlanRequest) Normalize() (PlanRequest, error) {
	out := r
	out.Question = strings.TrimSpace(r.Question)
	if out.Start == "" {
		out.Start = DefaultStart
	}
	if out.End == "" {
		out.End = DefaultEnd
	}
	start, err := time.Parse(DateLayout, out.Start)
	if err != nil {
		return PlanRequest{}, fmt.Errorf("%w: start %q is not a YYYY-MM-DD date", ErrInvalidRequest, out.Start)
	}
	end, err := time.Parse(DateLayout, out.End)
	if err != nil {
		return PlanRequest{}, fmt.Errorf("%w: end %q is not a YYYY-MM-DD date", ErrInvalidRequest, out.End)
	}
	if end.Before(start) {
		return PlanRequest{}, fmt.Errorf("%w: end %s is before start %s", ErrInvalidRequest, out.End, out.Start)
	}
	mode, err := ParseMode(string(out.Mode))
	if err != nil {
		return PlanRequest{}, err
	}
	out.Mode = mode
	dims := make([]string, 0, len(r.Dimensions))
	for _, d := range r.Dimensions {
		if d = strings.TrimSpace(d); d != "" {
			dims = append(dims, d)
		}
	}
	out.Dimensions = dims
	return out, nil
}

// PlanMeta describes how a plan was produced.
type PlanMeta struct {
	ID             string     `json:"plan_id,omitempty"`
	KPI            string     `json:"kpi"`
	Unit           Unit       `json:"unit,omitempty"`
	Dimension      string     `json:"dimension,omitempty"`
	Planner        Strategy   `json:"planner"`
	Start          string     `json:"start"`
	End            string     `json:"end"`
	FallbackReason ReasonCode `json:"fallback_reason,omitempty"`
}

// Provenance reports the strategy for observability: a registry plan produced after a
// failed generative attempt reports fallback.
func (m PlanMeta) Provenance() Strategy {
	if m.FallbackReason != ReasonNone && m.Planner == StrategyRegistry {
		return StrategyFallback
	}
	return m.Planner
}

// PlanResult is a single executable statement plus provenance.
type PlanResult struct {
	SQL  string   `json:"sql"`
	Meta PlanMeta `json:"meta"`
}

// Args returns the named date bounds for parameter binding with database/sql.
func (p PlanResult) Args() []any {
	return []any{
		sql.Named(StartParam, p.Meta.Start),
		sql.Named(EndParam, p.Meta.End),
	}
}

// Inline substitutes the date placeholders with quoted literals. The dates have been
// validated as YYYY-MM-DD by Normalize; prefer Args where the driver can bind.
func (p PlanResult) Inline() string {
	r := strings.NewReplacer(
		StartPlaceholder, "'"+p.Meta.Start+"'",
		EndPlaceholder, "'"+p.Meta.End+"'",
	)
	return r.Replace(p.SQL)
}
