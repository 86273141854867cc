package planner

import (
	"context"

	"github.com/Sahithiv25/InsightMiner/internal/domain"
	"github.com/Sahithiv25/InsightMiner/internal/ports"
)

// RegistryPlanner resolves questions against the KPI registry by text matching.
// It never fails: an unmatched question resolves to the default KPI.
type RegistryPlanner struct {
	catalog ports.KPICatalog
}

// NewRegistryPlanner builds a planner over a loaded registry.
func NewRegistryPlanner(catalog ports.KPICatalog) *RegistryPlanner {
	return &RegistryPlanner{catalog: catalog}
}

// Plan implements ports.Planner.
func (p *RegistryPlanner) Plan(ctx context.Context, req domain.PlanRequest) domain.PlanResult {
	result, _ := p.Attempt(ctx, req)
	return result
}

// Attempt is the chain stage form of Plan; it always succeeds.
func (p *RegistryPlanner) Attempt(_ context.Context, req domain.PlanRequest) (domain.PlanResult, domain.ReasonCode) {
	kpi := p.catalog.FindKPI(req.Question)
	dim, grouped := p.catalog.FindDimension(req.Question, req.Dimensions, kpi)

	meta := domain.PlanMeta{
		KPI:     kpi.Key,
		Unit:    kpi.Unit,
		Planner: domain.StrategyRegistry,
		Start:   req.Start,
		End:     req.End,
	}
	dimName := ""
	if grouped {
		dimName = dim.Name
		meta.Dimension = dim.Alias
	}
	// Every (kpi, allowed dimension) pair is rendered at load time.
	sql, _ := p.catalog.SQL(kpi.Key, dimName)
	return domain.PlanResult{SQL: sql, Meta: meta}, domain.ReasonNone
}

// Stage returns the planner as a chain stage.
func (p *RegistryPlanner) Stage() Stage {
	return Stage{Strategy: domain.StrategyRegistry, Attempt: p.Attempt}
}

var _ ports.Planner = (*RegistryPlanner)(nil)
