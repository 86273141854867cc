// Package query is the single entry point callers use to plan an analytics question.
package query

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Sahithiv25/InsightMiner/internal/application/planner"
	"github.com/Sahithiv25/InsightMiner/internal/domain"
	"github.com/Sahithiv25/InsightMiner/internal/ports"
)

// Service orchestrates the planning lifecycle end-to-end.
type Service struct {
	Config     domain.Config
	Registry   *planner.RegistryPlanner
	Generative *planner.GenerativePlanner
	History    ports.HistoryRepository
	Recorder   ports.PlanRecorder
	Logger     ports.Logger

	// Now and NewID are replaceable in tests.
	Now   func() time.Time
	NewID func() string
}

// Plan normalizes the request, runs the strategy chain for its mode and records the
// outcome. The only error is domain.ErrInvalidRequest; any normalized request yields a plan.
func (s *Service) Plan(ctx context.Context, req domain.PlanRequest) (domain.PlanResult, error) {
	if s.Registry == nil || s.Logger == nil {
		return domain.PlanResult{}, errors.New("query.Service dependencies not satisfied")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	req = s.Config.ApplyWindowDefaults(req)
	req, err := req.Normalize()
	if err != nil {
		return domain.PlanResult{}, err
	}

	started := s.now()
	result := s.chainFor(req.Mode).Run(ctx, req)
	elapsed := s.now().Sub(started)
	result.Meta.ID = s.newID()

	fields := map[string]interface{}{
		"plan_id":  result.Meta.ID,
		"mode":     string(req.Mode),
		"planner":  string(result.Meta.Provenance()),
		"kpi":      result.Meta.KPI,
		"duration": elapsed.String(),
	}
	if result.Meta.FallbackReason != domain.ReasonNone {
		fields["fallback_reason"] = string(result.Meta.FallbackReason)
	}
	if req.Mode == domain.ModeLLM && result.Meta.Planner != domain.StrategyLLM {
		s.Logger.Warn("llm mode served by registry planner", fields)
	} else {
		s.Logger.Info("plan ready", fields)
	}

	if s.Recorder != nil {
		s.Recorder.ObservePlan(result, elapsed.Seconds())
	}
	s.record(ctx, req, result, elapsed)
	return result, nil
}

// chainFor builds the ordered strategy list for a mode. auto and llm share the
// generative stage with silent registry fallback.
func (s *Service) chainFor(mode domain.Mode) planner.Chain {
	if mode == domain.ModeRegistry || s.Generative == nil {
		return planner.Chain{Stages: []planner.Stage{s.Registry.Stage()}, Logger: s.Logger}
	}
	return planner.Chain{
		Stages: []planner.Stage{s.Generative.Stage(), s.Registry.Stage()},
		Logger: s.Logger,
	}
}

func (s *Service) record(ctx context.Context, req domain.PlanRequest, result domain.PlanResult, elapsed time.Duration) {
	if s.History == nil {
		return
	}
	rec := domain.PlanRecord{
		ID:             result.Meta.ID,
		Timestamp:      s.now(),
		Question:       req.Question,
		Mode:           req.Mode,
		Planner:        result.Meta.Provenance(),
		FallbackReason: result.Meta.FallbackReason,
		KPI:            result.Meta.KPI,
		Dimension:      result.Meta.Dimension,
		SQL:            result.SQL,
		DurationMS:     elapsed.Milliseconds(),
	}
	if err := s.History.Save(ctx, rec); err != nil {
		s.Logger.Warn("history save failed", map[string]interface{}{"error": err.Error()})
	}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}
