package planner

import (
	"context"
	"errors"
	"time"

	"github.com/Sahithiv25/InsightMiner/internal/domain"
	"github.com/Sahithiv25/InsightMiner/internal/ports"
)

// GenerativePlanner asks a text generator for a plan and accepts it only after the
// validator and the syntax probe agree. Any failure hands over to the registry planner.
type GenerativePlanner struct {
	Generator ports.Generator
	Validator ports.SQLValidator
	Probe     ports.SyntaxProbe
	Catalog   ports.KPICatalog
	Schema    ports.SchemaCatalog
	Fallback  *RegistryPlanner
	Settings  domain.GenerationSettings
	Logger    ports.Logger

	// ProbeTimeout bounds the syntax probe; zero means domain.DefaultProbeTimeout.
	ProbeTimeout time.Duration
}

// Plan implements ports.Planner. It never fails: when the generated plan is rejected
// the registry plan is returned with FallbackReason set.
func (p *GenerativePlanner) Plan(ctx context.Context, req domain.PlanRequest) domain.PlanResult {
	return p.Chain().Run(ctx, req)
}

// Chain returns the generative stage followed by the registry fallback.
func (p *GenerativePlanner) Chain() Chain {
	return Chain{
		Stages: []Stage{p.Stage(), p.Fallback.Stage()},
		Logger: p.Logger,
	}
}

// Stage returns the generative attempt as a chain stage.
func (p *GenerativePlanner) Stage() Stage {
	return Stage{Strategy: domain.StrategyLLM, Attempt: p.Attempt}
}

// Attempt runs prompt, generation, parsing, validation and probing once. No retries.
// A planner without a Probe declines every generated plan with syntax_probe_failed.
func (p *GenerativePlanner) Attempt(ctx context.Context, req domain.PlanRequest) (domain.PlanResult, domain.ReasonCode) {
	if p.Generator == nil {
		return domain.PlanResult{}, domain.ReasonGenerationUnavailable
	}

	prompt := BuildPrompt(req.Question, req.Dimensions, p.Catalog, p.Schema)

	genCtx, cancel := context.WithTimeout(ctx, p.Settings.Timeout())
	raw, err := p.Generator.Generate(genCtx, domain.GenerationRequest{
		Prompt:      prompt,
		MaxTokens:   p.Settings.TokenBudget(),
		Temperature: domain.DefaultTemperature,
	})
	cancel()
	if err != nil {
		fields := map[string]interface{}{"generator": p.Generator.Name()}
		if errors.Is(err, domain.ErrGeneratorUnavailable) {
			p.debug("generator not configured", fields)
		} else {
			p.logError("generator call failed", err, fields)
		}
		return domain.PlanResult{}, domain.ReasonGenerationUnavailable
	}

	parsed, err := parseReply(raw)
	if err != nil {
		p.debug("generator reply rejected", map[string]interface{}{"bytes": len(raw)})
		return domain.PlanResult{}, domain.ReasonGenerationMalformed
	}

	if outcome := p.Validator.Validate(parsed.SQL); !outcome.Accepted {
		p.debug("generated sql rejected", map[string]interface{}{
			"reason": string(outcome.Reason),
			"detail": outcome.Detail,
		})
		return domain.PlanResult{}, outcome.Reason
	}

	// Without a warehouse to plan against, generated SQL cannot pass the probe gate.
	if p.Probe == nil {
		p.debug("no syntax probe configured", nil)
		return domain.PlanResult{}, domain.ReasonSyntaxProbeFailed
	}
	timeout := p.ProbeTimeout
	if timeout <= 0 {
		timeout = domain.DefaultProbeTimeout
	}
	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	err = p.Probe.Probe(probeCtx, parsed.SQL, req.Start, req.End)
	cancel()
	if err != nil {
		p.debug("syntax probe failed", map[string]interface{}{"error": err.Error()})
		return domain.PlanResult{}, domain.ReasonSyntaxProbeFailed
	}

	meta := domain.PlanMeta{
		KPI:     parsed.KPI,
		Planner: domain.StrategyLLM,
		Start:   req.Start,
		End:     req.End,
	}
	if len(parsed.Dims) > 0 {
		meta.Dimension = parsed.Dims[0]
	}
	return domain.PlanResult{SQL: parsed.SQL, Meta: meta}, domain.ReasonNone
}

func (p *GenerativePlanner) debug(msg string, fields map[string]interface{}) {
	if p.Logger != nil {
		p.Logger.Debug(msg, fields)
	}
}

func (p *GenerativePlanner) logError(msg string, err error, fields map[string]interface{}) {
	if p.Logger != nil {
		p.Logger.Error(msg, err, fields)
	}
}

var _ ports.Planner = (*GenerativePlanner)(nil)
