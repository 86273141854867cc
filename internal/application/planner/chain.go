// Package planner turns analytics questions into a single validated SQL statement.
//
// Planning runs as an ordered chain of stages. Each stage either produces a plan
// or reports the reason it declined; the first stage to produce a plan wins.
package planner

import (
	"context"

	"github.com/Sahithiv25/InsightMiner/internal/domain"
	"github.com/Sahithiv25/InsightMiner/internal/ports"
)

// AttemptFunc runs one planning strategy. A non-empty reason means the stage declined
// and the chain moves on.
type AttemptFunc func(context.Context, domain.PlanRequest) (domain.PlanResult, domain.ReasonCode)

// Stage pairs a strategy tag with its attempt.
type Stage struct {
	Strategy domain.Strategy
	Attempt  AttemptFunc
}

// Chain evaluates stages in order and short-circuits on the first success.
// The last stage is expected to be infallible.
type Chain struct {
	Stages []Stage
	Logger ports.Logger
}

// Run executes the chain. When a later stage succeeds after an earlier one declined,
// the first declining reason is recorded as the fallback reason.
func (c Chain) Run(ctx context.Context, req domain.PlanRequest) domain.PlanResult {
	var (
		firstReason domain.ReasonCode
		last        domain.PlanResult
	)
	for i, stage := range c.Stages {
		result, reason := stage.Attempt(ctx, req)
		if reason == domain.ReasonNone {
			if firstReason != domain.ReasonNone {
				result.Meta.FallbackReason = firstReason
			}
			return result
		}
		if firstReason == domain.ReasonNone {
			firstReason = reason
		}
		last = result
		if c.Logger != nil {
			c.Logger.Warn("planning stage declined", map[string]interface{}{
				"stage":    string(stage.Strategy),
				"reason":   string(reason),
				"position": i,
			})
		}
	}
	last.Meta.FallbackReason = firstReason
	return last
}
