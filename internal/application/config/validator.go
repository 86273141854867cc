// Package config validates a loaded configuration before the container wires it.
package config

import (
	"fmt"
	"time"

	"github.com/Sahithiv25/InsightMiner/internal/domain"
)

// Validate ensures config structure is consistent.
func Validate(cfg domain.Config) error {
	if _, err := domain.ParseMode(cfg.Planner.Mode); err != nil {
		return fmt.Errorf("planner.mode: %w", err)
	}
	if err := validateWindow(cfg.Planner); err != nil {
		return err
	}
	if err := validateGeneration(cfg.Generation); err != nil {
		return err
	}
	if cfg.History.Enabled && cfg.History.Path == "" {
		return fmt.Errorf("history.path must be set when history is enabled")
	}
	return nil
}

func validateWindow(p domain.PlannerSettings) error {
	start, err := time.Parse(domain.DateLayout, p.DefaultStart)
	if err != nil {
		return fmt.Errorf("planner.default_start must be YYYY-MM-DD, got %q", p.DefaultStart)
	}
	end, err := time.Parse(domain.DateLayout, p.DefaultEnd)
	if err != nil {
		return fmt.Errorf("planner.default_end must be YYYY-MM-DD, got %q", p.DefaultEnd)
	}
	if end.Before(start) {
		return fmt.Errorf("planner.default_end %s is before default_start %s", p.DefaultEnd, p.DefaultStart)
	}
	return nil
}

func validateGeneration(g domain.GenerationSettings) error {
	switch g.Provider {
	case "", domain.ProviderKindNone, domain.ProviderKindOpenAI, domain.ProviderKindAnthropic,
		domain.ProviderKindGemini, domain.ProviderKindOllama:
	default:
		return fmt.Errorf("generation.provider must be none|openai|anthropic|gemini|ollama, got %s", g.Provider)
	}
	if g.TimeoutSeconds < 0 {
		return fmt.Errorf("generation.timeout must be >= 0")
	}
	if g.MaxTokens < 0 {
		return fmt.Errorf("generation.max_tokens must be >= 0")
	}
	return nil
}
