package config

import (
	"strings"
	"testing"

	"github.com/Sahithiv25/InsightMiner/internal/domain"
)

func validConfig() domain.Config {
	return domain.Config{
		Planner: domain.PlannerSettings{
			Mode:         "auto",
			DefaultStart: "2024-01-01",
			DefaultEnd:   "2024-12-31",
		},
		Generation: domain.GenerationSettings{Provider: domain.ProviderKindAnthropic, TimeoutSeconds: 12, MaxTokens: 600},
		History:    domain.HistorySettings{Enabled: true, Path: "/tmp/history.db"},
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	if err := Validate(validConfig()); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.Config)
		want   string
	}{
		{"mode", func(c *domain.Config) { c.Planner.Mode = "magic" }, "planner.mode"},
		{"start", func(c *domain.Config) { c.Planner.DefaultStart = "01/01/2024" }, "default_start"},
		{"end", func(c *domain.Config) { c.Planner.DefaultEnd = "2024-13-01" }, "default_end"},
		{"inverted", func(c *domain.Config) { c.Planner.DefaultEnd = "2023-01-01" }, "before"},
		{"provider", func(c *domain.Config) { c.Generation.Provider = "cohere" }, "generation.provider"},
		{"timeout", func(c *domain.Config) { c.Generation.TimeoutSeconds = -1 }, "generation.timeout"},
		{"tokens", func(c *domain.Config) { c.Generation.MaxTokens = -5 }, "max_tokens"},
		{"history", func(c *domain.Config) { c.History.Path = "" }, "history.path"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := Validate(cfg)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Validate() error = %v, want mention of %q", err, tt.want)
			}
		})
	}
}
