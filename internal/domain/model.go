// Package domain defines core business entities and value objects for InsightMiner.
//
// This file contains text-generation provider definitions. The domain layer is
// independent of infrastructure concerns and represents pure data structures.
package domain

import "time"

// ProviderKind enumerates the supported text-generation backends.
type ProviderKind string

const (
	ProviderKindNone      ProviderKind = "none"
	ProviderKindOpenAI    ProviderKind = "openai"
	ProviderKindAnthropic ProviderKind = "anthropic"
	ProviderKindGemini    ProviderKind = "gemini"
	ProviderKindOllama    ProviderKind = "ollama"
)

// GenerationSettings describes the text-generation provider declared in the config file.
type GenerationSettings struct {
	Provider       ProviderKind `yaml:"provider"`
	ModelID        string       `yaml:"model_id"`
	Endpoint       string       `yaml:"endpoint,omitempty"`
	AuthEnvVar     string       `yaml:"auth_env_var,omitempty"`
	OrgEnvVar      string       `yaml:"org_env_var,omitempty"`
	TimeoutSeconds int          `yaml:"timeout"`
	MaxTokens      int          `yaml:"max_tokens"`
}

// Timeout returns the per-call generation timeout with default fallback.
func (g GenerationSettings) Timeout() time.Duration {
	if g.TimeoutSeconds <= 0 {
		return DefaultGenerationTimeout
	}
	return time.Duration(g.TimeoutSeconds) * time.Second
}

// TokenBudget returns the max output tokens with default fallback.
func (g GenerationSettings) TokenBudget() int {
	if g.MaxTokens <= 0 {
		return DefaultMaxTokens
	}
	return g.MaxTokens
}

// DefaultAuthEnvVar returns the conventional credential variable for the provider.
func (k ProviderKind) DefaultAuthEnvVar() string {
	switch k {
	case ProviderKindOpenAI:
		return "OPENAI_API_KEY"
	case ProviderKindAnthropic:
		return "ANTHROPIC_API_KEY"
	case ProviderKindGemini:
		return "GEMINI_API_KEY"
	default:
		return ""
	}
}

// GenerationRequest is one call to the text-generation capability.
type GenerationRequest struct {
	Prompt      string
	MaxTokens   int
	Temperature float64
}
