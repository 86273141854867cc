// Package ai adapts text-generation providers to the ports.Generator interface.
package ai

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/Sahithiv25/InsightMiner/internal/domain"
	"github.com/Sahithiv25/InsightMiner/internal/ports"
)

const (
	defaultOpenAIEndpoint = "https://api.openai.com/v1/chat/completions"
	defaultOllamaEndpoint = "http://localhost:11434/v1/chat/completions"
	defaultOpenAIModel    = "gpt-4o-mini"
	defaultAnthropicModel = "claude-3-5-haiku-latest"
	defaultGeminiModel    = "gemini-2.0-flash"
	defaultOllamaModel    = "llama3.1"
)

// Factory builds generators from configuration.
type Factory struct {
	httpClient *http.Client
	getenv     func(string) string
}

// NewFactory builds a factory that reads credentials from the environment.
func NewFactory() *Factory {
	return &Factory{
		httpClient: &http.Client{Timeout: domain.DefaultHTTPClientTimeout},
		getenv:     os.Getenv,
	}
}

// ForSettings implements ports.GeneratorFactory. A missing provider or credential
// yields a generator that always reports domain.ErrGeneratorUnavailable, so callers
// fall back instead of failing.
func (f *Factory) ForSettings(ctx context.Context, settings domain.GenerationSettings) (ports.Generator, error) {
	kind := domain.ProviderKind(strings.ToLower(string(settings.Provider)))
	if kind == "" || kind == domain.ProviderKindNone {
		return unavailable{reason: "no provider configured"}, nil
	}

	envVar := settings.AuthEnvVar
	if envVar == "" {
		envVar = kind.DefaultAuthEnvVar()
	}
	apiKey := ""
	if envVar != "" {
		apiKey = strings.TrimSpace(f.getenv(envVar))
	}

	switch kind {
	case domain.ProviderKindOpenAI:
		if apiKey == "" {
			return unavailable{reason: "missing " + envVar}, nil
		}
		return &chatCompletionGenerator{
			name:       "openai",
			endpoint:   defaultString(settings.Endpoint, defaultOpenAIEndpoint),
			model:      defaultString(settings.ModelID, defaultOpenAIModel),
			apiKey:     apiKey,
			org:        f.getenv(defaultString(settings.OrgEnvVar, "OPENAI_ORG_ID")),
			httpClient: f.httpClient,
		}, nil
	case domain.ProviderKindOllama:
		return &chatCompletionGenerator{
			name:       "ollama",
			endpoint:   defaultString(settings.Endpoint, defaultOllamaEndpoint),
			model:      defaultString(settings.ModelID, defaultOllamaModel),
			apiKey:     apiKey,
			httpClient: f.httpClient,
		}, nil
	case domain.ProviderKindAnthropic:
		if apiKey == "" {
			return unavailable{reason: "missing " + envVar}, nil
		}
		return newAnthropicGenerator(apiKey, defaultString(settings.ModelID, defaultAnthropicModel), settings.Endpoint), nil
	case domain.ProviderKindGemini:
		if apiKey == "" {
			return unavailable{reason: "missing " + envVar}, nil
		}
		return newGeminiGenerator(ctx, apiKey, defaultString(settings.ModelID, defaultGeminiModel))
	default:
		return nil, fmt.Errorf("unsupported provider: %s", settings.Provider)
	}
}

// unavailable stands in when generation is not configured.
type unavailable struct {
	reason string
}

func (u unavailable) Name() string {
	return "unavailable"
}

func (u unavailable) Generate(context.Context, domain.GenerationRequest) (string, error) {
	return "", fmt.Errorf("%w: %s", domain.ErrGeneratorUnavailable, u.reason)
}

func defaultString(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

var _ ports.GeneratorFactory = (*Factory)(nil)
