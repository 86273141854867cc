package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/Sahithiv25/InsightMiner/internal/domain"
)

type anthropicGenerator struct {
	client anthropic.Client
	model  anthropic.Model
}

func newAnthropicGenerator(apiKey, model, endpoint string) *anthropicGenerator {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if endpoint != "" {
		opts = append(opts, option.WithBaseURL(endpoint))
	}
	return &anthropicGenerator{
		client: anthropic.NewClient(opts...),
		model:  anthropic.Model(model),
	}
}

func (g *anthropicGenerator) Name() string {
	return "anthropic"
}

func (g *anthropicGenerator) Generate(ctx context.Context, req domain.GenerationRequest) (string, error) {
	msg, err := g.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       g.model,
		MaxTokens:   int64(req.MaxTokens),
		Temperature: anthropic.Float(req.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic: %w", err)
	}
	for _, block := range msg.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", errors.New("anthropic: no text content in response")
}
