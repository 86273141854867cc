package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Sahithiv25/InsightMiner/internal/domain"
)

// chatCompletionGenerator speaks the OpenAI chat completions wire format, which
// Ollama also serves.
type chatCompletionGenerator struct {
	name       string
	endpoint   string
	model      string
	apiKey     string
	org        string
	httpClient *http.Client
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (g *chatCompletionGenerator) Name() string {
	return g.name
}

func (g *chatCompletionGenerator) Generate(ctx context.Context, req domain.GenerationRequest) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       g.model,
		Messages:    []chatMessage{{Role: "user", Content: req.Prompt}},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("content-type", "application/json")
	if g.apiKey != "" {
		httpReq.Header.Set("authorization", "Bearer "+g.apiKey)
	}
	if g.org != "" {
		httpReq.Header.Set("OpenAI-Organization", g.org)
	}

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%s: %w", g.name, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("%s: read response: %w", g.name, err)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("%s: %s", g.name, resp.Status)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("%s: decode response: %w", g.name, err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("%s: %s", g.name, parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New(g.name + ": empty response")
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}
