// Package llm adapts langchaingo chat models to domain.TextGenerator.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"neurabuddy/internal/config"
	"neurabuddy/internal/domain"
	"neurabuddy/internal/logger"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
	"go.uber.org/zap"
)

const defaultTimeout = 60 * time.Second

// Generator sends prompts to a langchaingo model with a per-call timeout.
type Generator struct {
	model   llms.Model
	timeout time.Duration
}

func NewGenerator(model llms.Model, timeout time.Duration) *Generator {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Generator{model: model, timeout: timeout}
}

// NewModel builds the chat model selected by cfg.Provider.
func NewModel(cfg config.LLMConfig) (llms.Model, error) {
	switch cfg.Provider {
	case "ollama":
		return ollama.New(
			ollama.WithServerURL(cfg.ServerURL),
			ollama.WithModel(cfg.Model),
			ollama.WithHTTPClient(&http.Client{Timeout: cfg.Timeout + 5*time.Second}),
		)
	case "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openai provider requires llm.api_key or OPENAI_API_KEY")
		}
		return openai.New(openai.WithToken(cfg.APIKey), openai.WithModel(cfg.Model))
	default:
		return nil, fmt.Errorf("unsupported llm provider: %q", cfg.Provider)
	}
}

// Generate implements domain.TextGenerator.
func (g *Generator) Generate(ctx context.Context, p domain.Prompt) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	messages := make([]llms.MessageContent, 0, 2)
	if p.System != "" {
		messages = append(messages, llms.TextParts(schema.ChatMessageTypeSystem, p.System))
	}
	messages = append(messages, llms.TextParts(schema.ChatMessageTypeHuman, p.User))

	resp, err := g.model.GenerateContent(ctx, messages, llms.WithTemperature(p.Temperature))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			logger.Get().Error("LLM request timed out", zap.Duration("timeout", g.timeout))
			return "", fmt.Errorf("LLM request timed out: %w", err)
		}
		logger.Get().Error("Failed to get response from LLM", zap.Error(err))
		return "", fmt.Errorf("LLM call failed: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("LLM returned no choices")
	}
	return resp.Choices[0].Content, nil
}
