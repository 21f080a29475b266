package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ErrGenerationFailed wraps any provider failure surfaced by the Gateway.
// Callers that need a fallback should match with errors.Is.
var ErrGenerationFailed = fmt.Errorf("generation failed")

// Gateway wraps a single completion call against a Client. It performs no
// retries and no streaming; resilience is the caller's responsibility.
type Gateway struct {
	client    Client
	model     string
	maxTokens int64
	timeout   time.Duration
	logger    zerolog.Logger
}

// NewGateway creates a Gateway for the given client and model.
// timeout bounds each completion call; zero means no caller-side bound.
func NewGateway(client Client, model string, maxTokens int64, timeout time.Duration, logger zerolog.Logger) *Gateway {
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &Gateway{
		client:    client,
		model:     model,
		maxTokens: maxTokens,
		timeout:   timeout,
		logger:    logger.With().Str("component", "llm_gateway").Logger(),
	}
}

// Complete sends one prompt and returns the raw completion text.
func (g *Gateway) Complete(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("%w: empty prompt", ErrGenerationFailed)
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := g.client.Synchronous(ctx, &Request{
		Model:     g.model,
		MaxTokens: g.maxTokens,
		Messages: []Message{
			{Role: RoleUser, Content: prompt},
		},
	})
	if err != nil {
		g.logger.Error().Err(err).Dur("elapsed", time.Since(start)).Msg("Completion call failed")
		// Both the sentinel and the provider error stay in the chain so
		// callers can still match IsRateLimitError and friends.
		return "", fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	g.logger.Debug().
		Dur("elapsed", time.Since(start)).
		Int64("input_tokens", resp.Usage.InputTokens).
		Int64("output_tokens", resp.Usage.OutputTokens).
		Msg("Completion call finished")

	return resp.Content, nil
}
