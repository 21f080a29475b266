// Package memory talks to the external semantic-memory service. Recall is a
// best-effort read used for prompt context; Remember persists new snippets.
package memory

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// NoMemories is the degraded recall result used whenever the memory service
// is unavailable or returns nothing. The prompt template renders it verbatim.
const NoMemories = "none"

// DefaultTopK is how many memory snippets a recall asks for.
const DefaultTopK = 5

// Client calls the memory service's /recall and /remember endpoints.
type Client struct {
	http   *resty.Client
	logger zerolog.Logger
}

// NewClient creates a memory Client for the given base URL.
// timeout bounds each recall attempt; recall is never retried so that chat
// turn latency stays predictable.
func NewClient(baseURL string, timeout time.Duration, logger zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	c := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)

	return &Client{
		http:   c,
		logger: logger.With().Str("component", "memory_client").Logger(),
	}
}

type recallRequest struct {
	UserID string `json:"user_id"`
	Query  string `json:"query"`
	TopK   int    `json:"top_k"`
}

type recallResponse struct {
	RelatedMemories []string `json:"related_memories"`
}

// Recall fetches up to topK memory snippets relevant to the query. It never
// returns an error: on any transport or non-2xx failure it degrades to
// NoMemories, because a chat turn must not fail on missing memory context.
func (c *Client) Recall(ctx context.Context, userID, query string, topK int) string {
	if topK <= 0 {
		topK = DefaultTopK
	}

	var out recallResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(&recallRequest{UserID: userID, Query: query, TopK: topK}).
		SetResult(&out).
		Post("/recall")
	if err != nil {
		c.logger.Warn().Err(err).Str("user_id", userID).Msg("Memory recall failed")
		return NoMemories
	}
	if resp.StatusCode() != http.StatusOK {
		c.logger.Warn().Int("status", resp.StatusCode()).Str("user_id", userID).Msg("Memory recall returned non-OK status")
		return NoMemories
	}
	if len(out.RelatedMemories) == 0 {
		return NoMemories
	}
	return strings.Join(out.RelatedMemories, "\n")
}

type rememberRequest struct {
	UserID string `json:"user_id"`
	Text   string `json:"text"`
}

// Remember appends a memory snippet for the user. Unlike Recall this runs on
// background paths with no latency budget, so transient failures are retried
// with exponential backoff before giving up.
func (c *Client) Remember(ctx context.Context, userID, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("memory: empty snippet")
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = 500 * time.Millisecond
	eb.Multiplier = 2.0
	eb.MaxInterval = 10 * time.Second
	eb.Reset()
	b := backoff.WithContext(backoff.WithMaxRetries(eb, 3), ctx)

	operation := func() error {
		resp, err := c.http.R().
			SetContext(ctx).
			SetBody(&rememberRequest{UserID: userID, Text: text}).
			Post("/remember")
		if err != nil {
			return err
		}
		if resp.StatusCode() >= 500 {
			return fmt.Errorf("memory service status %d", resp.StatusCode())
		}
		if resp.StatusCode() >= 400 {
			// Client errors will not improve on retry.
			return backoff.Permanent(fmt.Errorf("memory service status %d", resp.StatusCode()))
		}
		return nil
	}

	if err := backoff.Retry(operation, b); err != nil {
		return fmt.Errorf("store memory snippet: %w", err)
	}
	return nil
}
