// Package openrouter implements the AI collaborator port against the
// OpenRouter chat-completions API.
package openrouter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/fairyhunter13/ai-placement-coach/internal/adapter/observability"
	"github.com/fairyhunter13/ai-placement-coach/internal/config"
	"github.com/fairyhunter13/ai-placement-coach/internal/domain"
)

// Client implements domain.AIClient. Each call is a single attempt: the
// feedback builder falls back deterministically on any error, so retrying
// here would only delay the user's report.
type Client struct {
	cfg config.Config
	hc  *http.Client
}

// New constructs a client bound by the configured AI timeout.
func New(cfg config.Config) *Client {
	return &Client{cfg: cfg, hc: &http.Client{Timeout: cfg.AITimeout}}
}

// ChatJSON calls the OpenRouter chat-completions endpoint and returns the
// first choice's message content.
func (c *Client) ChatJSON(ctx domain.Context, systemPrompt, userPrompt string, maxTokens int) (string, error) {
	if c.cfg.OpenRouterAPIKey == "" {
		return "", fmt.Errorf("op=openrouter.ChatJSON: OPENROUTER_API_KEY missing: %w", domain.ErrAIUnavailable)
	}

	body := map[string]any{
		"model":       c.cfg.OpenRouterModel,
		"temperature": 0.2,
		"max_tokens":  maxTokens,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": userPrompt},
		},
	}
	b, _ := json.Marshal(body)

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.OpenRouterBaseURL+"/chat/completions", bytes.NewReader(b))
	if err != nil {
		return "", fmt.Errorf("op=openrouter.ChatJSON: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.OpenRouterAPIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	observability.AIRequestDuration.WithLabelValues("openrouter").Observe(time.Since(start).Seconds())
	if err != nil {
		observability.AIRequestsTotal.WithLabelValues("openrouter", "transport_error").Inc()
		return "", fmt.Errorf("op=openrouter.ChatJSON: %w: %w", domain.ErrAIUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		observability.AIRequestsTotal.WithLabelValues("openrouter", "read_error").Inc()
		return "", fmt.Errorf("op=openrouter.ChatJSON: %w: %w", domain.ErrAIUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		observability.AIRequestsTotal.WithLabelValues("openrouter", fmt.Sprintf("http_%d", resp.StatusCode)).Inc()
		slog.Warn("openrouter non-200",
			slog.Int("status", resp.StatusCode),
			slog.String("body", snippet(raw, 256)))
		return "", fmt.Errorf("op=openrouter.ChatJSON status=%d: %w", resp.StatusCode, domain.ErrAIUnavailable)
	}

	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		observability.AIRequestsTotal.WithLabelValues("openrouter", "decode_error").Inc()
		return "", fmt.Errorf("op=openrouter.ChatJSON: %w: %w", domain.ErrAIUnavailable, err)
	}
	if len(out.Choices) == 0 {
		observability.AIRequestsTotal.WithLabelValues("openrouter", "empty_choices").Inc()
		return "", fmt.Errorf("op=openrouter.ChatJSON: %w: %w", domain.ErrAIUnavailable, errors.New("empty choices"))
	}
	observability.AIRequestsTotal.WithLabelValues("openrouter", "ok").Inc()
	return out.Choices[0].Message.Content, nil
}

func snippet(b []byte, n int) string {
	if len(b) > n {
		b = b[:n]
	}
	return string(b)
}
