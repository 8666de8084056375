package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultBaseURL is Groq's OpenAI-compatible endpoint root.
	DefaultBaseURL = "https://api.groq.com/openai/v1"
	// DefaultModel matches the model the browser client used.
	DefaultModel = "llama-3.1-8b-instant"
)

// GroqClient calls an OpenAI-compatible chat completions endpoint with a
// single user message per prompt. The HTTP client timeout is the only
// execution boundary applied to oracle calls, so a hung request cannot
// leave a session stuck mid-generation or mid-grade.
type GroqClient struct {
	httpClient *http.Client
	baseURL    string
	model      string
	apiKey     string
	log        *zap.Logger
}

type GroqOption func(*GroqClient)

// WithBaseURL overrides the endpoint root, used by tests and proxies.
func WithBaseURL(url string) GroqOption {
	return func(c *GroqClient) { c.baseURL = url }
}

// WithModel overrides the completion model.
func WithModel(model string) GroqOption {
	return func(c *GroqClient) {
		if model != "" {
			c.model = model
		}
	}
}

// WithTimeout overrides the request timeout.
func WithTimeout(d time.Duration) GroqOption {
	return func(c *GroqClient) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

func NewGroqClient(apiKey string, log *zap.Logger, opts ...GroqOption) *GroqClient {
	c := &GroqClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    DefaultBaseURL,
		model:      DefaultModel,
		apiKey:     apiKey,
		log:        log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *GroqClient) Complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:    c.model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("encode oracle request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build oracle request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("oracle call failed", zap.Error(err))
		return "", fmt.Errorf("oracle call: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read oracle response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		c.log.Warn("oracle returned error status",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", raw))
		return "", fmt.Errorf("oracle call failed: status %d: %s", resp.StatusCode, raw)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("decode oracle response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("oracle response has no choices")
	}

	c.log.Debug("oracle call completed",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("responseBytes", len(raw)))
	return parsed.Choices[0].Message.Content, nil
}
