// Package llm talks to an OpenAI-compatible chat-completions endpoint, such as
// a local LM Studio or Ollama server, with responses cached by request payload.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mvp-joe/code-ingest/internal/cache"
)

// ErrService marks every failure of the description service: transport
// errors, non-200 statuses and malformed or empty responses.
var ErrService = errors.New("description service failure")

// Provider generates chat completions.
type Provider interface {
	// Chat returns the first choice's message content.
	Chat(ctx context.Context, req ChatRequest) (string, error)

	// Name returns the provider identifier.
	Name() string
}

// Message is one chat message.
type Message struct {
	Role    string `json:"role"` // "system", "user", "assistant"
	Content string `json:"content"`
}

// ChatRequest is the request body posted to the endpoint. The whole body is
// the cache key, so every field that affects the answer belongs here.
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// Cache stores responses by key. *cache.Store satisfies it.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, response string) error
}

// Config configures a Client.
type Config struct {
	// URL is the full chat-completions endpoint,
	// e.g. http://localhost:1234/v1/chat/completions
	URL string

	// Model is sent with every request.
	Model string

	// APIKey is sent as a bearer token when set.
	APIKey string

	// Timeout bounds a single HTTP request. 0 uses 120s.
	Timeout time.Duration
}

// Client is the HTTP Provider.
type Client struct {
	url    string
	model  string
	apiKey string
	client *http.Client
	cache  Cache
	logger zerolog.Logger
}

// NewClient creates a client. responses may be nil to disable caching.
func NewClient(cfg Config, responses Cache, logger zerolog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("description service URL is required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.New("description service model is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}

	return &Client{
		url:    cfg.URL,
		model:  cfg.Model,
		apiKey: cfg.APIKey,
		client: &http.Client{Timeout: cfg.Timeout},
		cache:  responses,
		logger: logger,
	}, nil
}

func (c *Client) Name() string { return "openai-compatible" }

// Chat posts req, consulting the cache first. Cache failures are logged and
// never fail the request.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (string, error) {
	if req.Model == "" {
		req.Model = c.model
	}

	key, err := cache.Key(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrService, err)
	}

	if c.cache != nil {
		cached, ok, err := c.cache.Get(ctx, key)
		if err != nil {
			c.logger.Warn().Err(err).Msg("cache lookup failed")
		} else if ok {
			c.logger.Debug().Str("key", key[:12]).Msg("response served from cache")
			return cached, nil
		}
	}

	content, err := c.post(ctx, req)
	if err != nil {
		return "", err
	}

	if c.cache != nil {
		if err := c.cache.Put(ctx, key, content); err != nil {
			c.logger.Warn().Err(err).Msg("cache store failed")
		}
	}
	return content, nil
}

func (c *Client) post(ctx context.Context, req ChatRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrService, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrService, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrService, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: reading response: %v", ErrService, err)
	}

	c.logger.Debug().
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Int("response_bytes", len(data)).
		Msg("description service responded")

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d: %s", ErrService, resp.StatusCode, truncate(string(data), 200))
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("%w: malformed response: %v", ErrService, err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%w: response has no choices", ErrService)
	}
	return parsed.Choices[0].Message.Content, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
