package llm

import (
	"context"
	"net/http"
	"time"
)

// Client is a text-completion provider. Implementations return the raw model text.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Config holds provider and gateway settings.
type Config struct {
	HTTPClient     *http.Client
	Provider       string
	APIKey         string
	Model          string
	Endpoint       string
	ClaudeCodePath string
	Temperature    float64
	MaxTokens      int
	Timeout        time.Duration
	RateLimit      int
	MaxRetries     int
}

// systemPrompt frames every provider as a strict JSON classifier.
const systemPrompt = "You are an Australian industry classification assistant. You MUST respond with ONLY a valid JSON object. Do not include any explanatory text, markdown formatting, or commentary before or after the JSON. Start your response directly with { and end with }."

func defaultHTTPClient(cfg Config) *http.Client {
	if cfg.HTTPClient != nil {
		return cfg.HTTPClient
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}
