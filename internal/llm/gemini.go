package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	geminiEndpoint     = "https://generativelanguage.googleapis.com/v1beta/"
	defaultGeminiModel = "gemini-2.0-flash"
	geminiScope        = "https://www.googleapis.com/auth/generative-language"
)

// geminiClient implements the Client interface for the Gemini REST API.
type geminiClient struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	maxTokens   int
}

// newGeminiClient creates a Gemini client. Without an API key requests are
// authorized with application default credentials.
func newGeminiClient(ctx context.Context, cfg Config) (Client, error) {
	httpClient, err := geminiHTTPClient(ctx, cfg)
	if err != nil {
		return nil, err
	}

	model := cfg.Model
	if model == "" {
		model = defaultGeminiModel
	}
	if !strings.HasPrefix(model, "models/") {
		model = "models/" + model
	}

	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 2048
	}

	return &geminiClient{
		httpClient:  httpClient,
		apiKey:      cfg.APIKey,
		baseURL:     geminiBaseURL(cfg),
		model:       model,
		temperature: cfg.Temperature,
		maxTokens:   maxTokens,
	}, nil
}

func geminiBaseURL(cfg Config) string {
	base := cfg.Endpoint
	if base == "" {
		base = geminiEndpoint
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base
}

func geminiHTTPClient(ctx context.Context, cfg Config) (*http.Client, error) {
	client := defaultHTTPClient(cfg)
	if cfg.APIKey != "" {
		return client, nil
	}

	creds, err := google.FindDefaultCredentials(ctx, geminiScope)
	if err != nil {
		return nil, fmt.Errorf("gemini API key is required: %w", err)
	}
	return &http.Client{
		Timeout: client.Timeout,
		Transport: &oauth2.Transport{
			Source: creds.TokenSource,
			Base:   client.Transport,
		},
	}, nil
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature      float64 `json:"temperature"`
	MaxOutputTokens  int     `json:"maxOutputTokens"`
	ResponseMIMEType string  `json:"responseMimeType"`
}

type geminiRequest struct {
	SystemInstruction geminiContent          `json:"systemInstruction"`
	Contents          []geminiContent        `json:"contents"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content *geminiContent `json:"content"`
	} `json:"candidates"`
}

// Complete sends the prompt as a single user turn and returns the joined text parts
// of the first candidate.
func (c *geminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(geminiRequest{
		SystemInstruction: geminiContent{Parts: []geminiPart{{Text: systemPrompt}}},
		Contents:          []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: geminiGenerationConfig{
			Temperature:      c.temperature,
			MaxOutputTokens:  c.maxTokens,
			ResponseMIMEType: "application/json",
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	raw, err := c.do(ctx, http.MethodPost, c.model+":generateContent", body)
	if err != nil {
		return "", err
	}

	var response geminiResponse
	if err := json.Unmarshal(raw, &response); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if len(response.Candidates) == 0 || response.Candidates[0].Content == nil {
		return "", fmt.Errorf("no candidates returned")
	}

	var sb strings.Builder
	for _, part := range response.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("empty response from gemini")
	}
	return sb.String(), nil
}

// do issues a request against path relative to the API base and returns the body of
// a 200 response.
func (c *geminiClient) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("x-goog-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Provider: "gemini", StatusCode: resp.StatusCode, Body: geminiErrorMessage(raw)}
	}
	return raw, nil
}

// geminiErrorMessage extracts error.message from a Google error body, falling back to
// the raw body.
func geminiErrorMessage(raw []byte) string {
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Error.Message != "" {
		return body.Error.Message
	}
	return string(raw)
}
