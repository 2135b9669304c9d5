package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// claudeCodeClient implements the Client interface using the Claude Code CLI.
type claudeCodeClient struct {
	model   string
	cliPath string
	timeout time.Duration
}

// claudeCodeResponse is the CLI's --output-format json envelope.
type claudeCodeResponse struct {
	Result  string `json:"result"`
	IsError bool   `json:"is_error"`
}

// newClaudeCodeClient creates a new Claude Code CLI client.
func newClaudeCodeClient(cfg Config) (Client, error) {
	cliPath := cfg.ClaudeCodePath
	if cliPath == "" {
		cliPath = "claude"
	}

	if _, err := exec.LookPath(cliPath); err != nil {
		return nil, fmt.Errorf("claude CLI not found at %s: ensure @anthropic-ai/claude-code is installed", cliPath)
	}

	model := cfg.Model
	if model == "" {
		model = "sonnet"
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	return &claudeCodeClient{model: model, cliPath: cliPath, timeout: timeout}, nil
}

// Complete runs a single non-interactive turn and returns the CLI's result text.
func (c *claudeCodeClient) Complete(ctx context.Context, prompt string) (string, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	args := []string{
		"-p", systemPrompt + "\n\n" + prompt,
		"--output-format", "json",
		"--model", c.model,
		"--max-turns", "1",
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.cliPath, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return "", fmt.Errorf("claude code error: %s", strings.TrimSpace(stderr.String()))
		}
		return "", fmt.Errorf("failed to execute claude: %w", err)
	}

	var response claudeCodeResponse
	if err := json.Unmarshal(stdout.Bytes(), &response); err != nil {
		// Older CLI versions print the bare result.
		return stdout.String(), nil
	}
	if response.IsError {
		return "", fmt.Errorf("claude code error in response")
	}
	if response.Result == "" {
		return "", fmt.Errorf("empty response from claude code")
	}
	return response.Result, nil
}
