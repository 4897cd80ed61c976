// Package ai answers free-form task questions through an OpenAI-compatible
// chat API, with the live sheet data inlined as context. Disabled unless
// configured with an API key.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/zakiachsan27/Pm-qa-bot/pkg/config"
	"github.com/zakiachsan27/Pm-qa-bot/pkg/logger"
	"github.com/zakiachsan27/Pm-qa-bot/pkg/sheets"
)

const maxReplyRunes = 2000

// TaskSource provides the sheet data the model answers from.
type TaskSource interface {
	CurrentTasks(ctx context.Context) ([]sheets.TaskRecord, error)
	NewTasksLastWeek(ctx context.Context) (sheets.WeeklyTasks, error)
}

type Client struct {
	cfg        config.AIConfig
	tasks      TaskSource
	baseURL    string
	httpClient *http.Client
}

func NewClient(cfg config.AIConfig, tasks TaskSource) *Client {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 3 * time.Minute
	}
	return &Client{
		cfg:     cfg,
		tasks:   tasks,
		baseURL: strings.TrimSuffix(cfg.APIBase, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Enabled reports whether the client is usable at all.
func (c *Client) Enabled() bool {
	return c.cfg.Enabled && c.cfg.APIKey != ""
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content          string `json:"content"`
			ReasoningContent string `json:"reasoning_content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Answer sends the question with the current sheet snapshot and returns the
// model's reply, truncated to chat length.
func (c *Client) Answer(ctx context.Context, question string) (string, error) {
	if !c.Enabled() {
		return "", fmt.Errorf("ai answerer not configured")
	}

	taskContext, err := c.buildContext(ctx)
	if err != nil {
		return "", err
	}

	reqBody := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt(taskContext)},
			{Role: "user", Content: question},
		},
	}

	logger.DebugCF("ai", "Asking model", map[string]interface{}{
		"model":             c.cfg.Model,
		logger.FieldPreview: truncateRunes(question, 60),
	})

	reply, err := c.complete(ctx, reqBody)
	if err != nil {
		return "", err
	}
	return truncateRunes(strings.TrimSpace(reply), maxReplyRunes), nil
}

func (c *Client) complete(ctx context.Context, reqBody chatRequest) (string, error) {
	data, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("ai api error (status %d): %s", resp.StatusCode, truncateRunes(string(body), 200))
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("ai api error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("ai api returned no choices")
	}

	msg := parsed.Choices[0].Message
	if msg.Content != "" {
		return msg.Content, nil
	}
	if msg.ReasoningContent != "" {
		return msg.ReasoningContent, nil
	}
	return "", fmt.Errorf("ai api returned an empty message")
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
