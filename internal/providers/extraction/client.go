package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sandevgo/shopmind/internal/config"
	"github.com/sandevgo/shopmind/internal/core"
	"github.com/sandevgo/shopmind/pkg/retry"
)

// Client calls an LLM-backed extraction capability over an OpenAI-compatible
// chat endpoint. Pure I/O boundary: it validates shape, never semantics.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
	model   string
	timeout time.Duration
	retrier *retry.Retrier
}

func NewClient(cfg *config.ExtractionConfig) *Client {
	retryCfg := retry.NewDefaultConfig()
	// One retry only: a slow extraction holds the whole turn writer.
	retryCfg.MaxRetries = 1
	retryCfg.InitialDelay = 250 * time.Millisecond

	return &Client{
		http:    &http.Client{Timeout: cfg.Timeout},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		timeout: cfg.Timeout,
		retrier: retry.NewRetrier(retryCfg),
	}
}

func (c *Client) Extract(ctx context.Context, text string) ([]core.Extraction, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var content string
	err := c.retrier.Do(ctx, func() error {
		var callErr error
		content, callErr = c.chat(ctx, text)
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("extraction call: %w", err)
	}

	return parseExtractions(content)
}

func (c *Client) chat(ctx context.Context, text string) (string, error) {
	payload := map[string]any{
		"model": c.model,
		"messages": []core.Message{
			{Role: core.RoleSystem, Content: systemPrompt},
			{Role: core.RoleUser, Content: buildExtractionPrompt(text)},
		},
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("HTTP-Referer", core.ShopMindRepositoryURL)
	req.Header.Set("X-Title", core.ShopMindName)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("http %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		Choices []struct {
			Message core.Message `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("decode: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("empty choices: %s", string(body))
	}
	return result.Choices[0].Message.Content, nil
}
