package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	DefaultAnthropicBaseURL = "https://api.anthropic.com/v1"
	DefaultAnthropicModel   = "claude-3-5-sonnet-20241022"

	anthropicVersion = "2023-06-01"
)

// AnthropicClient calls the Anthropic Messages API.
type AnthropicClient struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float32            `json:"temperature"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewAnthropic returns a client for the given key. Empty baseURL and model
// select the defaults.
func NewAnthropic(apiKey, baseURL, model string, httpClient *http.Client) *AnthropicClient {
	if baseURL == "" {
		baseURL = DefaultAnthropicBaseURL
	}
	if model == "" {
		model = DefaultAnthropicModel
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &AnthropicClient{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: httpClient,
	}
}

func (c *AnthropicClient) Complete(ctx context.Context, r Request) (string, error) {
	body, err := json.Marshal(anthropicRequest{
		Model:       c.model,
		MaxTokens:   r.MaxTokens,
		Temperature: r.Temperature,
		System:      r.System,
		Messages:    []anthropicMessage{{Role: "user", Content: r.Prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var out anthropicResponse
	if err := json.Unmarshal(data, &out); err != nil {
		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("anthropic status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
		}
		return "", fmt.Errorf("decode response: %w", err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("anthropic %s: %s", out.Error.Type, out.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("anthropic status %d", resp.StatusCode)
	}

	// Only the first content block is used.
	if len(out.Content) == 0 || out.Content[0].Type != "text" {
		return "", ErrEmptyResponse
	}
	text := strings.TrimSpace(out.Content[0].Text)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
