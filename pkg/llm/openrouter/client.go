// Package openrouter implements the multi-provider delegation backend
// of the completion gateway. One credential reaches many upstream
// providers; model names carry a provider prefix such as
// "anthropic/claude-sonnet-4".
package openrouter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/agentctl/agentctl/pkg/llm"
)

const (
	defaultBaseURL = "https://openrouter.ai/api/v1"
	defaultTimeout = 5 * time.Minute
)

// Client implements the llm.Backend interface for OpenRouter
type Client struct {
	apiKey     string
	baseURL    string
	referer    string
	title      string
	httpClient *http.Client
}

// ClientConfig holds configuration for the OpenRouter client
type ClientConfig struct {
	APIKey  string
	BaseURL string
	Referer string // optional attribution header
	Title   string // optional attribution header
	Timeout time.Duration
}

// NewClient creates a new OpenRouter client
func NewClient(config ClientConfig) *Client {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}

	return &Client{
		apiKey:  config.APIKey,
		baseURL: config.BaseURL,
		referer: config.Referer,
		title:   config.Title,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// CreateChatCompletion issues one blocking delegation call and
// normalizes the reply through the same path as the direct backend.
func (c *Client) CreateChatCompletion(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	body, err := llm.EncodeRequest(req, req.Model)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	if c.referer != "" {
		httpReq.Header.Set("HTTP-Referer", c.referer)
	}
	if c.title != "" {
		httpReq.Header.Set("X-Title", c.title)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, llm.ErrorFromBody(httpResp.StatusCode, respBody)
	}

	return llm.DecodeCompletion(respBody, req.Model)
}
