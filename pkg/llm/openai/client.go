// Package openai implements the direct single-provider backend of the
// completion gateway against the OpenAI chat-completions endpoint.
package openai

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
	defaultBaseURL = "https://api.openai.com/v1"
	defaultTimeout = 5 * time.Minute
)

// Client implements the llm.Backend interface for OpenAI
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// ClientConfig holds configuration for the OpenAI client
type ClientConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// NewClient creates a new OpenAI client
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
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// CreateChatCompletion issues one blocking completion call and
// normalizes the reply.
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
