// Package llm provides a provider-agnostic chat-completion gateway. Two
// interchangeable backend strategies (a direct single-provider HTTP
// client and a multi-provider delegation client) normalize their wire
// replies through this package so equal raw replies yield identical
// responses.
package llm

import (
	"context"
)

// Message roles accepted in a chat request.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one entry of the ordered chat sequence.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ToolDef describes a function the model may call.
type ToolDef struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// ChatRequest is the provider-agnostic completion request. Streaming is
// not supported: Stream set to true fails fast before any network call.
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Tools       []ToolDef `json:"tools,omitempty"`
	ToolChoice  string    `json:"tool_choice,omitempty"`
	Stream      bool      `json:"stream,omitempty"`
}

// FunctionCall carries the function name and its JSON-encoded arguments.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolCall is the normalized tool-call shape, regardless of whether the
// backend emitted the modern array form or the legacy single function
// call.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

// Usage holds token counters. It is only present when the backend
// supplied all three counts as numbers.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatResponse is the normalized completion response contract.
type ChatResponse struct {
	ID        string     `json:"id"`
	Model     string     `json:"model"`
	Content   string     `json:"content"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	Usage     *Usage     `json:"usage,omitempty"`
}

// Backend issues one blocking completion call against a provider.
type Backend interface {
	CreateChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// FoldMessages maps the request's message sequence onto the roles the
// chat-completions wire family accepts. Roles outside system, user, and
// assistant are folded into an assistant message carrying the same
// content; the fold is lossy by contract.
func FoldMessages(messages []Message) []Message {
	out := make([]Message, len(messages))
	for i, m := range messages {
		role := m.Role
		switch role {
		case RoleSystem, RoleUser, RoleAssistant:
		default:
			role = RoleAssistant
		}
		out[i] = Message{Role: role, Content: m.Content}
	}
	return out
}
