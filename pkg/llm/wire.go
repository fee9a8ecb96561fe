package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/agentctl/agentctl/pkg/errdefs"
)

// wireRequest is the chat-completions request shape shared by both
// backend strategies.
type wireRequest struct {
	Model       string     `json:"model"`
	Messages    []Message  `json:"messages"`
	Temperature *float64   `json:"temperature,omitempty"`
	MaxTokens   int        `json:"max_tokens,omitempty"`
	Tools       []wireTool `json:"tools,omitempty"`
	ToolChoice  string     `json:"tool_choice,omitempty"`
}

type wireTool struct {
	Type     string  `json:"type"`
	Function ToolDef `json:"function"`
}

// EncodeRequest builds the wire request body for a completion call
// against the given resolved model name. Message roles are folded per
// FoldMessages so both backends serialize identically.
func EncodeRequest(req ChatRequest, model string) ([]byte, error) {
	wire := wireRequest{
		Model:       model,
		Messages:    FoldMessages(req.Messages),
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		ToolChoice:  req.ToolChoice,
	}
	for _, t := range req.Tools {
		wire.Tools = append(wire.Tools, wireTool{Type: "function", Function: t})
	}
	return json.Marshal(wire)
}

// Wire types for the chat-completions response family. Every field is
// optional: raw replies are treated as structurally unknown before use.

type wireResponse struct {
	ID      string          `json:"id"`
	Model   string          `json:"model"`
	Choices []wireChoice    `json:"choices"`
	Usage   json.RawMessage `json:"usage"`
	Error   *wireError      `json:"error"`
}

type wireChoice struct {
	Message      wireMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type wireMessage struct {
	Role         string            `json:"role"`
	Content      any               `json:"content"`
	ToolCalls    []wireToolCall    `json:"tool_calls"`
	FunctionCall *wireFunctionCall `json:"function_call"`
}

type wireToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function wireFunctionCall `json:"function"`
}

type wireFunctionCall struct {
	Name      string `json:"name"`
	Arguments any    `json:"arguments"`
}

type wireError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

type wireUsage struct {
	PromptTokens     *float64 `json:"prompt_tokens"`
	CompletionTokens *float64 `json:"completion_tokens"`
	TotalTokens      *float64 `json:"total_tokens"`
}

// DecodeCompletion parses a raw chat-completions reply into the
// normalized response contract. The model name falls back to
// fallbackModel when the reply omits it, content defaults to the empty
// string, usage is populated only when all three token counts arrive as
// numbers, and tool calls follow the precedence rule: the modern
// tool_calls array wins; a legacy function_call is only consulted when
// the array is absent or empty.
func DecodeCompletion(body []byte, fallbackModel string) (*ChatResponse, error) {
	var raw wireResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("malformed completion response: %w", err)
	}
	if raw.Error != nil && raw.Error.Message != "" {
		return nil, fmt.Errorf("%s", raw.Error.Message)
	}

	resp := &ChatResponse{
		ID:    raw.ID,
		Model: raw.Model,
	}
	if resp.Model == "" {
		resp.Model = fallbackModel
	}

	if len(raw.Choices) > 0 {
		msg := raw.Choices[0].Message
		if content, ok := msg.Content.(string); ok {
			resp.Content = content
		}
		resp.ToolCalls = normalizeToolCalls(msg)
	}

	resp.Usage = decodeUsage(raw.Usage)
	return resp, nil
}

// normalizeToolCalls converts either tool-call representation into the
// normalized list; it never synthesizes from both.
func normalizeToolCalls(msg wireMessage) []ToolCall {
	if len(msg.ToolCalls) > 0 {
		calls := make([]ToolCall, 0, len(msg.ToolCalls))
		for _, tc := range msg.ToolCalls {
			call := ToolCall{
				ID:   tc.ID,
				Type: tc.Type,
				Function: FunctionCall{
					Name:      tc.Function.Name,
					Arguments: argumentsString(tc.Function.Arguments),
				},
			}
			if call.ID == "" {
				call.ID = generateCallID()
			}
			if call.Type == "" {
				call.Type = "function"
			}
			calls = append(calls, call)
		}
		return calls
	}

	if fc := msg.FunctionCall; fc != nil && fc.Name != "" {
		return []ToolCall{{
			ID:   generateCallID(),
			Type: "function",
			Function: FunctionCall{
				Name:      fc.Name,
				Arguments: argumentsString(fc.Arguments),
			},
		}}
	}

	return nil
}

// argumentsString renders tool-call arguments as a JSON string whether
// the backend sent a string or an inline object.
func argumentsString(raw any) string {
	switch v := raw.(type) {
	case nil:
		return "{}"
	case string:
		if v == "" {
			return "{}"
		}
		return v
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return "{}"
		}
		return string(data)
	}
}

func decodeUsage(raw json.RawMessage) *Usage {
	if len(raw) == 0 {
		return nil
	}
	var u wireUsage
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil
	}
	if u.PromptTokens == nil || u.CompletionTokens == nil || u.TotalTokens == nil {
		return nil
	}
	return &Usage{
		PromptTokens:     int(*u.PromptTokens),
		CompletionTokens: int(*u.CompletionTokens),
		TotalTokens:      int(*u.TotalTokens),
	}
}

func generateCallID() string {
	return "call_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// ErrorFromBody extracts the backend's own error text from a non-200
// reply so substring classification sees the original message.
func ErrorFromBody(status int, body []byte) error {
	var raw struct {
		Error *wireError `json:"error"`
	}
	if err := json.Unmarshal(body, &raw); err == nil && raw.Error != nil && raw.Error.Message != "" {
		return fmt.Errorf("%s", raw.Error.Message)
	}
	return fmt.Errorf("unexpected status %d: %s", status, strings.TrimSpace(string(body)))
}

// ClassifyError maps a transport or backend failure onto the gateway
// error kinds by case-insensitive substring match on the error text.
// This mirrors the behavior of backends that only expose free-text
// errors; it is fragile by nature and kept for compatibility. Typed
// gateway errors pass through unchanged.
func ClassifyError(provider string, err error) error {
	switch err.(type) {
	case *errdefs.LLMConfigurationError, *errdefs.LLMAuthenticationError,
		*errdefs.LLMRequestError, *errdefs.LLMRateLimitError:
		return err
	}

	text := strings.ToLower(err.Error())
	switch {
	case strings.Contains(text, "authentication") || strings.Contains(text, "api key"):
		return &errdefs.LLMAuthenticationError{Provider: provider, Reason: err.Error()}
	case strings.Contains(text, "rate limit") || strings.Contains(text, "quota"):
		return &errdefs.LLMRateLimitError{Provider: provider, Reason: err.Error()}
	default:
		return &errdefs.LLMRequestError{Provider: provider, Reason: err.Error()}
	}
}
