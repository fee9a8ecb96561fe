package llm_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/agentctl/agentctl/pkg/llm"
	"github.com/agentctl/agentctl/pkg/llm/openai"
	"github.com/agentctl/agentctl/pkg/llm/openrouter"
)

const cannedReply = `{
	"id": "chatcmpl-shared",
	"model": "served-model",
	"choices": [{"message": {
		"role": "assistant",
		"content": "same answer",
		"tool_calls": [{"id": "call_1", "type": "function", "function": {"name": "lookup", "arguments": "{\"q\":\"x\"}"}}]
	}, "finish_reason": "tool_calls"}],
	"usage": {"prompt_tokens": 7, "completion_tokens": 3, "total_tokens": 10}
}`

// Both backend strategies must produce an identical normalized response
// for the same wire reply; callers cannot tell which one served them.
func TestBackendsProduceIdenticalResponses(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(cannedReply))
	}))
	defer server.Close()

	req := llm.ChatRequest{
		Model:    "requested-model",
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "question"}},
	}

	direct := openai.NewClient(openai.ClientConfig{APIKey: "k", BaseURL: server.URL})
	delegated := openrouter.NewClient(openrouter.ClientConfig{APIKey: "k", BaseURL: server.URL})

	directResp, err := direct.CreateChatCompletion(context.Background(), req)
	if err != nil {
		t.Fatalf("direct backend failed: %v", err)
	}
	delegatedResp, err := delegated.CreateChatCompletion(context.Background(), req)
	if err != nil {
		t.Fatalf("delegation backend failed: %v", err)
	}

	if !reflect.DeepEqual(directResp, delegatedResp) {
		t.Errorf("responses differ:\n direct:    %+v\n delegated: %+v", directResp, delegatedResp)
	}
	if directResp.Model != "served-model" {
		t.Errorf("expected served model, got %s", directResp.Model)
	}
	if len(directResp.ToolCalls) != 1 || directResp.ToolCalls[0].Function.Name != "lookup" {
		t.Errorf("unexpected tool calls: %+v", directResp.ToolCalls)
	}
}

func TestBackendSurfacesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	client := openai.NewClient(openai.ClientConfig{APIKey: "bad", BaseURL: server.URL})
	_, err := client.CreateChatCompletion(context.Background(), llm.ChatRequest{
		Model:    "m",
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "hi"}},
	})
	if err == nil || err.Error() != "Incorrect API key provided" {
		t.Errorf("expected the backend's own message, got %v", err)
	}
}
