package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/agentctl/agentctl/pkg/mail"
	"github.com/agentctl/agentctl/pkg/models"
	"github.com/agentctl/agentctl/pkg/tasks"
)

// mockMailService records calls and returns canned messages.
type mockMailService struct {
	listCalled  bool
	sentTo      []string
	sentSubject string
	sentOpts    mail.SendOptions
	searchQuery string
	failWith    error
}

func (m *mockMailService) ListEmails(ctx context.Context, maxResults int64, query string) ([]mail.Message, error) {
	m.listCalled = true
	if m.failWith != nil {
		return nil, m.failWith
	}
	return []mail.Message{{ID: "m1", Subject: "hello"}, {ID: "m2", Subject: "world"}}, nil
}

func (m *mockMailService) GetEmail(ctx context.Context, id string) (*mail.Message, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	return &mail.Message{ID: id, Subject: "fetched", Body: "full body"}, nil
}

func (m *mockMailService) SendEmail(ctx context.Context, to []string, subject, body string, opts mail.SendOptions) (*mail.Message, error) {
	m.sentTo = to
	m.sentSubject = subject
	m.sentOpts = opts
	if m.failWith != nil {
		return nil, m.failWith
	}
	return &mail.Message{ID: "sent-1", Subject: subject}, nil
}

func (m *mockMailService) SearchEmails(ctx context.Context, query string, maxResults int64) ([]mail.Message, error) {
	m.searchQuery = query
	if m.failWith != nil {
		return nil, m.failWith
	}
	return []mail.Message{{ID: "m3", Snippet: "match"}}, nil
}

func mailTask(config map[string]any) models.Task {
	return models.Task{ID: "t1", Name: "mail", Type: models.TaskMail, Config: config}
}

func TestMailHandlerValidateConfig(t *testing.T) {
	h := NewMailHandler(nil)

	cases := []struct {
		name    string
		config  map[string]any
		wantKey string
	}{
		{"list", map[string]any{"operation": "list"}, ""},
		{"list with max", map[string]any{"operation": "list", "max_results": float64(5)}, ""},
		{"get", map[string]any{"operation": "get", "id": "m1"}, ""},
		{"get missing id", map[string]any{"operation": "get"}, "id"},
		{"send", map[string]any{"operation": "send", "to": "a@b.c", "subject": "s", "body": "b"}, ""},
		{"send list recipients", map[string]any{"operation": "send", "to": []any{"a@b.c", "d@e.f"}, "subject": "s", "body": "b"}, ""},
		{"send missing subject", map[string]any{"operation": "send", "to": "a@b.c", "body": "b"}, "subject"},
		{"send missing body", map[string]any{"operation": "send", "to": "a@b.c", "subject": "s"}, "body"},
		{"search", map[string]any{"operation": "search", "query": "is:unread"}, ""},
		{"search missing query", map[string]any{"operation": "search"}, "query"},
		{"missing operation", map[string]any{}, "operation"},
		{"unknown operation", map[string]any{"operation": "archive"}, "operation"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := h.ValidateConfig(tc.config)
			if tc.wantKey == "" {
				if err != nil {
					t.Errorf("expected valid, got %v", err)
				}
				return
			}
			var keyErr *tasks.KeyError
			if !errors.As(err, &keyErr) {
				t.Fatalf("expected KeyError, got %v", err)
			}
			if keyErr.Key != tc.wantKey {
				t.Errorf("expected key %s, got %s", tc.wantKey, keyErr.Key)
			}
		})
	}
}

func TestMailHandlerExecute(t *testing.T) {
	ctx := context.Background()

	t.Run("list returns JSON array", func(t *testing.T) {
		svc := &mockMailService{}
		h := NewMailHandler(svc)

		out, err := h.Execute(ctx, mailTask(map[string]any{"operation": "list", "max_results": float64(10)}))
		if err != nil {
			t.Fatalf("Execute failed: %v", err)
		}
		if !svc.listCalled {
			t.Error("service was not called")
		}

		var messages []mail.Message
		if err := json.Unmarshal([]byte(out), &messages); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if len(messages) != 2 || messages[0].ID != "m1" {
			t.Errorf("unexpected output: %s", out)
		}
	})

	t.Run("get returns one message", func(t *testing.T) {
		h := NewMailHandler(&mockMailService{})

		out, err := h.Execute(ctx, mailTask(map[string]any{"operation": "get", "id": "m42"}))
		if err != nil {
			t.Fatalf("Execute failed: %v", err)
		}
		if !strings.Contains(out, "m42") {
			t.Errorf("expected requested id in output, got %s", out)
		}
	})

	t.Run("send forwards recipients and options", func(t *testing.T) {
		svc := &mockMailService{}
		h := NewMailHandler(svc)

		_, err := h.Execute(ctx, mailTask(map[string]any{
			"operation": "send",
			"to":        []any{"a@b.c"},
			"cc":        "c@b.c",
			"subject":   "greetings",
			"body":      "hello there",
		}))
		if err != nil {
			t.Fatalf("Execute failed: %v", err)
		}
		if len(svc.sentTo) != 1 || svc.sentTo[0] != "a@b.c" {
			t.Errorf("unexpected recipients: %v", svc.sentTo)
		}
		if svc.sentSubject != "greetings" {
			t.Errorf("unexpected subject: %s", svc.sentSubject)
		}
		if len(svc.sentOpts.Cc) != 1 || svc.sentOpts.Cc[0] != "c@b.c" {
			t.Errorf("cc not forwarded: %v", svc.sentOpts.Cc)
		}
	})

	t.Run("search forwards query", func(t *testing.T) {
		svc := &mockMailService{}
		h := NewMailHandler(svc)

		if _, err := h.Execute(ctx, mailTask(map[string]any{"operation": "search", "query": "from:boss"})); err != nil {
			t.Fatalf("Execute failed: %v", err)
		}
		if svc.searchQuery != "from:boss" {
			t.Errorf("unexpected query: %s", svc.searchQuery)
		}
	})

	t.Run("service error propagates", func(t *testing.T) {
		svc := &mockMailService{failWith: &mail.OpError{Op: "list", Reason: "backend down"}}
		h := NewMailHandler(svc)

		_, err := h.Execute(ctx, mailTask(map[string]any{"operation": "list"}))
		var opErr *mail.OpError
		if !errors.As(err, &opErr) {
			t.Fatalf("expected OpError, got %v", err)
		}
	})

	t.Run("nil service fails with auth error", func(t *testing.T) {
		h := NewMailHandler(nil)

		_, err := h.Execute(ctx, mailTask(map[string]any{"operation": "list"}))
		var authErr *mail.AuthError
		if !errors.As(err, &authErr) {
			t.Fatalf("expected AuthError, got %v", err)
		}
	})
}
