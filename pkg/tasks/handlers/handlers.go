// Package handlers provides the built-in task type handlers. Only the
// mail handler executes; the remaining types validate their config shape
// and are skipped by the dispatcher.
package handlers

import (
	"fmt"
	"strings"

	"github.com/agentctl/agentctl/pkg/mail"
	"github.com/agentctl/agentctl/pkg/models"
	"github.com/agentctl/agentctl/pkg/tasks"
)

// RegisterAll registers every built-in task type with the registry.
// mailService may be nil; the mail handler then fails at execution time
// with an authentication error, not at registration time.
func RegisterAll(registry *tasks.Registry, mailService mail.Service) error {
	handlers := []tasks.Validator{
		&keyHandler{taskType: models.TaskCommand, required: []string{"command"}},
		&keyHandler{taskType: models.TaskScript, required: []string{"script"}},
		&keyHandler{taskType: models.TaskAPI, required: []string{"url"}},
		&keyHandler{taskType: models.TaskFile, required: []string{"operation", "path"}},
		&keyHandler{taskType: models.TaskWebhook, required: []string{"url"}},
		&keyHandler{taskType: models.TaskCustom},
		NewMailHandler(mailService),
	}

	for _, h := range handlers {
		if err := registry.Register(h); err != nil {
			return err
		}
	}
	return nil
}

// keyHandler validates presence of required string keys for task types
// whose execution is not yet implemented.
type keyHandler struct {
	taskType models.TaskType
	required []string
}

func (h *keyHandler) Type() models.TaskType { return h.taskType }

func (h *keyHandler) ValidateConfig(config map[string]any) error {
	for _, key := range h.required {
		if _, err := requireString(config, key); err != nil {
			return err
		}
	}
	return nil
}

// requireString extracts a non-empty string value for key.
func requireString(config map[string]any, key string) (string, error) {
	raw, ok := config[key]
	if !ok {
		return "", &tasks.KeyError{Key: key, Message: "required"}
	}
	s, ok := raw.(string)
	if !ok {
		return "", &tasks.KeyError{Key: key, Message: fmt.Sprintf("expected string, got %T", raw)}
	}
	if strings.TrimSpace(s) == "" {
		return "", &tasks.KeyError{Key: key, Message: "must not be empty"}
	}
	return s, nil
}

// optionalString extracts a string value for key, or "" when absent.
func optionalString(config map[string]any, key string) (string, error) {
	raw, ok := config[key]
	if !ok {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", &tasks.KeyError{Key: key, Message: fmt.Sprintf("expected string, got %T", raw)}
	}
	return s, nil
}

// optionalInt extracts a numeric value for key, or 0 when absent.
// JSON-decoded configs carry numbers as float64.
func optionalInt(config map[string]any, key string) (int64, error) {
	raw, ok := config[key]
	if !ok {
		return 0, nil
	}
	switch v := raw.(type) {
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	default:
		return 0, &tasks.KeyError{Key: key, Message: fmt.Sprintf("expected number, got %T", raw)}
	}
}

// stringList extracts a list of strings for key. A bare string is
// treated as a single-element list.
func stringList(config map[string]any, key string) ([]string, error) {
	raw, ok := config[key]
	if !ok {
		return nil, nil
	}
	switch v := raw.(type) {
	case string:
		return []string{v}, nil
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, &tasks.KeyError{Key: key, Message: fmt.Sprintf("expected string elements, got %T", item)}
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, &tasks.KeyError{Key: key, Message: fmt.Sprintf("expected string list, got %T", raw)}
	}
}
