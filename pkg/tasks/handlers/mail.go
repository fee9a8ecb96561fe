package handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/agentctl/agentctl/pkg/mail"
	"github.com/agentctl/agentctl/pkg/models"
	"github.com/agentctl/agentctl/pkg/tasks"
)

// Mail operations supported by the mail task type.
const (
	mailOpList   = "list"
	mailOpGet    = "get"
	mailOpSend   = "send"
	mailOpSearch = "search"
)

// MailHandler executes mail tasks against an injected mail service and
// serializes the result as JSON into TaskResult output. Success and
// failure mapping is delegated entirely to the service's own errors.
type MailHandler struct {
	service mail.Service
}

// NewMailHandler creates a mail task handler
func NewMailHandler(service mail.Service) *MailHandler {
	return &MailHandler{service: service}
}

func (h *MailHandler) Type() models.TaskType { return models.TaskMail }

// ValidateConfig checks the operation and its operation-specific params.
func (h *MailHandler) ValidateConfig(config map[string]any) error {
	op, err := requireString(config, "operation")
	if err != nil {
		return err
	}

	switch op {
	case mailOpList:
		_, err = optionalInt(config, "max_results")
		return err
	case mailOpGet:
		_, err = requireString(config, "id")
		return err
	case mailOpSend:
		to, err := stringList(config, "to")
		if err != nil {
			return err
		}
		if len(to) == 0 {
			return &tasks.KeyError{Key: "to", Message: "required"}
		}
		if _, err := requireString(config, "subject"); err != nil {
			return err
		}
		_, err = requireString(config, "body")
		return err
	case mailOpSearch:
		if _, err := requireString(config, "query"); err != nil {
			return err
		}
		_, err = optionalInt(config, "max_results")
		return err
	default:
		return &tasks.KeyError{Key: "operation", Message: fmt.Sprintf("unknown operation %q", op)}
	}
}

// Execute performs the configured mail operation.
func (h *MailHandler) Execute(ctx context.Context, task models.Task) (string, error) {
	if h.service == nil {
		return "", &mail.AuthError{Reason: "no mail service configured"}
	}
	if err := h.ValidateConfig(task.Config); err != nil {
		return "", err
	}

	op, _ := requireString(task.Config, "operation")
	switch op {
	case mailOpList:
		maxResults, _ := optionalInt(task.Config, "max_results")
		query, err := optionalString(task.Config, "query")
		if err != nil {
			return "", err
		}
		messages, err := h.service.ListEmails(ctx, maxResults, query)
		if err != nil {
			return "", err
		}
		return marshalOutput(messages)

	case mailOpGet:
		id, _ := requireString(task.Config, "id")
		message, err := h.service.GetEmail(ctx, id)
		if err != nil {
			return "", err
		}
		return marshalOutput(message)

	case mailOpSend:
		to, _ := stringList(task.Config, "to")
		subject, _ := requireString(task.Config, "subject")
		body, _ := requireString(task.Config, "body")
		cc, err := stringList(task.Config, "cc")
		if err != nil {
			return "", err
		}
		bcc, err := stringList(task.Config, "bcc")
		if err != nil {
			return "", err
		}
		message, err := h.service.SendEmail(ctx, to, subject, body, mail.SendOptions{Cc: cc, Bcc: bcc})
		if err != nil {
			return "", err
		}
		return marshalOutput(message)

	case mailOpSearch:
		query, _ := requireString(task.Config, "query")
		maxResults, _ := optionalInt(task.Config, "max_results")
		messages, err := h.service.SearchEmails(ctx, query, maxResults)
		if err != nil {
			return "", err
		}
		return marshalOutput(messages)
	}

	return "", &tasks.KeyError{Key: "operation", Message: fmt.Sprintf("unknown operation %q", op)}
}

func marshalOutput(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to serialize mail result: %w", err)
	}
	return string(data), nil
}
