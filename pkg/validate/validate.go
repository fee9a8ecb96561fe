// Package validate implements the pure validation rules for agent names,
// descriptions, and configurations. Validation short-circuits on the
// first violation; it does not accumulate errors.
package validate

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/agentctl/agentctl/pkg/errdefs"
	"github.com/agentctl/agentctl/pkg/models"
	"github.com/agentctl/agentctl/pkg/tasks"
)

// Bounds for agent configuration values. All ranges are inclusive.
const (
	MaxNameLength        = 100
	MaxDescriptionLength = 500
	MinTimeoutMs         = 1000
	MaxTimeoutMs         = 3600000
	MaxRetries           = 10
	MinRetryDelayMs      = 100
	MaxRetryDelayMs      = 60000
)

var namePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// TypeRules supplies per-task-type config validation. The task registry
// implements it; adding a task type means registering a handler, not
// editing this package.
type TypeRules interface {
	ValidateTaskConfig(t models.TaskType, config map[string]any) error
}

// ValidateName checks an agent name against length and charset rules.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return &errdefs.ValidationError{Field: "name", Message: "must not be empty", Value: name}
	}
	if len(name) > MaxNameLength {
		return &errdefs.ValidationError{
			Field:   "name",
			Message: fmt.Sprintf("must be at most %d characters", MaxNameLength),
			Value:   name,
		}
	}
	if !namePattern.MatchString(name) {
		return &errdefs.ValidationError{
			Field:   "name",
			Message: "may only contain letters, digits, underscores, and hyphens",
			Value:   name,
		}
	}
	return nil
}

// ValidateDescription checks an agent description against length rules.
func ValidateDescription(description string) error {
	if description == "" {
		return &errdefs.ValidationError{Field: "description", Message: "must not be empty"}
	}
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		return &errdefs.ValidationError{
			Field:   "description",
			Message: fmt.Sprintf("must be at most %d characters", MaxDescriptionLength),
		}
	}
	return nil
}

// ValidateAgentConfig checks every task's type-specific config shape and
// the numeric bounds on timeout and retry policy, failing on the first
// violation with a field path identifying the offending value.
func ValidateAgentConfig(config models.AgentConfig, rules TypeRules) error {
	for i, task := range config.Tasks {
		if err := rules.ValidateTaskConfig(task.Type, task.Config); err != nil {
			return configError(i, err)
		}
	}

	if config.TimeoutMs != 0 {
		if config.TimeoutMs < MinTimeoutMs || config.TimeoutMs > MaxTimeoutMs {
			return &errdefs.AgentConfigurationError{
				Field:   "timeout",
				Message: fmt.Sprintf("must be between %d and %d ms", MinTimeoutMs, MaxTimeoutMs),
			}
		}
	}

	if policy := config.RetryPolicy; policy != nil {
		if policy.MaxRetries < 0 || policy.MaxRetries > MaxRetries {
			return &errdefs.AgentConfigurationError{
				Field:   "retryPolicy.maxRetries",
				Message: fmt.Sprintf("must be between 0 and %d", MaxRetries),
			}
		}
		if policy.DelayMs < MinRetryDelayMs || policy.DelayMs > MaxRetryDelayMs {
			return &errdefs.AgentConfigurationError{
				Field:   "retryPolicy.delay",
				Message: fmt.Sprintf("must be between %d and %d ms", MinRetryDelayMs, MaxRetryDelayMs),
			}
		}
		switch policy.Backoff {
		case models.BackoffLinear, models.BackoffExponential, models.BackoffFixed:
		default:
			return &errdefs.AgentConfigurationError{
				Field:   "retryPolicy.backoff",
				Message: fmt.Sprintf("unknown backoff strategy %q", policy.Backoff),
			}
		}
	}

	return nil
}

// configError wraps a per-type rule violation with a field path naming
// the offending task and key.
func configError(taskIndex int, err error) error {
	var keyErr *tasks.KeyError
	if errors.As(err, &keyErr) {
		return &errdefs.AgentConfigurationError{
			Field:   fmt.Sprintf("tasks[%d].config.%s", taskIndex, keyErr.Key),
			Message: keyErr.Message,
		}
	}
	return &errdefs.AgentConfigurationError{
		Field:   fmt.Sprintf("tasks[%d].type", taskIndex),
		Message: err.Error(),
	}
}
