// Package errdefs defines the closed set of structured error kinds shared
// across the agent directory, task dispatcher, storage layer, and LLM
// gateway. Callers match on concrete types with errors.As instead of
// inspecting message strings.
package errdefs

import (
	"fmt"
)

// ValidationError reports a malformed agent name or description.
type ValidationError struct {
	Field   string
	Message string
	Value   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
}

// AgentConfigurationError reports a config-shape violation. Field is a
// path identifying the offending task and key, e.g. "tasks[1].config.url".
type AgentConfigurationError struct {
	AgentID string
	Field   string
	Message string
}

func (e *AgentConfigurationError) Error() string {
	if e.AgentID != "" {
		return fmt.Sprintf("invalid configuration for agent %s (%s): %s", e.AgentID, e.Field, e.Message)
	}
	return fmt.Sprintf("invalid configuration (%s): %s", e.Field, e.Message)
}

// AgentAlreadyExistsError reports a name-uniqueness conflict. Name carries
// the conflicting agent name, which is what callers key on.
type AgentAlreadyExistsError struct {
	Name string
}

func (e *AgentAlreadyExistsError) Error() string {
	return fmt.Sprintf("agent %q already exists", e.Name)
}

// StorageError reports a persistence failure other than a missing record.
type StorageError struct {
	Op     string
	Path   string
	Reason string
	Err    error
}

func (e *StorageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("storage %s failed at %s: %s: %v", e.Op, e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("storage %s failed at %s: %s", e.Op, e.Path, e.Reason)
}

func (e *StorageError) Unwrap() error { return e.Err }

// StorageNotFoundError reports a missing record.
type StorageNotFoundError struct {
	Path string
}

func (e *StorageNotFoundError) Error() string {
	return fmt.Sprintf("not found: %s", e.Path)
}

// LLMConfigurationError reports an unrecognized or unconfigured provider.
type LLMConfigurationError struct {
	Provider string
	Reason   string
}

func (e *LLMConfigurationError) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("llm configuration error for provider %s: %s", e.Provider, e.Reason)
	}
	return fmt.Sprintf("llm configuration error: %s", e.Reason)
}

// LLMAuthenticationError reports a missing or rejected credential.
type LLMAuthenticationError struct {
	Provider string
	Reason   string
}

func (e *LLMAuthenticationError) Error() string {
	return fmt.Sprintf("llm authentication error for provider %s: %s", e.Provider, e.Reason)
}

// LLMRequestError reports a failed or rejected completion request.
type LLMRequestError struct {
	Provider string
	Reason   string
}

func (e *LLMRequestError) Error() string {
	return fmt.Sprintf("llm request error for provider %s: %s", e.Provider, e.Reason)
}

// LLMRateLimitError reports a rate-limit or quota rejection.
type LLMRateLimitError struct {
	Provider string
	Reason   string
}

func (e *LLMRateLimitError) Error() string {
	return fmt.Sprintf("llm rate limit error for provider %s: %s", e.Provider, e.Reason)
}
