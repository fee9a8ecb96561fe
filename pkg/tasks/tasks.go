// Package tasks provides the per-type task registry and the sequential
// dispatcher that turns an agent's task list into a result set.
package tasks

import (
	"context"
	"fmt"
	"sync"

	"github.com/agentctl/agentctl/pkg/models"
)

// Validator checks the config shape for one task type.
type Validator interface {
	// Type returns the task type this handler serves
	Type() models.TaskType

	// ValidateConfig checks the type-specific config for completeness.
	// Missing or malformed keys are reported as *KeyError.
	ValidateConfig(config map[string]any) error
}

// Executor runs tasks of one type. Types without an Executor are valid
// to declare but are skipped by the dispatcher at run time.
type Executor interface {
	Validator

	// Execute runs the task and returns its serialized output
	Execute(ctx context.Context, task models.Task) (string, error)
}

// KeyError reports a missing or malformed config key.
type KeyError struct {
	Key     string
	Message string
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("config key %q: %s", e.Key, e.Message)
}

// Registry maps task types onto their validators and executors.
type Registry struct {
	validators map[models.TaskType]Validator
	executors  map[models.TaskType]Executor
	mu         sync.RWMutex
}

// NewRegistry creates a new task type registry
func NewRegistry() *Registry {
	return &Registry{
		validators: make(map[models.TaskType]Validator),
		executors:  make(map[models.TaskType]Executor),
	}
}

// Register adds a handler to the registry. Handlers that also implement
// Executor become runnable; validate-only handlers stay declarative.
func (r *Registry) Register(v Validator) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := v.Type()
	if _, exists := r.validators[t]; exists {
		return fmt.Errorf("task type already registered: %s", t)
	}

	r.validators[t] = v
	if exec, ok := v.(Executor); ok {
		r.executors[t] = exec
	}
	return nil
}

// Validator returns the validator for a task type
func (r *Registry) Validator(t models.TaskType) (Validator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.validators[t]
	return v, ok
}

// Executor returns the executor for a task type, if it is runnable
func (r *Registry) Executor(t models.TaskType) (Executor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exec, ok := r.executors[t]
	return exec, ok
}

// Types returns all registered task types in declaration-stable order.
func (r *Registry) Types() []models.TaskType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]models.TaskType, 0, len(r.validators))
	for _, t := range models.TaskTypes {
		if _, ok := r.validators[t]; ok {
			types = append(types, t)
		}
	}
	return types
}

// ValidateTaskConfig checks one task's config against its type's rule.
// Unknown types fail: the enumeration is closed.
func (r *Registry) ValidateTaskConfig(t models.TaskType, config map[string]any) error {
	v, ok := r.Validator(t)
	if !ok {
		return fmt.Errorf("unknown task type: %s", t)
	}
	return v.ValidateConfig(config)
}
