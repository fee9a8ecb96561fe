package models

import (
	"time"
)

// AgentStatus represents the lifecycle state of an agent
type AgentStatus string

const (
	AgentIdle      AgentStatus = "idle"
	AgentRunning   AgentStatus = "running"
	AgentPaused    AgentStatus = "paused"
	AgentError     AgentStatus = "error"
	AgentCompleted AgentStatus = "completed"
)

// TaskType defines the category of task. The enumeration is closed:
// adding a type means registering a handler for it, not extending a switch.
type TaskType string

const (
	TaskCommand TaskType = "command"
	TaskScript  TaskType = "script"
	TaskAPI     TaskType = "api"
	TaskFile    TaskType = "file"
	TaskWebhook TaskType = "webhook"
	TaskCustom  TaskType = "custom"
	TaskMail    TaskType = "mail"
)

// TaskTypes lists every known task type in a stable order.
var TaskTypes = []TaskType{
	TaskCommand, TaskScript, TaskAPI, TaskFile, TaskWebhook, TaskCustom, TaskMail,
}

// ResultStatus represents the outcome of a single task execution
type ResultStatus string

const (
	ResultSuccess ResultStatus = "success"
	ResultFailure ResultStatus = "failure"
	ResultSkipped ResultStatus = "skipped"
)

// RunStatus represents the aggregate outcome of an agent run
type RunStatus string

const (
	RunSuccess RunStatus = "success"
	RunPartial RunStatus = "partial"
	RunFailure RunStatus = "failure"
)

// BackoffStrategy selects how retry delays grow between attempts
type BackoffStrategy string

const (
	BackoffLinear      BackoffStrategy = "linear"
	BackoffExponential BackoffStrategy = "exponential"
	BackoffFixed       BackoffStrategy = "fixed"
)

// Agent is a named, persisted bundle of tasks plus execution policy.
// ID and CreatedAt are immutable after creation; UpdatedAt changes on
// every mutation.
type Agent struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Config      AgentConfig `json:"config"`
	Status      AgentStatus `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// AgentConfig holds the ordered task list and execution policy for an
// agent. It is owned exclusively by its agent and replaced wholesale on
// update, never partially mutated in place.
type AgentConfig struct {
	Tasks       []Task            `json:"tasks"`
	Schedule    *Schedule         `json:"schedule,omitempty"`
	RetryPolicy *RetryPolicy      `json:"retry_policy,omitempty"`
	TimeoutMs   int64             `json:"timeout_ms,omitempty"`
	Environment map[string]string `json:"environment,omitempty"`
}

// Schedule declares a cron or interval trigger. It is part of the data
// model but never consulted: no component evaluates it.
type Schedule struct {
	Cron       string `json:"cron,omitempty"`
	IntervalMs int64  `json:"interval_ms,omitempty"`
	Enabled    bool   `json:"enabled"`
}

// Task is one typed unit of work inside an agent. Config keys required
// for each type are enforced by the per-type handler at validation time.
// DependsOn is declared but not resolved: tasks run in declaration order.
type Task struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Type        TaskType       `json:"type"`
	Config      map[string]any `json:"config"`
	DependsOn   []string       `json:"depends_on,omitempty"`
	RetryCount  int            `json:"retry_count,omitempty"`
	MaxRetries  int            `json:"max_retries,omitempty"`
}

// RetryPolicy holds validated retry bounds. The dispatcher does not
// consult it when a task fails; it is data only.
type RetryPolicy struct {
	MaxRetries int             `json:"max_retries"`
	DelayMs    int64           `json:"delay_ms"`
	Backoff    BackoffStrategy `json:"backoff"`
	MaxDelayMs int64           `json:"max_delay_ms,omitempty"`
}

// DelayForAttempt computes the delay before the given retry attempt
// (1-based) under this policy, capped at MaxDelayMs when set.
func (p RetryPolicy) DelayForAttempt(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	delay := p.DelayMs
	switch p.Backoff {
	case BackoffLinear:
		delay = p.DelayMs * int64(attempt)
	case BackoffExponential:
		delay = p.DelayMs
		for i := 1; i < attempt; i++ {
			delay *= 2
		}
	case BackoffFixed:
		// constant delay for every attempt
	}

	if p.MaxDelayMs > 0 && delay > p.MaxDelayMs {
		delay = p.MaxDelayMs
	}
	return time.Duration(delay) * time.Millisecond
}

// TaskResult is the outcome of one task execution. Produced exactly once
// per task per run and never mutated afterwards.
type TaskResult struct {
	TaskID     string            `json:"task_id"`
	Status     ResultStatus      `json:"status"`
	Output     string            `json:"output,omitempty"`
	Error      string            `json:"error,omitempty"`
	DurationMs int64             `json:"duration_ms"`
	Timestamp  time.Time         `json:"timestamp"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// AgentResult aggregates the ordered task results of one agent run.
type AgentResult struct {
	AgentID     string       `json:"agent_id"`
	Status      RunStatus    `json:"status"`
	TaskResults []TaskResult `json:"task_results"`
	DurationMs  int64        `json:"duration_ms"`
	Timestamp   time.Time    `json:"timestamp"`
}

// AggregateStatus derives the run status from a set of task results:
// success iff every result succeeded (vacuously true for zero tasks),
// failure iff none succeeded, partial otherwise.
func AggregateStatus(results []TaskResult) RunStatus {
	succeeded := 0
	for _, r := range results {
		if r.Status == ResultSuccess {
			succeeded++
		}
	}

	switch {
	case succeeded == len(results):
		return RunSuccess
	case succeeded == 0:
		return RunFailure
	default:
		return RunPartial
	}
}

// DefaultConfig returns the base configuration that partial configs are
// merged over at agent creation time.
func DefaultConfig() AgentConfig {
	return AgentConfig{
		Tasks:       []Task{},
		TimeoutMs:   30000,
		Environment: map[string]string{},
	}
}
