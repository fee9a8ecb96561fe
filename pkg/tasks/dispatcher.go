package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/agentctl/agentctl/pkg/logging"
	"github.com/agentctl/agentctl/pkg/metrics"
	"github.com/agentctl/agentctl/pkg/models"
)

// Dispatcher runs an agent's tasks strictly sequentially, in declaration
// order, and aggregates per-task outcomes into an AgentResult. A failing
// task never aborts the run; its error becomes a failed TaskResult and
// the loop continues.
type Dispatcher struct {
	registry *Registry
	logger   logging.Logger
	metrics  *metrics.Metrics
}

// NewDispatcher creates a new dispatcher
func NewDispatcher(registry *Registry, logger logging.Logger, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		logger:   logger,
		metrics:  m,
	}
}

// Run executes every task of the agent and returns the aggregated
// result. Declared task dependencies are not resolved; declaration
// order is execution order. The validated RetryPolicy is not consulted:
// a failed task is recorded, not re-invoked.
func (d *Dispatcher) Run(ctx context.Context, agent models.Agent) models.AgentResult {
	start := time.Now()
	results := make([]models.TaskResult, 0, len(agent.Config.Tasks))

	for _, task := range agent.Config.Tasks {
		results = append(results, d.runTask(ctx, agent.ID, task))
	}

	result := models.AgentResult{
		AgentID:     agent.ID,
		Status:      models.AggregateStatus(results),
		TaskResults: results,
		DurationMs:  time.Since(start).Milliseconds(),
		Timestamp:   time.Now().UTC(),
	}

	if d.metrics != nil {
		d.metrics.AgentRun(string(result.Status))
	}
	d.logger.Info("agent run complete",
		logging.String("agent_id", agent.ID),
		logging.String("status", string(result.Status)),
		logging.Int("tasks", len(results)),
		logging.Int64("duration_ms", result.DurationMs),
	)

	return result
}

// runTask executes one task, converting any executor failure into a
// failed TaskResult at the dispatcher boundary.
func (d *Dispatcher) runTask(ctx context.Context, agentID string, task models.Task) models.TaskResult {
	exec, ok := d.registry.Executor(task.Type)
	if !ok {
		d.logger.Debug("no executor for task type, skipping",
			logging.String("agent_id", agentID),
			logging.String("task_id", task.ID),
			logging.String("type", string(task.Type)),
		)
		if d.metrics != nil {
			d.metrics.TaskExecuted(string(task.Type), string(models.ResultSkipped))
		}
		return models.TaskResult{
			TaskID:    task.ID,
			Status:    models.ResultSkipped,
			Timestamp: time.Now().UTC(),
		}
	}

	start := time.Now()
	output, err := d.execute(ctx, exec, task)
	if err != nil {
		d.logger.Warn("task failed",
			logging.String("agent_id", agentID),
			logging.String("task_id", task.ID),
			logging.Err(err),
		)
		if d.metrics != nil {
			d.metrics.TaskExecuted(string(task.Type), string(models.ResultFailure))
		}
		return models.TaskResult{
			TaskID:    task.ID,
			Status:    models.ResultFailure,
			Output:    "[]",
			Error:     err.Error(),
			Timestamp: time.Now().UTC(),
		}
	}

	if d.metrics != nil {
		d.metrics.TaskExecuted(string(task.Type), string(models.ResultSuccess))
	}
	return models.TaskResult{
		TaskID:     task.ID,
		Status:     models.ResultSuccess,
		Output:     output,
		DurationMs: time.Since(start).Milliseconds(),
		Timestamp:  time.Now().UTC(),
	}
}

// execute invokes the executor, recovering panics into errors so a
// misbehaving executor cannot abort the run.
func (d *Dispatcher) execute(ctx context.Context, exec Executor, task models.Task) (output string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("executor panic: %v", r)
		}
	}()
	return exec.Execute(ctx, task)
}
