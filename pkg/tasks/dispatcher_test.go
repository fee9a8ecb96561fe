package tasks

import (
	"context"
	"errors"
	"testing"

	"github.com/agentctl/agentctl/pkg/logging"
	"github.com/agentctl/agentctl/pkg/models"
)

// fakeExecutor runs tasks of one type with a canned outcome per task ID.
type fakeExecutor struct {
	taskType models.TaskType
	results  map[string]string
	errs     map[string]error
	panics   map[string]bool
	calls    []string
}

func (f *fakeExecutor) Type() models.TaskType                      { return f.taskType }
func (f *fakeExecutor) ValidateConfig(config map[string]any) error { return nil }
func (f *fakeExecutor) Execute(ctx context.Context, task models.Task) (string, error) {
	f.calls = append(f.calls, task.ID)
	if f.panics[task.ID] {
		panic("executor blew up")
	}
	if err, ok := f.errs[task.ID]; ok {
		return "", err
	}
	return f.results[task.ID], nil
}

func task(id string, taskType models.TaskType) models.Task {
	return models.Task{ID: id, Name: id, Type: taskType, Config: map[string]any{}}
}

func agentWith(tasks ...models.Task) models.Agent {
	return models.Agent{
		ID:     "agent-1",
		Name:   "test",
		Config: models.AgentConfig{Tasks: tasks},
		Status: models.AgentIdle,
	}
}

func TestDispatcherRun(t *testing.T) {
	ctx := context.Background()

	t.Run("zero tasks is success", func(t *testing.T) {
		d := NewDispatcher(NewRegistry(), logging.NewNop(), nil)
		result := d.Run(ctx, agentWith())
		if result.Status != models.RunSuccess {
			t.Errorf("expected success, got %s", result.Status)
		}
		if len(result.TaskResults) != 0 {
			t.Errorf("expected no task results, got %d", len(result.TaskResults))
		}
	})

	t.Run("all succeed", func(t *testing.T) {
		reg := NewRegistry()
		exec := &fakeExecutor{
			taskType: models.TaskCustom,
			results:  map[string]string{"t1": `["a"]`, "t2": `["b"]`},
		}
		if err := reg.Register(exec); err != nil {
			t.Fatalf("Register failed: %v", err)
		}

		d := NewDispatcher(reg, logging.NewNop(), nil)
		result := d.Run(ctx, agentWith(task("t1", models.TaskCustom), task("t2", models.TaskCustom)))

		if result.Status != models.RunSuccess {
			t.Errorf("expected success, got %s", result.Status)
		}
		if result.TaskResults[0].Output != `["a"]` {
			t.Errorf("unexpected output: %s", result.TaskResults[0].Output)
		}
	})

	t.Run("failure does not stop the run", func(t *testing.T) {
		reg := NewRegistry()
		exec := &fakeExecutor{
			taskType: models.TaskCustom,
			results:  map[string]string{"t1": "one", "t3": "three"},
			errs:     map[string]error{"t2": errors.New("boom")},
		}
		if err := reg.Register(exec); err != nil {
			t.Fatalf("Register failed: %v", err)
		}

		d := NewDispatcher(reg, logging.NewNop(), nil)
		result := d.Run(ctx, agentWith(
			task("t1", models.TaskCustom),
			task("t2", models.TaskCustom),
			task("t3", models.TaskCustom),
		))

		if result.Status != models.RunPartial {
			t.Errorf("expected partial, got %s", result.Status)
		}
		if len(exec.calls) != 3 {
			t.Errorf("expected all 3 tasks attempted, got calls %v", exec.calls)
		}

		failed := result.TaskResults[1]
		if failed.Status != models.ResultFailure {
			t.Errorf("expected failure, got %s", failed.Status)
		}
		if failed.Error != "boom" {
			t.Errorf("expected error message boom, got %q", failed.Error)
		}
		if failed.Output != "[]" {
			t.Errorf("expected placeholder output, got %q", failed.Output)
		}
		if failed.DurationMs != 0 {
			t.Errorf("expected zero duration on failure, got %d", failed.DurationMs)
		}

		if result.TaskResults[2].Status != models.ResultSuccess {
			t.Error("task after the failure must still run")
		}
	})

	t.Run("all fail", func(t *testing.T) {
		reg := NewRegistry()
		exec := &fakeExecutor{
			taskType: models.TaskCustom,
			errs:     map[string]error{"t1": errors.New("a"), "t2": errors.New("b")},
		}
		if err := reg.Register(exec); err != nil {
			t.Fatalf("Register failed: %v", err)
		}

		d := NewDispatcher(reg, logging.NewNop(), nil)
		result := d.Run(ctx, agentWith(task("t1", models.TaskCustom), task("t2", models.TaskCustom)))
		if result.Status != models.RunFailure {
			t.Errorf("expected failure, got %s", result.Status)
		}
	})

	t.Run("unregistered type is skipped", func(t *testing.T) {
		reg := NewRegistry()
		exec := &fakeExecutor{taskType: models.TaskCustom, results: map[string]string{"t2": "ran"}}
		if err := reg.Register(exec); err != nil {
			t.Fatalf("Register failed: %v", err)
		}

		d := NewDispatcher(reg, logging.NewNop(), nil)
		result := d.Run(ctx, agentWith(task("t1", models.TaskWebhook), task("t2", models.TaskCustom)))

		if result.TaskResults[0].Status != models.ResultSkipped {
			t.Errorf("expected skipped, got %s", result.TaskResults[0].Status)
		}
		if result.Status != models.RunPartial {
			t.Errorf("expected partial, got %s", result.Status)
		}
	})

	t.Run("panic becomes a failed result", func(t *testing.T) {
		reg := NewRegistry()
		exec := &fakeExecutor{
			taskType: models.TaskCustom,
			panics:   map[string]bool{"t1": true},
			results:  map[string]string{"t2": "survived"},
		}
		if err := reg.Register(exec); err != nil {
			t.Fatalf("Register failed: %v", err)
		}

		d := NewDispatcher(reg, logging.NewNop(), nil)
		result := d.Run(ctx, agentWith(task("t1", models.TaskCustom), task("t2", models.TaskCustom)))

		if result.TaskResults[0].Status != models.ResultFailure {
			t.Errorf("expected failure from panic, got %s", result.TaskResults[0].Status)
		}
		if result.TaskResults[1].Status != models.ResultSuccess {
			t.Error("run must continue after a panicking executor")
		}
	})

	t.Run("declaration order is execution order", func(t *testing.T) {
		reg := NewRegistry()
		exec := &fakeExecutor{taskType: models.TaskCustom, results: map[string]string{}}
		if err := reg.Register(exec); err != nil {
			t.Fatalf("Register failed: %v", err)
		}

		d := NewDispatcher(reg, logging.NewNop(), nil)
		d.Run(ctx, agentWith(
			task("c", models.TaskCustom),
			task("a", models.TaskCustom),
			task("b", models.TaskCustom),
		))

		want := []string{"c", "a", "b"}
		for i, id := range want {
			if exec.calls[i] != id {
				t.Fatalf("execution order %v, want %v", exec.calls, want)
			}
		}
	})
}

func TestRegistry(t *testing.T) {
	t.Run("duplicate registration", func(t *testing.T) {
		reg := NewRegistry()
		if err := reg.Register(&fakeExecutor{taskType: models.TaskCustom}); err != nil {
			t.Fatalf("first Register failed: %v", err)
		}
		if err := reg.Register(&fakeExecutor{taskType: models.TaskCustom}); err == nil {
			t.Error("expected error on duplicate registration")
		}
	})

	t.Run("unknown type fails validation", func(t *testing.T) {
		reg := NewRegistry()
		if err := reg.ValidateTaskConfig(models.TaskType("bogus"), nil); err == nil {
			t.Error("expected error for unknown type")
		}
	})

	t.Run("types in stable order", func(t *testing.T) {
		reg := NewRegistry()
		reg.Register(&fakeExecutor{taskType: models.TaskMail})
		reg.Register(&fakeExecutor{taskType: models.TaskCommand})

		types := reg.Types()
		if len(types) != 2 || types[0] != models.TaskCommand || types[1] != models.TaskMail {
			t.Errorf("unexpected order: %v", types)
		}
	})
}
