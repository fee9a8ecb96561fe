package store

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/agentctl/agentctl/pkg/errdefs"
	"github.com/agentctl/agentctl/pkg/models"
)

func sampleAgent(id, name string) models.Agent {
	now := time.Date(2026, 3, 15, 9, 30, 0, 0, time.UTC)
	return models.Agent{
		ID:          id,
		Name:        name,
		Description: "test agent",
		Config: models.AgentConfig{
			Tasks: []models.Task{
				{ID: "t1", Name: "fetch", Type: models.TaskMail, Config: map[string]any{"operation": "list"}},
			},
			TimeoutMs:   30000,
			Environment: map[string]string{"KEY": "value"},
		},
		Status:    models.AgentIdle,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	agent := sampleAgent("a1", "first")
	if err := s.SaveAgent(ctx, agent); err != nil {
		t.Fatalf("SaveAgent failed: %v", err)
	}

	got, err := s.GetAgent(ctx, "a1")
	if err != nil {
		t.Fatalf("GetAgent failed: %v", err)
	}
	if got.Name != "first" {
		t.Errorf("expected name first, got %s", got.Name)
	}

	// Save overwrites
	agent.Name = "renamed"
	if err := s.SaveAgent(ctx, agent); err != nil {
		t.Fatalf("SaveAgent (overwrite) failed: %v", err)
	}
	got, _ = s.GetAgent(ctx, "a1")
	if got.Name != "renamed" {
		t.Errorf("expected overwrite, got %s", got.Name)
	}

	agents, err := s.ListAgents(ctx)
	if err != nil {
		t.Fatalf("ListAgents failed: %v", err)
	}
	if len(agents) != 1 {
		t.Errorf("expected 1 agent, got %d", len(agents))
	}

	if err := s.DeleteAgent(ctx, "a1"); err != nil {
		t.Fatalf("DeleteAgent failed: %v", err)
	}
	var nfErr *errdefs.StorageNotFoundError
	if _, err := s.GetAgent(ctx, "a1"); !errors.As(err, &nfErr) {
		t.Errorf("expected StorageNotFoundError after delete, got %v", err)
	}
	if err := s.DeleteAgent(ctx, "a1"); !errors.As(err, &nfErr) {
		t.Errorf("expected StorageNotFoundError for second delete, got %v", err)
	}
}

func TestMemoryStoreSaveAgentIfNameAbsent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if err := s.SaveAgentIfNameAbsent(ctx, sampleAgent("a1", "taken")); err != nil {
		t.Fatalf("SaveAgentIfNameAbsent failed: %v", err)
	}

	var dupErr *errdefs.AgentAlreadyExistsError
	if err := s.SaveAgentIfNameAbsent(ctx, sampleAgent("a2", "taken")); !errors.As(err, &dupErr) {
		t.Fatalf("expected AgentAlreadyExistsError for duplicate name, got %v", err)
	}
	if _, err := s.GetAgent(ctx, "a2"); err == nil {
		t.Error("rejected agent should not have been stored")
	}

	// Same ID re-claiming its own name is an overwrite, not a conflict
	updated := sampleAgent("a1", "taken")
	updated.Description = "rewritten"
	if err := s.SaveAgentIfNameAbsent(ctx, updated); err != nil {
		t.Fatalf("SaveAgentIfNameAbsent (same ID) failed: %v", err)
	}
	got, _ := s.GetAgent(ctx, "a1")
	if got.Description != "rewritten" {
		t.Errorf("expected overwrite for same ID, got %q", got.Description)
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	agent := sampleAgent("a1", "persisted")
	if err := s.SaveAgent(ctx, agent); err != nil {
		t.Fatalf("SaveAgent failed: %v", err)
	}

	got, err := s.GetAgent(ctx, "a1")
	if err != nil {
		t.Fatalf("GetAgent failed: %v", err)
	}
	if !got.CreatedAt.Equal(agent.CreatedAt) {
		t.Errorf("CreatedAt did not round-trip: got %v, want %v", got.CreatedAt, agent.CreatedAt)
	}
	if len(got.Config.Tasks) != 1 || got.Config.Tasks[0].Type != models.TaskMail {
		t.Error("task list did not round-trip")
	}
	if op, ok := got.Config.Tasks[0].Config["operation"]; !ok || op != "list" {
		t.Error("task config did not round-trip")
	}

	// The document stores dates as ISO-8601 strings
	data, err := os.ReadFile(s.AgentPath("a1"))
	if err != nil {
		t.Fatalf("reading document failed: %v", err)
	}
	if !strings.Contains(string(data), "2026-03-15T09:30:00Z") {
		t.Error("expected ISO-8601 timestamp in stored document")
	}
}

func TestFileStoreListSkipsForeignFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	if err := s.SaveAgent(ctx, sampleAgent("a1", "kept")); err != nil {
		t.Fatalf("SaveAgent failed: %v", err)
	}
	if err := os.WriteFile(dir+"/notes.txt", []byte("not an agent"), 0o644); err != nil {
		t.Fatalf("writing foreign file failed: %v", err)
	}

	agents, err := s.ListAgents(ctx)
	if err != nil {
		t.Fatalf("ListAgents failed: %v", err)
	}
	if len(agents) != 1 {
		t.Errorf("expected 1 agent, got %d", len(agents))
	}
}

func TestFileStoreNotFound(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	var nfErr *errdefs.StorageNotFoundError
	if _, err := s.GetAgent(ctx, "ghost"); !errors.As(err, &nfErr) {
		t.Errorf("expected StorageNotFoundError, got %v", err)
	}
	if err := s.DeleteAgent(ctx, "ghost"); !errors.As(err, &nfErr) {
		t.Errorf("expected StorageNotFoundError, got %v", err)
	}
}

func TestOpenDefaultsToFileBackend(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, Config{Backend: "", Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, ok := s.(*FileStore); !ok {
		t.Errorf("expected FileStore for empty backend, got %T", s)
	}

	s, err = Open(ctx, Config{Backend: "memory"})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, ok := s.(*MemoryStore); !ok {
		t.Errorf("expected MemoryStore, got %T", s)
	}

	if _, err := Open(ctx, Config{Backend: "cassandra"}); err == nil {
		t.Error("expected error for unknown backend")
	}
}
