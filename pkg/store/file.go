package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/agentctl/agentctl/pkg/errdefs"
	"github.com/agentctl/agentctl/pkg/models"
)

// FileStore persists one JSON document per agent under a directory.
// Dates serialize as ISO-8601 strings (time.Time's JSON encoding) and
// round-trip back into time values on read.
type FileStore struct {
	dir string
}

// NewFileStore creates a file-backed store rooted at dir, creating the
// directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &errdefs.StorageError{Op: "init", Path: dir, Reason: "creating store directory", Err: err}
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the directory holding the agent documents.
func (s *FileStore) Dir() string { return s.dir }

// AgentPath returns the document path for an agent ID.
func (s *FileStore) AgentPath(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// SaveAgent persists an agent, overwriting any record with the same ID.
// The write goes through a temp file and rename so readers never see a
// partial document.
func (s *FileStore) SaveAgent(ctx context.Context, agent models.Agent) error {
	path := s.AgentPath(agent.ID)

	data, err := json.MarshalIndent(agent, "", "  ")
	if err != nil {
		return &errdefs.StorageError{Op: "save", Path: path, Reason: "encoding agent", Err: err}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return &errdefs.StorageError{Op: "save", Path: path, Reason: "writing agent document", Err: err}
	}
	if err := os.Rename(tmp, path); err != nil {
		return &errdefs.StorageError{Op: "save", Path: path, Reason: "replacing agent document", Err: err}
	}
	return nil
}

// GetAgent retrieves an agent by ID
func (s *FileStore) GetAgent(ctx context.Context, id string) (*models.Agent, error) {
	path := s.AgentPath(id)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &errdefs.StorageNotFoundError{Path: path}
		}
		return nil, &errdefs.StorageError{Op: "get", Path: path, Reason: "reading agent document", Err: err}
	}

	var agent models.Agent
	if err := json.Unmarshal(data, &agent); err != nil {
		return nil, &errdefs.StorageError{Op: "get", Path: path, Reason: "decoding agent document", Err: err}
	}
	return &agent, nil
}

// ListAgents returns all agents in directory-listing order
func (s *FileStore) ListAgents(ctx context.Context) ([]models.Agent, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, &errdefs.StorageError{Op: "list", Path: s.dir, Reason: "reading store directory", Err: err}
	}

	agents := make([]models.Agent, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ".json")
		agent, err := s.GetAgent(ctx, id)
		if err != nil {
			return nil, err
		}
		agents = append(agents, *agent)
	}
	return agents, nil
}

// DeleteAgent removes an agent by ID
func (s *FileStore) DeleteAgent(ctx context.Context, id string) error {
	path := s.AgentPath(id)

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return &errdefs.StorageNotFoundError{Path: path}
		}
		return &errdefs.StorageError{Op: "delete", Path: path, Reason: "removing agent document", Err: err}
	}
	return nil
}
