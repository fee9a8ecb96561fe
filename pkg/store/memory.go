package store

import (
	"context"
	"sync"

	"github.com/agentctl/agentctl/pkg/errdefs"
	"github.com/agentctl/agentctl/pkg/models"
)

// MemoryStore is an in-memory Store for tests and ephemeral runs. All
// operations are serialized through a single mutex.
type MemoryStore struct {
	agents map[string]models.Agent
	mu     sync.RWMutex
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{agents: make(map[string]models.Agent)}
}

// SaveAgent persists an agent, overwriting any record with the same ID
func (s *MemoryStore) SaveAgent(ctx context.Context, agent models.Agent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.agents[agent.ID] = agent
	return nil
}

// GetAgent retrieves an agent by ID
func (s *MemoryStore) GetAgent(ctx context.Context, id string) (*models.Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	agent, ok := s.agents[id]
	if !ok {
		return nil, &errdefs.StorageNotFoundError{Path: "memory://agents/" + id}
	}
	return &agent, nil
}

// ListAgents returns all agents in map-iteration order
func (s *MemoryStore) ListAgents(ctx context.Context) ([]models.Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	agents := make([]models.Agent, 0, len(s.agents))
	for _, agent := range s.agents {
		agents = append(agents, agent)
	}
	return agents, nil
}

// SaveAgentIfNameAbsent persists the agent only if its name is unused.
// The check and the write happen under one lock, closing the
// check-then-write race that file-backed stores document instead.
func (s *MemoryStore) SaveAgentIfNameAbsent(ctx context.Context, agent models.Agent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, existing := range s.agents {
		if existing.Name == agent.Name && id != agent.ID {
			return &errdefs.AgentAlreadyExistsError{Name: agent.Name}
		}
	}
	s.agents[agent.ID] = agent
	return nil
}

// DeleteAgent removes an agent by ID
func (s *MemoryStore) DeleteAgent(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.agents[id]; !ok {
		return &errdefs.StorageNotFoundError{Path: "memory://agents/" + id}
	}
	delete(s.agents, id)
	return nil
}
