// Package store provides agent persistence. Each backend is effectively
// atomic at the single-record level; richer guarantees (such as an
// insert-if-absent primitive) are deliberately out of the contract.
package store

import (
	"context"

	"github.com/agentctl/agentctl/pkg/models"
)

// Store is the persistence capability consumed by the agent directory.
// Missing records surface as *errdefs.StorageNotFoundError, every other
// failure as *errdefs.StorageError.
type Store interface {
	// SaveAgent persists an agent, overwriting any record with the same ID
	SaveAgent(ctx context.Context, agent models.Agent) error

	// GetAgent retrieves an agent by ID
	GetAgent(ctx context.Context, id string) (*models.Agent, error)

	// ListAgents returns all agents in backend-defined order
	ListAgents(ctx context.Context) ([]models.Agent, error)

	// DeleteAgent removes an agent by ID
	DeleteAgent(ctx context.Context, id string) error
}

// UniqueNameStore is an optional upgrade: backends that can enforce the
// name-uniqueness constraint atomically implement it, and the directory
// prefers it over its check-then-write fallback.
type UniqueNameStore interface {
	Store

	// SaveAgentIfNameAbsent persists the agent only if no other agent
	// holds its name, failing with *errdefs.AgentAlreadyExistsError.
	SaveAgentIfNameAbsent(ctx context.Context, agent models.Agent) error
}

// Config selects and configures a store backend.
type Config struct {
	Backend string      `yaml:"backend" json:"backend"` // memory, file, redis
	Dir     string      `yaml:"dir" json:"dir"`         // file backend: directory of agent documents
	Redis   RedisConfig `yaml:"redis" json:"redis"`
}

// RedisConfig holds Redis connection configuration for the redis backend
type RedisConfig struct {
	Address   string `yaml:"address" json:"address"`
	Password  string `yaml:"password,omitempty" json:"password,omitempty"`
	DB        int    `yaml:"db" json:"db"`
	KeyPrefix string `yaml:"key_prefix" json:"key_prefix"`
}

// DefaultConfig returns the default store configuration
func DefaultConfig() Config {
	return Config{
		Backend: "file",
		Dir:     ".agentctl/agents",
		Redis: RedisConfig{
			Address:   "localhost:6379",
			KeyPrefix: "agentctl:agents:",
		},
	}
}
