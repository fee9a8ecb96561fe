package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/agentctl/agentctl/pkg/errdefs"
	"github.com/agentctl/agentctl/pkg/models"
)

// RedisStore persists agents as JSON values in Redis, one key per agent
// plus a set of known IDs for listing.
type RedisStore struct {
	client *redis.Client
	config RedisConfig
}

// NewRedisStore creates a redis-backed store and verifies the connection
func NewRedisStore(ctx context.Context, config RedisConfig) (*RedisStore, error) {
	if config.KeyPrefix == "" {
		config.KeyPrefix = "agentctl:agents:"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.Address,
		Password: config.Password,
		DB:       config.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, &errdefs.StorageError{
			Op:     "init",
			Path:   config.Address,
			Reason: "connecting to redis",
			Err:    err,
		}
	}

	return &RedisStore{client: client, config: config}, nil
}

// Close releases the underlying Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) agentKey(id string) string {
	return s.config.KeyPrefix + id
}

func (s *RedisStore) indexKey() string {
	return s.config.KeyPrefix + "all"
}

// nameIndexKey holds the name→ID claims behind SaveAgentIfNameAbsent.
// Renames through plain SaveAgent leave stale claims; only creation and
// deletion maintain the hash.
func (s *RedisStore) nameIndexKey() string {
	return s.config.KeyPrefix + "names"
}

// SaveAgent persists an agent, overwriting any record with the same ID
func (s *RedisStore) SaveAgent(ctx context.Context, agent models.Agent) error {
	key := s.agentKey(agent.ID)

	data, err := json.Marshal(agent)
	if err != nil {
		return &errdefs.StorageError{Op: "save", Path: key, Reason: "encoding agent", Err: err}
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, key, data, 0)
	pipe.SAdd(ctx, s.indexKey(), agent.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return &errdefs.StorageError{Op: "save", Path: key, Reason: "writing agent record", Err: err}
	}
	return nil
}

// SaveAgentIfNameAbsent persists the agent only if its name is unused,
// claiming the name through HSETNX on the name index first.
func (s *RedisStore) SaveAgentIfNameAbsent(ctx context.Context, agent models.Agent) error {
	claimed, err := s.client.HSetNX(ctx, s.nameIndexKey(), agent.Name, agent.ID).Result()
	if err != nil {
		return &errdefs.StorageError{Op: "save", Path: s.nameIndexKey(), Reason: "claiming agent name", Err: err}
	}
	if !claimed {
		return &errdefs.AgentAlreadyExistsError{Name: agent.Name}
	}

	if err := s.SaveAgent(ctx, agent); err != nil {
		// Release the claim so the name is not leaked on a failed write
		s.client.HDel(ctx, s.nameIndexKey(), agent.Name)
		return err
	}
	return nil
}

// GetAgent retrieves an agent by ID
func (s *RedisStore) GetAgent(ctx context.Context, id string) (*models.Agent, error) {
	key := s.agentKey(id)

	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, &errdefs.StorageNotFoundError{Path: key}
		}
		return nil, &errdefs.StorageError{Op: "get", Path: key, Reason: "reading agent record", Err: err}
	}

	var agent models.Agent
	if err := json.Unmarshal(data, &agent); err != nil {
		return nil, &errdefs.StorageError{Op: "get", Path: key, Reason: "decoding agent record", Err: err}
	}
	return &agent, nil
}

// ListAgents returns all agents in set-member order
func (s *RedisStore) ListAgents(ctx context.Context) ([]models.Agent, error) {
	ids, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, &errdefs.StorageError{Op: "list", Path: s.indexKey(), Reason: "reading agent index", Err: err}
	}

	agents := make([]models.Agent, 0, len(ids))
	for _, id := range ids {
		agent, err := s.GetAgent(ctx, id)
		if err != nil {
			var notFound *errdefs.StorageNotFoundError
			if errors.As(err, &notFound) {
				// Index member without a record; a concurrent delete won the race
				continue
			}
			return nil, err
		}
		agents = append(agents, *agent)
	}
	return agents, nil
}

// DeleteAgent removes an agent by ID, releasing its name claim.
func (s *RedisStore) DeleteAgent(ctx context.Context, id string) error {
	key := s.agentKey(id)

	agent, err := s.GetAgent(ctx, id)
	if err != nil {
		return err
	}

	removed, err := s.client.Del(ctx, key).Result()
	if err != nil {
		return &errdefs.StorageError{Op: "delete", Path: key, Reason: "removing agent record", Err: err}
	}
	if removed == 0 {
		return &errdefs.StorageNotFoundError{Path: key}
	}

	pipe := s.client.TxPipeline()
	pipe.SRem(ctx, s.indexKey(), id)
	pipe.HDel(ctx, s.nameIndexKey(), agent.Name)
	if _, err := pipe.Exec(ctx); err != nil {
		return &errdefs.StorageError{Op: "delete", Path: key, Reason: "updating agent indexes", Err: err}
	}
	return nil
}

// Open constructs the store selected by config.
func Open(ctx context.Context, config Config) (Store, error) {
	switch config.Backend {
	case "", "file":
		return NewFileStore(config.Dir)
	case "memory":
		return NewMemoryStore(), nil
	case "redis":
		return NewRedisStore(ctx, config.Redis)
	default:
		return nil, fmt.Errorf("unknown store backend: %s", config.Backend)
	}
}
