// Package directory implements agent create/get/list/update/delete with
// a name-uniqueness constraint over an injected Store.
package directory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/agentctl/agentctl/pkg/errdefs"
	"github.com/agentctl/agentctl/pkg/logging"
	"github.com/agentctl/agentctl/pkg/models"
	"github.com/agentctl/agentctl/pkg/store"
	"github.com/agentctl/agentctl/pkg/validate"
)

// Directory manages the agent collection.
//
// Creation prefers the store's atomic insert-if-absent when the backend
// implements UniqueNameStore. Against a plain Store it degrades to
// check-then-write: the name-uniqueness check and the subsequent save
// are not one transaction, so two concurrent creates with the same name
// can both pass the check before either writes. Deployments needing a
// hard guarantee on such a backend must serialize creation.
type Directory struct {
	store  store.Store
	rules  validate.TypeRules
	logger logging.Logger
	now    func() time.Time
}

// Update carries the mutable agent fields for Directory.Update. Nil
// fields are left unchanged; ID and CreatedAt are immutable and have no
// representation here.
type Update struct {
	Name        *string
	Description *string
	Config      *models.AgentConfig
	Status      *models.AgentStatus
}

// New creates a directory over the given store and task-type rules
func New(s store.Store, rules validate.TypeRules, logger logging.Logger) *Directory {
	return &Directory{
		store:  s,
		rules:  rules,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Create validates the inputs, merges partialConfig over the default
// config, enforces name uniqueness, and persists the new agent.
func (d *Directory) Create(ctx context.Context, name, description string, partialConfig *models.AgentConfig) (*models.Agent, error) {
	if err := validate.ValidateName(name); err != nil {
		return nil, err
	}
	if err := validate.ValidateDescription(description); err != nil {
		return nil, err
	}

	config := mergeConfig(models.DefaultConfig(), partialConfig)
	if err := validate.ValidateAgentConfig(config, d.rules); err != nil {
		return nil, err
	}

	now := d.now()
	agent := models.Agent{
		ID:          newID(),
		Name:        name,
		Description: description,
		Config:      config,
		Status:      models.AgentIdle,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := d.saveNew(ctx, agent); err != nil {
		return nil, err
	}

	d.logger.Info("agent created",
		logging.String("agent_id", agent.ID),
		logging.String("name", agent.Name),
		logging.Int("tasks", len(agent.Config.Tasks)),
	)
	return &agent, nil
}

// saveNew persists a freshly created agent, enforcing name uniqueness.
// Backends with an atomic claim do it in one step; the others get the
// documented check-then-write.
func (d *Directory) saveNew(ctx context.Context, agent models.Agent) error {
	if unique, ok := d.store.(store.UniqueNameStore); ok {
		return unique.SaveAgentIfNameAbsent(ctx, agent)
	}

	if err := d.checkNameFree(ctx, agent.Name, agent.ID); err != nil {
		return err
	}
	return d.store.SaveAgent(ctx, agent)
}

// checkNameFree fails with *errdefs.AgentAlreadyExistsError when an
// agent other than selfID holds name. Check-then-write; see the race
// note on the Directory type.
func (d *Directory) checkNameFree(ctx context.Context, name, selfID string) error {
	existing, err := d.store.ListAgents(ctx)
	if err != nil {
		return err
	}
	for _, a := range existing {
		if a.Name == name && a.ID != selfID {
			return &errdefs.AgentAlreadyExistsError{Name: name}
		}
	}
	return nil
}

// Get retrieves an agent by ID.
func (d *Directory) Get(ctx context.Context, id string) (*models.Agent, error) {
	return d.store.GetAgent(ctx, id)
}

// List returns all agents in store-defined order.
func (d *Directory) List(ctx context.Context) ([]models.Agent, error) {
	return d.store.ListAgents(ctx)
}

// Update overlays the given fields on the current agent, bumps
// UpdatedAt, and persists. ID and CreatedAt are never touched. A rename
// re-checks name uniqueness (check-then-write, even on backends with an
// atomic create path). The merged config is not re-validated here;
// callers that accept untrusted configs should validate before
// updating.
func (d *Directory) Update(ctx context.Context, id string, update Update) (*models.Agent, error) {
	agent, err := d.store.GetAgent(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.Name != nil && *update.Name != agent.Name {
		if err := d.checkNameFree(ctx, *update.Name, agent.ID); err != nil {
			return nil, err
		}
		agent.Name = *update.Name
	}
	if update.Description != nil {
		agent.Description = *update.Description
	}
	if update.Config != nil {
		// Config is replaced wholesale, never partially mutated
		agent.Config = *update.Config
	}
	if update.Status != nil {
		agent.Status = *update.Status
	}
	agent.UpdatedAt = d.now()

	if err := d.store.SaveAgent(ctx, *agent); err != nil {
		return nil, err
	}

	d.logger.Info("agent updated", logging.String("agent_id", agent.ID))
	return agent, nil
}

// Delete removes an agent by ID.
func (d *Directory) Delete(ctx context.Context, id string) error {
	if err := d.store.DeleteAgent(ctx, id); err != nil {
		return err
	}
	d.logger.Info("agent deleted", logging.String("agent_id", id))
	return nil
}

// mergeConfig overlays the fields present in partial onto base.
func mergeConfig(base models.AgentConfig, partial *models.AgentConfig) models.AgentConfig {
	if partial == nil {
		return base
	}
	if partial.Tasks != nil {
		base.Tasks = partial.Tasks
	}
	if partial.Schedule != nil {
		base.Schedule = partial.Schedule
	}
	if partial.RetryPolicy != nil {
		base.RetryPolicy = partial.RetryPolicy
	}
	if partial.TimeoutMs != 0 {
		base.TimeoutMs = partial.TimeoutMs
	}
	if partial.Environment != nil {
		base.Environment = partial.Environment
	}
	return base
}

// newID returns a fresh opaque short identifier.
func newID() string {
	return strings.SplitN(uuid.NewString(), "-", 2)[0]
}
