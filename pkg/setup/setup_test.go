package setup

import (
	"context"
	"errors"
	"testing"

	"github.com/agentctl/agentctl/pkg/config"
	"github.com/agentctl/agentctl/pkg/errdefs"
	"github.com/agentctl/agentctl/pkg/logging"
	"github.com/agentctl/agentctl/pkg/models"
)

func TestInitializeGateway(t *testing.T) {
	t.Run("no credentials at all", func(t *testing.T) {
		_, err := InitializeGateway(config.LLMConfig{}, logging.NewNop(), nil)
		var cErr *errdefs.LLMConfigurationError
		if !errors.As(err, &cErr) {
			t.Fatalf("expected LLMConfigurationError, got %v", err)
		}
	})

	t.Run("one credential registers both providers", func(t *testing.T) {
		gateway, err := InitializeGateway(config.LLMConfig{OpenAIAPIKey: "sk-x"}, logging.NewNop(), nil)
		if err != nil {
			t.Fatalf("InitializeGateway failed: %v", err)
		}

		// Both names resolve, only the credentialed one is listed
		if _, err := gateway.GetProvider("openrouter"); err != nil {
			t.Errorf("openrouter must stay resolvable: %v", err)
		}
		names := gateway.ListProviders()
		if len(names) != 1 || names[0] != "openai" {
			t.Errorf("expected [openai], got %v", names)
		}
	})
}

func TestInitializeTaskRegistry(t *testing.T) {
	// No usable credentials: registry still validates every type, mail
	// just cannot execute against a real account.
	registry, err := InitializeTaskRegistry(context.Background(), config.MailConfig{}, logging.NewNop())
	if err != nil {
		t.Fatalf("InitializeTaskRegistry failed: %v", err)
	}

	for _, taskType := range models.TaskTypes {
		if _, ok := registry.Validator(taskType); !ok {
			t.Errorf("no validator for %s", taskType)
		}
	}
	if _, ok := registry.Executor(models.TaskMail); !ok {
		t.Error("mail executor must be registered even without credentials")
	}
}
