// Package setup wires configured components together at startup.
package setup

import (
	"context"

	"github.com/agentctl/agentctl/pkg/config"
	"github.com/agentctl/agentctl/pkg/errdefs"
	"github.com/agentctl/agentctl/pkg/llm"
	"github.com/agentctl/agentctl/pkg/llm/openai"
	"github.com/agentctl/agentctl/pkg/llm/openrouter"
	"github.com/agentctl/agentctl/pkg/logging"
	"github.com/agentctl/agentctl/pkg/mail"
	"github.com/agentctl/agentctl/pkg/mail/gmail"
	"github.com/agentctl/agentctl/pkg/metrics"
	"github.com/agentctl/agentctl/pkg/tasks"
	"github.com/agentctl/agentctl/pkg/tasks/handlers"
)

// InitializeGateway builds the completion gateway from config. Both
// known providers are always registered so unknown-name and
// missing-credential failures stay distinguishable; having no
// credential for any provider is a configuration error here, not at
// call time.
func InitializeGateway(cfg config.LLMConfig, logger logging.Logger, m *metrics.Metrics) (*llm.Gateway, error) {
	if cfg.OpenAIAPIKey == "" && cfg.OpenRouterAPIKey == "" {
		return nil, &errdefs.LLMConfigurationError{
			Reason: "no provider credentials configured; set OPENAI_API_KEY or OPENROUTER_API_KEY",
		}
	}

	gateway := llm.NewGateway(logger, m)

	openaiClient := openai.NewClient(openai.ClientConfig{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
	})
	if err := gateway.RegisterProvider(llm.Provider{
		Name:          "openai",
		Backend:       openaiClient,
		HasCredential: cfg.OpenAIAPIKey != "",
	}); err != nil {
		return nil, err
	}

	openrouterClient := openrouter.NewClient(openrouter.ClientConfig{
		APIKey:  cfg.OpenRouterAPIKey,
		BaseURL: cfg.OpenRouterBaseURL,
		Title:   "agentctl",
	})
	if err := gateway.RegisterProvider(llm.Provider{
		Name:          "openrouter",
		Backend:       openrouterClient,
		HasCredential: cfg.OpenRouterAPIKey != "",
	}); err != nil {
		return nil, err
	}

	return gateway, nil
}

// InitializeTaskRegistry builds the task type registry, connecting the
// mail handler to Gmail when credentials are present. Without them the
// registry still validates mail configs; execution fails with an
// authentication error.
func InitializeTaskRegistry(ctx context.Context, cfg config.MailConfig, logger logging.Logger) (*tasks.Registry, error) {
	var mailService mail.Service
	if cfg.CredentialsPath != "" {
		client, err := gmail.NewClient(ctx, gmail.ClientConfig{
			CredentialsPath: cfg.CredentialsPath,
			TokenPath:       cfg.TokenPath,
		})
		if err != nil {
			logger.Debug("gmail unavailable, mail tasks will fail at execution",
				logging.Err(err),
			)
		} else {
			mailService = client
		}
	}

	registry := tasks.NewRegistry()
	if err := handlers.RegisterAll(registry, mailService); err != nil {
		return nil, err
	}
	return registry, nil
}
