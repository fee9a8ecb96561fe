package llm

import (
	"context"
	"sync"

	"github.com/agentctl/agentctl/pkg/errdefs"
	"github.com/agentctl/agentctl/pkg/logging"
	"github.com/agentctl/agentctl/pkg/metrics"
)

// Provider describes one configured backend.
type Provider struct {
	Name          string
	Backend       Backend
	HasCredential bool
}

// Gateway resolves provider names onto backends and enforces the shared
// request contract: streaming rejected up front, one blocking call per
// request, errors classified into the closed gateway error kinds.
type Gateway struct {
	providers map[string]Provider
	order     []string
	logger    logging.Logger
	metrics   *metrics.Metrics
	mu        sync.RWMutex
}

// NewGateway creates an empty gateway
func NewGateway(logger logging.Logger, m *metrics.Metrics) *Gateway {
	return &Gateway{
		providers: make(map[string]Provider),
		logger:    logger,
		metrics:   m,
	}
}

// RegisterProvider adds a provider to the gateway. Registration order
// is preserved for listing.
func (g *Gateway) RegisterProvider(p Provider) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.providers[p.Name]; exists {
		return &errdefs.LLMConfigurationError{Provider: p.Name, Reason: "provider already registered"}
	}
	g.providers[p.Name] = p
	g.order = append(g.order, p.Name)
	return nil
}

// GetProvider returns the descriptor for a provider name.
func (g *Gateway) GetProvider(name string) (Provider, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	p, ok := g.providers[name]
	if !ok {
		return Provider{}, &errdefs.LLMConfigurationError{Provider: name, Reason: "unknown provider"}
	}
	return p, nil
}

// ListProviders returns the names of providers holding a credential, in
// registration order.
func (g *Gateway) ListProviders() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	names := make([]string, 0, len(g.order))
	for _, name := range g.order {
		if g.providers[name].HasCredential {
			names = append(names, name)
		}
	}
	return names
}

// CreateChatCompletion resolves the provider and issues one blocking
// completion call. Streaming requests fail before any network traffic.
func (g *Gateway) CreateChatCompletion(ctx context.Context, providerName string, req ChatRequest) (*ChatResponse, error) {
	provider, err := g.GetProvider(providerName)
	if err != nil {
		g.record(providerName, "configuration_error")
		return nil, err
	}
	if !provider.HasCredential {
		g.record(providerName, "authentication_error")
		return nil, &errdefs.LLMAuthenticationError{Provider: providerName, Reason: "no credential configured"}
	}
	if req.Stream {
		g.record(providerName, "request_error")
		return nil, &errdefs.LLMRequestError{Provider: providerName, Reason: "streaming is not supported"}
	}

	resp, err := provider.Backend.CreateChatCompletion(ctx, req)
	if err != nil {
		classified := ClassifyError(providerName, err)
		g.record(providerName, outcomeLabel(classified))
		g.logger.Warn("completion failed",
			logging.String("provider", providerName),
			logging.String("model", req.Model),
			logging.Err(classified),
		)
		return nil, classified
	}

	g.record(providerName, "success")
	g.logger.Debug("completion succeeded",
		logging.String("provider", providerName),
		logging.String("model", resp.Model),
		logging.Int("tool_calls", len(resp.ToolCalls)),
	)
	return resp, nil
}

func (g *Gateway) record(provider, outcome string) {
	if g.metrics != nil {
		g.metrics.GatewayRequest(provider, outcome)
	}
}

func outcomeLabel(err error) string {
	switch err.(type) {
	case *errdefs.LLMAuthenticationError:
		return "authentication_error"
	case *errdefs.LLMRateLimitError:
		return "rate_limit_error"
	case *errdefs.LLMConfigurationError:
		return "configuration_error"
	default:
		return "request_error"
	}
}
