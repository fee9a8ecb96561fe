// Package metrics exposes Prometheus counters for agent runs, task
// executions, and gateway requests.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the process-wide counters.
type Metrics struct {
	registry        *prometheus.Registry
	tasksExecuted   *prometheus.CounterVec
	agentRuns       *prometheus.CounterVec
	gatewayRequests *prometheus.CounterVec
}

// New creates and registers the counters on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: registry,
		tasksExecuted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentctl_tasks_executed_total",
				Help: "Task executions by type and result status",
			},
			[]string{"type", "status"},
		),
		agentRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentctl_agent_runs_total",
				Help: "Agent runs by aggregate status",
			},
			[]string{"status"},
		),
		gatewayRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentctl_gateway_requests_total",
				Help: "LLM gateway requests by provider and outcome",
			},
			[]string{"provider", "outcome"},
		),
	}

	registry.MustRegister(m.tasksExecuted, m.agentRuns, m.gatewayRequests)
	return m
}

// TaskExecuted records one task execution outcome
func (m *Metrics) TaskExecuted(taskType, status string) {
	m.tasksExecuted.WithLabelValues(taskType, status).Inc()
}

// AgentRun records one completed agent run
func (m *Metrics) AgentRun(status string) {
	m.agentRuns.WithLabelValues(status).Inc()
}

// GatewayRequest records one gateway call outcome
func (m *Metrics) GatewayRequest(provider, outcome string) {
	m.gatewayRequests.WithLabelValues(provider, outcome).Inc()
}

// Handler returns an HTTP handler serving the metrics in Prometheus
// exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
