// Package metrics defines and registers all custom Prometheus metrics for
// appsec-gateway. It is the single source of truth for metric names, labels,
// and help strings. Metrics register themselves with the default registry at
// init via promauto; the gateway exposes them on the configured path.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "appsec"

// SessionsActive tracks the number of live agent sessions in the registry.
var SessionsActive = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "sessions_active",
		Help:      "Current number of live per-user agent sessions.",
	},
)

// SessionsCreatedTotal counts session creations.
var SessionsCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_created_total",
		Help:      "Total number of agent sessions created.",
	},
)

// AgentInvocationsTotal counts agent invocations by capability role.
// Label:
//   - role: capability used for the invocation (e.g. "simple_query_agent")
var AgentInvocationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "agent_invocations_total",
		Help:      "Total number of analysis agent invocations, by role.",
	},
	[]string{"role"},
)

// AgentErrorsTotal counts failed agent invocations.
// Label:
//   - reason: short failure description (e.g. "empty_response", "run_failed")
var AgentErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "agent_errors_total",
		Help:      "Total number of failed analysis agent invocations.",
	},
	[]string{"reason"},
)

// AuthFailuresTotal counts authentication failures.
// Label:
//   - reason: "invalid_credentials", "missing_token", or "invalid_token"
var AuthFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_failures_total",
		Help:      "Total number of failed authentication attempts.",
	},
	[]string{"reason"},
)

// LoginsTotal counts successful logins.
var LoginsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of successful logins.",
	},
)
