// Package metrics defines and registers all custom Prometheus metrics for
// the session gateway. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics register with the default registry via promauto at package load;
// the router exposes them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "session_gateway"

// SignInsTotal counts sign-in and registration attempts.
// Labels:
//   - method: "password", "federated", or "register"
//   - outcome: "ok", "auth_error", "validation_error", or "error"
var SignInsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "signins_total",
		Help:      "Total sign-in and registration attempts, by method and outcome.",
	},
	[]string{"method", "outcome"},
)

// GateDecisionsTotal counts navigation gate evaluations.
// Labels:
//   - route: "anonymous", "authenticated", or "admin"
//   - state: "pending", "allow", "deny_to_login", or "deny_to_forbidden"
var GateDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gate_decisions_total",
		Help:      "Total route gate evaluations, by route kind and decision state.",
	},
	[]string{"route", "state"},
)

// RoleLookupsTotal counts backend role lookups triggered through the
// session endpoints.
// Label:
//   - outcome: "ok" or "error"
var RoleLookupsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "role_lookups_total",
		Help:      "Total directory role lookups, by outcome.",
	},
	[]string{"outcome"},
)

// MembershipUpgradesTotal counts paid upgrade attempts.
// Label:
//   - outcome: "ok" or "error"
var MembershipUpgradesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "membership_upgrades_total",
		Help:      "Total membership upgrade attempts, by outcome.",
	},
	[]string{"outcome"},
)

// ActiveSessions tracks the number of bound session contexts.
var ActiveSessions = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_sessions",
		Help:      "Current number of bound session contexts.",
	},
)
