// Package metrics defines and registers all custom Prometheus metrics for the
// gym identity service. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry on import.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "identity"

// ── Login metrics ─────────────────────────────────────────────────────────────

// LoginAttemptsTotal counts login attempts by outcome.
// Labels:
//   - role: the role selected when the attempt was made ("ADMIN" or "USER")
//   - outcome: "success", "needs_name", "bad_credential", "already_authenticated", "login_pending"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts, by selected role and outcome.",
	},
	[]string{"role", "outcome"},
)

// CredentialVerifyDuration measures admin password digest computation.
var CredentialVerifyDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "credential_verify_duration_seconds",
		Help:      "Duration of admin credential digest and comparison.",
		Buckets:   []float64{.0001, .0005, .001, .005, .01, .05},
	},
)

// ── Session metrics ───────────────────────────────────────────────────────────

// LogoutsTotal counts logout requests.
// Label:
//   - result: "confirmed", "declined" or "ignored" (nobody logged in)
var LogoutsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logouts_total",
		Help:      "Total number of logout requests, by confirmation result.",
	},
	[]string{"result"},
)

// SessionRestoresTotal counts startup session restore attempts.
// Label:
//   - result: "restored" or "absent"
var SessionRestoresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_restores_total",
		Help:      "Total number of session restore attempts, by result.",
	},
	[]string{"result"},
)

// SessionStoreErrorsTotal counts swallowed session store failures.
// Label:
//   - op: "encode", "save", "load", "clear" or "decode"
var SessionStoreErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_store_errors_total",
		Help:      "Total number of session store failures that were degraded silently.",
	},
	[]string{"op"},
)

// ── Activity metrics ──────────────────────────────────────────────────────────

// ActivityQueueDepth tracks the number of activity records waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var ActivityQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "activity_queue_depth",
		Help:      "Current number of activity records pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// ActivityErrorsTotal counts activity records the sink failed to store.
var ActivityErrorsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "activity_errors_total",
		Help:      "Total number of activity records that failed to persist.",
	},
)
