// Package metrics defines and registers the custom Prometheus metrics of the
// identity service. It is the single source of truth for metric names, labels
// and help strings. Metrics register with the default registry on import.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "identity"

// ── Authentication ───────────────────────────────────────────────────────────

// LoginsTotal counts interactive login attempts.
// Labels:
//   - method: "password", "register" or "google"
//   - result: "success" or the failure reason (e.g. "invalid_credentials", "throttled")
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by method and result.",
	},
	[]string{"method", "result"},
)

// GatewayRejectionsTotal counts requests refused by the auth gateway.
// Label:
//   - reason: "token_missing", "token_invalid", "user_not_found", "forbidden"
var GatewayRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gateway_rejections_total",
		Help:      "Total number of requests rejected by the auth gateway.",
	},
	[]string{"reason"},
)

// GatewayDuration measures token verification plus user resolution.
var GatewayDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "gateway_duration_seconds",
		Help:      "Duration of bearer token verification and user lookup.",
		Buckets:   prometheus.DefBuckets,
	},
)

// ── Audit trail ──────────────────────────────────────────────────────────────

// AuthEventsTotal counts audit events by processing outcome.
// Label:
//   - result: "stored", "failed" or "dropped" (queue full)
var AuthEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_events_total",
		Help:      "Total number of audit events, by processing result.",
	},
	[]string{"result"},
)

// AuthEventsQueueDepth tracks pending audit events per dispatcher worker.
var AuthEventsQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "auth_events_queue_depth",
		Help:      "Current number of audit events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)
