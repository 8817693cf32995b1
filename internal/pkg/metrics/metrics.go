// Package metrics defines and registers all custom Prometheus metrics for the
// clipcoins API. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default Prometheus registry at package
// init through promauto and exposed by the router at GET /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "clipcoins"

// ── Session metrics ───────────────────────────────────────────────────────────

// LoginsTotal counts login requests.
// Label:
//   - outcome: "accepted" or "not_found"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login requests, by outcome.",
	},
	[]string{"outcome"},
)

// VerificationsTotal counts credential verification attempts.
// Label:
//   - outcome: "issued", "unauthorized" or "expired"
var VerificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "verifications_total",
		Help:      "Total number of credential verifications, by outcome.",
	},
	[]string{"outcome"},
)

// CredentialRotationsTotal counts credential regenerations.
// Label:
//   - reason: "login" (requested by the user) or "stale" (stale credential presented)
var CredentialRotationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "credential_rotations_total",
		Help:      "Total number of rotating credential regenerations, by reason.",
	},
	[]string{"reason"},
)

// IdentityUpdatesTotal counts merge-update attempts.
// Label:
//   - result: "applied" or the rejection kind ("invalid_field", "no_change", "invalid_role", "empty")
var IdentityUpdatesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "identity_updates_total",
		Help:      "Total number of identity merge-updates, by result.",
	},
	[]string{"result"},
)

// ── Delivery metrics ──────────────────────────────────────────────────────────

// DeliveriesTotal counts out-of-band credential deliveries.
// Label:
//   - result: "sent", "duplicate" or "failed"
var DeliveriesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "credential_deliveries_total",
		Help:      "Total number of credential deliveries handed to the Telegram outbox, by result.",
	},
	[]string{"result"},
)

// DeliveryQueueDepth tracks the number of deliveries waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var DeliveryQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "delivery_queue_depth",
		Help:      "Current number of deliveries pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// DeliveryDuration measures how long a single delivery takes to reach the outbox.
var DeliveryDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "credential_delivery_duration_seconds",
		Help:      "Duration of a credential delivery from dequeue to outbox write.",
		Buckets:   prometheus.DefBuckets,
	},
)

// ── Post metrics ──────────────────────────────────────────────────────────────

// PostsCreatedTotal counts newly created posts.
var PostsCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "posts_created_total",
		Help:      "Total number of posts created.",
	},
)
