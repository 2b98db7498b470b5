// Package metrics holds the Prometheus collectors for the MyFxBook sync subsystem.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "pipaura"

// BrokerRequests counts MyFxBook API calls by endpoint and outcome (ok, http_error, transport_error, session_invalid)
var BrokerRequests = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "myfxbook",
		Name:      "requests_total",
		Help:      "Total number of MyFxBook API requests",
	},
	[]string{"endpoint", "outcome"},
)

// BrokerRequestDuration observes MyFxBook API latency in seconds
var BrokerRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "myfxbook",
		Name:      "request_duration_seconds",
		Help:      "MyFxBook API request latency in seconds",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	},
	[]string{"endpoint"},
)

// SessionRefreshes counts broker re-logins by reason (expired, invalid)
var SessionRefreshes = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sync",
		Name:      "session_refreshes_total",
		Help:      "Total number of MyFxBook session refreshes",
	},
	[]string{"reason"},
)

// TradesImported counts newly inserted trades
var TradesImported = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sync",
		Name:      "trades_imported_total",
		Help:      "Total number of trades imported from MyFxBook",
	},
)

// SubAccountFailures counts sub-accounts skipped because of an error
var SubAccountFailures = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sync",
		Name:      "sub_account_failures_total",
		Help:      "Total number of sub-account syncs that failed",
	},
)

// UserSyncs counts user syncs by trigger (user, sweep) and outcome (success, error)
var UserSyncs = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sync",
		Name:      "user_syncs_total",
		Help:      "Total number of user syncs",
	},
	[]string{"trigger", "outcome"},
)

// SweepDuration observes how long a global sweep takes
var SweepDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "sweep",
		Name:      "duration_seconds",
		Help:      "Duration of a global MyFxBook sweep in seconds",
		Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
	},
)

// SweepLastSuccess is the unix time of the last completed sweep
var SweepLastSuccess = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "sweep",
		Name:      "last_completed_timestamp_seconds",
		Help:      "Unix timestamp of the last completed sweep",
	},
)
