package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const prefix = "mcstatusbot"

var (
	// Status API metrics
	StatusFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_status_fetch_total",
			Help: "Total number of status API fetches by result",
		},
		[]string{"result"},
	)

	StatusFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    prefix + "_status_fetch_duration_seconds",
			Help:    "Duration of status API fetches in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Status card metrics
	CardReconcileTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_card_reconcile_total",
			Help: "Total number of status card reconciliations by action taken",
		},
		[]string{"action"},
	)

	// Command metrics
	CommandTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_command_total",
			Help: "Total number of slash commands by outcome",
		},
		[]string{"command", "outcome"},
	)
)

// ObserveFetch records the result and duration of one status fetch
func ObserveFetch(err error, elapsed time.Duration) {
	result := "online"
	if err != nil {
		result = "unreachable"
	}
	StatusFetchTotal.WithLabelValues(result).Inc()
	StatusFetchDuration.Observe(elapsed.Seconds())
}

// RecordReconcile counts one reconciliation outcome
func RecordReconcile(action string) {
	CardReconcileTotal.WithLabelValues(action).Inc()
}

// RecordCommand counts one command invocation by the dispatcher's verdict
// ("ok", "denied", "not_manager", ...)
func RecordCommand(command, outcome string) {
	CommandTotal.WithLabelValues(command, outcome).Inc()
}
