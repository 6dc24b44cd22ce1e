package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Pregel Engine Metrics
// =============================================================================

var (
	// PregelRunsTotal counts completed runs by terminal status
	PregelRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trellis_pregel_runs_total",
			Help: "Total number of Pregel runs by terminal status",
		},
		[]string{"status"}, // "halted", "max_iterations", "aborted"
	)

	// PregelSuperstepsTotal counts executed supersteps across all runs
	PregelSuperstepsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trellis_pregel_supersteps_total",
			Help: "Total number of executed supersteps",
		},
	)

	// PregelMessagesSentTotal counts messages queued for delivery
	PregelMessagesSentTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trellis_pregel_messages_sent_total",
			Help: "Total number of messages sent between nodes",
		},
	)

	// PregelSuperstepDurationSeconds measures per-superstep wall time
	PregelSuperstepDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "trellis_pregel_superstep_duration_seconds",
			Help:    "Duration of individual supersteps",
			Buckets: prometheus.DefBuckets,
		},
	)
)
