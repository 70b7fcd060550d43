package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Rollover related metrics
	RolloverRuns     prometheus.Counter
	RolloverFailures prometheus.Counter
	RolloverDuration prometheus.Histogram

	// Snapshot persistence metrics
	SnapshotSaves    *prometheus.CounterVec
	SnapshotLoads    *prometheus.CounterVec
	SnapshotLatency  prometheus.Histogram
	SnapshotRetries  prometheus.Counter
	MedicationsTotal prometheus.Gauge
}

// NewMetrics creates and registers all application metrics
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		RolloverRuns: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rollover_runs_total",
			Help:      "Total number of midnight rollover sweeps executed",
		}),
		RolloverFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rollover_failures_total",
			Help:      "Total number of rollover sweeps that failed to persist",
		}),
		RolloverDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rollover_duration_seconds",
			Help:      "Time spent applying a rollover sweep",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
		SnapshotSaves: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_saves_total",
			Help:      "Total number of snapshot writes to the durable store",
		}, []string{"status"}),
		SnapshotLoads: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_loads_total",
			Help:      "Total number of snapshot reads from the durable store",
		}, []string{"status"}),
		SnapshotLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "snapshot_write_duration_seconds",
			Help:      "Duration of snapshot writes",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5},
		}),
		SnapshotRetries: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_retry_attempts_total",
			Help:      "Total number of deferred snapshot writes retried after a failure",
		}),
		MedicationsTotal: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "medications_total",
			Help:      "Current number of medication records in the store",
		}),
	}
}
