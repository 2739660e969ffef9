package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OptimizationRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lineup_optimization_runs_total",
			Help: "Total number of completed optimization runs",
		},
		[]string{"provider", "sport"},
	)

	OptimizationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lineup_optimization_failures_total",
			Help: "Total number of failed optimization runs",
		},
		[]string{"provider", "sport", "error_code"},
	)

	OptimizationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lineup_optimization_duration_seconds",
			Help:    "Duration of optimization runs in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 9),
		},
		[]string{"provider", "sport"},
	)

	LineupsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lineup_lineups_generated_total",
			Help: "Total number of lineups generated",
		},
		[]string{"provider", "sport"},
	)

	SearchPasses = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lineup_search_passes",
			Help:    "Local search passes needed to bring a lineup under budget",
			Buckets: []float64{0, 1, 2, 4, 8, 16, 32, 64, 128},
		},
		[]string{"provider", "sport"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lineup_cache_lookups_total",
			Help: "Optimization result cache lookups by outcome",
		},
		[]string{"result"},
	)

	WebSocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lineup_websocket_clients",
			Help: "Number of connected websocket clients",
		},
	)
)

// ObserveLineup records one generated lineup and the passes it took.
func ObserveLineup(provider, sport string, passes int) {
	LineupsGenerated.WithLabelValues(provider, sport).Inc()
	SearchPasses.WithLabelValues(provider, sport).Observe(float64(passes))
}
