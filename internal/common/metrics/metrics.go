// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CalculationsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_calculations_completed_total",
			Help: "Total number of completed calculations by operation",
		},
		[]string{"operation"},
	)

	CalculationsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_calculations_failed_total",
			Help: "Total number of failed calculations by operation",
		},
		[]string{"operation", "error_code"},
	)

	CalculationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "engine_calculation_duration_seconds",
			Help: "Duration of calculation processing in seconds",
		},
		[]string{"operation"},
	)

	ScenarioRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_scenario_runs_total",
			Help: "Total sensitivity scenario runs, labelled by whether the ranking changed",
		},
		[]string{"ranking_changed"},
	)

	DashboardCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_dashboard_cache_total",
			Help: "Dashboard aggregate cache lookups by result",
		},
		[]string{"result"},
	)
)
