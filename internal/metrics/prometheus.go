package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Annotation quality: values outside the known vocabulary that were
	// replaced by defaults. A steady rate points at an upstream data problem.
	ImpactUnrecognized = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventcast_impact_unrecognized_total",
			Help: "Impact annotations that fell back to a default value",
		},
		[]string{"field"}, // field: magnitude|direction|lag
	)

	// Forecast runs
	Forecasts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventcast_forecasts_total",
			Help: "Total number of forecast computations",
		},
		[]string{"kind", "status"}, // kind: trend|augmented|scenario|reconstruct|matrix, status: success|error
	)

	ForecastDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "eventcast_forecast_duration_seconds",
			Help:    "Forecast computation duration in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"kind"},
	)

	SparseSeries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "eventcast_sparse_series_total",
			Help: "Trend fits that fell back to a flat line (fewer than two observations)",
		},
	)
)

var registerOnce sync.Once

// Register registers all collectors with the default registry. Safe to call repeatedly.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			ImpactUnrecognized,
			Forecasts,
			ForecastDuration,
			SparseSeries,
		)
	})
}

// Handler returns the HTTP handler serving the registry
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordUnrecognized counts one defaulted annotation field
func RecordUnrecognized(field string) {
	ImpactUnrecognized.WithLabelValues(field).Inc()
}

// ObserveForecast records the outcome and duration of one computation
func ObserveForecast(kind string, started time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	Forecasts.WithLabelValues(kind, status).Inc()
	ForecastDuration.WithLabelValues(kind).Observe(time.Since(started).Seconds())
}
