// Package prometheus defines the enrichment engine's metric surface.
package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every collector the application emits.  Label cardinality is
// kept deliberately small: kind is one of {classification, risk_assessment},
// status one of {success, error, duplicate}.
type Metrics struct {
	RequestsTotal    *prometheus.CounterVec
	RetriesTotal     *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	BatchSize        *prometheus.HistogramVec
	BatchItemsFailed *prometheus.CounterVec
}

// NewMetrics registers all collectors on reg and returns the handle.  Pass
// prometheus.DefaultRegisterer in production and a fresh registry in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "promptdeck",
			Subsystem: "enrichment",
			Name:      "requests_total",
			Help:      "Enrichment operations by kind and outcome.",
		}, []string{"kind", "status"}),

		RetriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "promptdeck",
			Subsystem: "enrichment",
			Name:      "retries_total",
			Help:      "Model call retries by kind.",
		}, []string{"kind"}),

		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "promptdeck",
			Subsystem: "enrichment",
			Name:      "request_duration_seconds",
			Help:      "End-to-end duration of one enrichment operation.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"kind"}),

		BatchSize: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "promptdeck",
			Subsystem: "enrichment",
			Name:      "batch_size",
			Help:      "Number of items per submitted batch.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100},
		}, []string{"kind"}),

		BatchItemsFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "promptdeck",
			Subsystem: "enrichment",
			Name:      "batch_items_failed_total",
			Help:      "Batch items that returned a per-item failure.",
		}, []string{"kind"}),
	}
}
