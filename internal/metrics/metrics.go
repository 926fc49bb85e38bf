// Package metrics provides Prometheus metrics collection for the quality
// prediction service. It defines the prediction, validation and HTTP metrics
// exposed via the Prometheus metrics endpoint for monitoring and alerting.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Prediction metrics
	MLPredictions      *prometheus.CounterVec // Predictions completed, by outcome
	MLInvalidInputs    *prometheus.CounterVec // Submissions rejected before the artifacts, by field
	MLFailures         *prometheus.CounterVec // Artifact failures, by stage
	MLUnexpectedLabels prometheus.Counter     // Classifier labels outside {Pass, Fail}
	MLLatency          prometheus.Histogram   // Transform + predict latency in seconds
	MLModelAge         prometheus.Gauge       // Age of the loaded model file in seconds

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec   // Requests served, by route and status code
	HTTPDuration *prometheus.HistogramVec // Request duration, by route

	// System metrics
	ErrorsTotal prometheus.Counter // Total number of errors encountered
}

// New creates and registers all Prometheus metrics using the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry (useful for testing).
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		MLPredictions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ml_predictions_total",
			Help: "Total number of quality predictions made, by outcome",
		}, []string{"outcome"}),
		MLInvalidInputs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ml_invalid_inputs_total",
			Help: "Total number of submissions rejected by range validation, by field",
		}, []string{"field"}),
		MLFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ml_failures_total",
			Help: "Total number of scaler or classifier failures, by stage",
		}, []string{"stage"}),
		MLUnexpectedLabels: factory.NewCounter(prometheus.CounterOpts{
			Name: "ml_unexpected_labels_total",
			Help: "Total number of classifier labels other than Pass or Fail",
		}),
		MLLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ml_latency_seconds",
			Help:    "Scaler and classifier latency in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}),
		MLModelAge: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ml_model_age_seconds",
			Help: "Age of the loaded model artifact in seconds",
		}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests served",
		}, []string{"route", "code"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		ErrorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors encountered",
		}),
	}
}
