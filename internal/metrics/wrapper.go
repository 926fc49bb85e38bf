package metrics

import (
	"strconv"
	"time"
)

// MetricsWrapper adapts Metrics to the narrow interfaces the predictor and
// the web server depend on, so neither imports Prometheus directly.
type MetricsWrapper struct {
	m *Metrics
}

func NewWrapper(m *Metrics) *MetricsWrapper {
	return &MetricsWrapper{m: m}
}

func (w *MetricsWrapper) MLPredictionsInc(outcome string) {
	w.m.MLPredictions.WithLabelValues(outcome).Inc()
}

func (w *MetricsWrapper) MLInvalidInputsInc(field string) {
	w.m.MLInvalidInputs.WithLabelValues(field).Inc()
}

func (w *MetricsWrapper) MLFailuresInc(stage string) {
	w.m.MLFailures.WithLabelValues(stage).Inc()
}

func (w *MetricsWrapper) MLUnexpectedLabelsInc() {
	w.m.MLUnexpectedLabels.Inc()
}

func (w *MetricsWrapper) MLLatencyObserve(v float64) {
	w.m.MLLatency.Observe(v)
}

func (w *MetricsWrapper) MLModelAgeSet(v float64) {
	w.m.MLModelAge.Set(v)
}

// ObserveRequest records one served HTTP request.
func (w *MetricsWrapper) ObserveRequest(route string, code int, d time.Duration) {
	w.m.HTTPRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	w.m.HTTPDuration.WithLabelValues(route).Observe(d.Seconds())
	if code >= 500 {
		w.m.ErrorsTotal.Inc()
	}
}
