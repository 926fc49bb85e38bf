package ml

import (
	"sync"
	"time"
)

// HealthStatus summarizes the predictor for the health endpoint.
type HealthStatus struct {
	Healthy         bool      `json:"healthy"`
	ModelFormat     string    `json:"model_format"`
	LoadedAt        time.Time `json:"loaded_at"`
	ModelAgeSeconds float64   `json:"model_age_seconds"`
	PredictionCount int64     `json:"prediction_count"`
	ErrorCount      int64     `json:"error_count"`
	ErrorRate       float64   `json:"error_rate"`
	AverageLatency  float64   `json:"average_latency_ms"`
	LastError       string    `json:"last_error,omitempty"`
	UptimeSeconds   float64   `json:"uptime_seconds"`
}

// PerformanceStats counts calls that reached the artifacts. Rejected input
// never gets this far.
type PerformanceStats struct {
	mu           sync.RWMutex
	predictions  int64
	errors       int64
	totalLatency time.Duration
	lastError    string
	startTime    time.Time
}

func newPerformanceStats() *PerformanceStats {
	return &PerformanceStats{startTime: time.Now()}
}

func (ps *PerformanceStats) record(latency time.Duration, err error) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	ps.predictions++
	ps.totalLatency += latency
	if err != nil {
		ps.errors++
		ps.lastError = err.Error()
	}
}

// Health reports the predictor's status. The predictor stays healthy after
// individual artifact failures; each request fails on its own.
func (p *Predictor) Health() HealthStatus {
	p.stats.mu.RLock()
	defer p.stats.mu.RUnlock()

	info := p.artifacts.Info()
	status := HealthStatus{
		Healthy:         true,
		ModelFormat:     info.ModelFormat,
		LoadedAt:        info.LoadedAt,
		ModelAgeSeconds: p.artifacts.ModelAge().Seconds(),
		PredictionCount: p.stats.predictions,
		ErrorCount:      p.stats.errors,
		LastError:       p.stats.lastError,
		UptimeSeconds:   time.Since(p.stats.startTime).Seconds(),
	}
	if p.stats.predictions > 0 {
		status.ErrorRate = float64(p.stats.errors) / float64(p.stats.predictions)
		status.AverageLatency = float64(p.stats.totalLatency.Microseconds()) / 1000 / float64(p.stats.predictions)
	}
	return status
}
