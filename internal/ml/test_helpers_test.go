package ml

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// MockMetrics implements MetricsInterface for testing
type MockMetrics struct {
	mu               sync.Mutex
	predictions      map[string]int
	invalidInputs    map[string]int
	failures         map[string]int
	unexpectedLabels int
	latencies        []float64
	modelAge         float64
}

func newMockMetrics() *MockMetrics {
	return &MockMetrics{
		predictions:   make(map[string]int),
		invalidInputs: make(map[string]int),
		failures:      make(map[string]int),
	}
}

func (m *MockMetrics) MLPredictionsInc(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.predictions[outcome]++
}

func (m *MockMetrics) MLInvalidInputsInc(field string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invalidInputs[field]++
}

func (m *MockMetrics) MLFailuresInc(stage string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[stage]++
}

func (m *MockMetrics) MLUnexpectedLabelsInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unexpectedLabels++
}

func (m *MockMetrics) MLLatencyObserve(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latencies = append(m.latencies, v)
}

func (m *MockMetrics) MLModelAgeSet(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modelAge = v
}

// recordingScaler returns a fixed transform and remembers every call.
type recordingScaler struct {
	calls [][]float64
	fn    func([]float64) ([]float64, error)
	order *[]string
}

func (s *recordingScaler) Transform(x []float64) ([]float64, error) {
	s.calls = append(s.calls, append([]float64(nil), x...))
	if s.order != nil {
		*s.order = append(*s.order, "transform")
	}
	if s.fn != nil {
		return s.fn(x)
	}
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = v / 100
	}
	return out, nil
}

// recordingClassifier returns label (or err) and remembers every call.
type recordingClassifier struct {
	calls [][]float64
	label string
	err   error
	panic any
	order *[]string
}

func (c *recordingClassifier) Predict(x []float64) (string, error) {
	c.calls = append(c.calls, append([]float64(nil), x...))
	if c.order != nil {
		*c.order = append(*c.order, "predict")
	}
	if c.panic != nil {
		panic(c.panic)
	}
	return c.label, c.err
}

func writeJSON(t *testing.T, dir, name string, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal %s: %v", name, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}
