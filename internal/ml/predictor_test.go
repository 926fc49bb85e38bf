package ml

import (
	"context"
	"errors"
	"testing"

	"quality-predictor/internal/features"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPredictor(t *testing.T, s Scaler, c Classifier, opts ...Option) *Predictor {
	t.Helper()
	a, err := NewArtifacts(s, c)
	require.NoError(t, err)
	p, err := NewPredictor(a, opts...)
	require.NoError(t, err)
	return p
}

func TestPredictor_DefaultsCallTransformThenPredictOnce(t *testing.T) {
	var order []string
	scaler := &recordingScaler{order: &order}
	classifier := &recordingClassifier{label: "Pass", order: &order}
	metrics := newMockMetrics()
	p := newTestPredictor(t, scaler, classifier, WithMetrics(metrics))

	res, err := p.Predict(context.Background(), features.Defaults())
	require.NoError(t, err)

	assert.Equal(t, []string{"transform", "predict"}, order)
	require.Len(t, scaler.calls, 1)
	assert.Equal(t, []float64{55.0, 1.0, 1.5, 10.0, 90.0}, scaler.calls[0])
	require.Len(t, classifier.calls, 1)
	assert.Equal(t, []float64{0.55, 0.01, 0.015, 0.1, 0.9}, classifier.calls[0])

	assert.Equal(t, "Pass", res.Label)
	assert.Equal(t, OutcomePass, res.Outcome)
	assert.True(t, res.Passed())
	assert.True(t, res.Recognized)
	assert.Equal(t, features.Defaults(), res.Features)

	assert.Equal(t, 1, metrics.predictions["pass"])
	assert.Len(t, metrics.latencies, 1)
}

func TestPredictor_ReturnsClassifierLabelUnaltered(t *testing.T) {
	for _, label := range []string{"Pass", "Fail", "pass", "Unknown", ""} {
		t.Run(label, func(t *testing.T) {
			p := newTestPredictor(t, &recordingScaler{}, &recordingClassifier{label: label})

			res, err := p.Predict(context.Background(), features.Defaults())
			require.NoError(t, err)
			assert.Equal(t, label, res.Label)
			if label == "Pass" {
				assert.Equal(t, OutcomePass, res.Outcome)
			} else {
				assert.Equal(t, OutcomeFail, res.Outcome)
			}
		})
	}
}

func TestPredictor_OutOfRangeRejectedBeforeArtifacts(t *testing.T) {
	scaler := &recordingScaler{}
	classifier := &recordingClassifier{label: "Pass"}
	metrics := newMockMetrics()
	p := newTestPredictor(t, scaler, classifier, WithMetrics(metrics))

	fv := features.Defaults()
	fv.Temperature = 200.0

	_, err := p.Predict(context.Background(), fv)

	var invalid *features.InvalidInputError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, features.Temperature, invalid.Field)
	assert.False(t, IsArtifactError(err))
	assert.Empty(t, scaler.calls)
	assert.Empty(t, classifier.calls)
	assert.Equal(t, 1, metrics.invalidInputs["temperature"])
	assert.Empty(t, metrics.latencies)
}

func TestPredictor_ClassifierErrorIsArtifactError(t *testing.T) {
	metrics := newMockMetrics()
	p := newTestPredictor(t, &recordingScaler{}, &recordingClassifier{err: errors.New("shape mismatch")}, WithMetrics(metrics))

	_, err := p.Predict(context.Background(), features.Defaults())

	var ae *ArtifactError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, StagePredict, ae.Stage)
	assert.Contains(t, err.Error(), "shape mismatch")
	assert.Equal(t, 1, metrics.failures["predict"])
	assert.Zero(t, metrics.predictions["pass"]+metrics.predictions["fail"])
}

func TestPredictor_ClassifierPanicIsRecovered(t *testing.T) {
	classifier := &recordingClassifier{panic: "corrupted artifact"}
	p := newTestPredictor(t, &recordingScaler{}, classifier)

	_, err := p.Predict(context.Background(), features.Defaults())
	require.Error(t, err)
	assert.True(t, IsArtifactError(err))
	assert.Contains(t, err.Error(), "corrupted artifact")

	// The predictor keeps serving afterwards.
	classifier.panic = nil
	classifier.label = "Fail"
	res, err := p.Predict(context.Background(), features.Defaults())
	require.NoError(t, err)
	assert.Equal(t, OutcomeFail, res.Outcome)
}

func TestPredictor_ScalerFailures(t *testing.T) {
	tests := []struct {
		name string
		fn   func([]float64) ([]float64, error)
	}{
		{"error", func([]float64) ([]float64, error) { return nil, errors.New("bad scaler") }},
		{"wrong dimension", func([]float64) ([]float64, error) { return []float64{1, 2, 3}, nil }},
		{"panic", func([]float64) ([]float64, error) { panic("index out of range") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classifier := &recordingClassifier{label: "Pass"}
			metrics := newMockMetrics()
			p := newTestPredictor(t, &recordingScaler{fn: tt.fn}, classifier, WithMetrics(metrics))

			_, err := p.Predict(context.Background(), features.Defaults())

			var ae *ArtifactError
			require.ErrorAs(t, err, &ae)
			assert.Equal(t, StageTransform, ae.Stage)
			assert.Empty(t, classifier.calls)
			assert.Equal(t, 1, metrics.failures["transform"])
		})
	}
}

func TestPredictor_UnexpectedLabel(t *testing.T) {
	t.Run("lenient maps to fail", func(t *testing.T) {
		metrics := newMockMetrics()
		p := newTestPredictor(t, &recordingScaler{}, &recordingClassifier{label: "1"}, WithMetrics(metrics))

		res, err := p.Predict(context.Background(), features.Defaults())
		require.NoError(t, err)
		assert.Equal(t, OutcomeFail, res.Outcome)
		assert.False(t, res.Recognized)
		assert.Equal(t, 1, metrics.unexpectedLabels)
		assert.Equal(t, 1, metrics.predictions["fail"])
	})

	t.Run("strict rejects", func(t *testing.T) {
		metrics := newMockMetrics()
		p := newTestPredictor(t, &recordingScaler{}, &recordingClassifier{label: "1"},
			WithMetrics(metrics), WithStrictLabels(true))

		_, err := p.Predict(context.Background(), features.Defaults())
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnexpectedLabel))
		assert.True(t, IsArtifactError(err))
		assert.Equal(t, 1, metrics.unexpectedLabels)
		assert.Equal(t, 1, metrics.failures["predict"])
	})

	t.Run("strict still accepts Fail", func(t *testing.T) {
		p := newTestPredictor(t, &recordingScaler{}, &recordingClassifier{label: "Fail"}, WithStrictLabels(true))

		res, err := p.Predict(context.Background(), features.Defaults())
		require.NoError(t, err)
		assert.Equal(t, OutcomeFail, res.Outcome)
	})
}

func TestPredictor_Deterministic(t *testing.T) {
	scaler, err := NewStandardScaler([]float64{80, 5, 2.5, 100, 70}, []float64{10, 3, 0.5, 80, 15})
	require.NoError(t, err)
	classifier, err := NewLogisticClassifier([]string{"Fail", "Pass"}, []float64{-1.2, -0.8, 0.1, 0.05, 1.5}, 0.3)
	require.NoError(t, err)
	p := newTestPredictor(t, scaler, classifier)

	fv := features.Vector{Temperature: 70, Vibration: 2, Pressure: 2.2, FlowRate: 150, Efficiency: 88}
	first, err := p.Predict(context.Background(), fv)
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		res, err := p.Predict(context.Background(), fv)
		require.NoError(t, err)
		assert.Equal(t, first, res)
	}
}

func TestPredictor_CanceledContext(t *testing.T) {
	scaler := &recordingScaler{}
	p := newTestPredictor(t, scaler, &recordingClassifier{label: "Pass"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Predict(ctx, features.Defaults())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, scaler.calls)
}

func TestPredictor_Health(t *testing.T) {
	classifier := &recordingClassifier{label: "Pass"}
	p := newTestPredictor(t, &recordingScaler{}, classifier)

	_, err := p.Predict(context.Background(), features.Defaults())
	require.NoError(t, err)

	classifier.err = errors.New("boom")
	_, err = p.Predict(context.Background(), features.Defaults())
	require.Error(t, err)

	// Rejected input is not counted.
	bad := features.Defaults()
	bad.Pressure = 0
	_, err = p.Predict(context.Background(), bad)
	require.Error(t, err)

	h := p.Health()
	assert.True(t, h.Healthy)
	assert.Equal(t, int64(2), h.PredictionCount)
	assert.Equal(t, int64(1), h.ErrorCount)
	assert.InDelta(t, 0.5, h.ErrorRate, 1e-9)
	assert.Contains(t, h.LastError, "boom")
	assert.Equal(t, "custom", h.ModelFormat)
}

func TestMapLabel(t *testing.T) {
	tests := []struct {
		label      string
		outcome    Outcome
		recognized bool
	}{
		{"Pass", OutcomePass, true},
		{"Fail", OutcomeFail, true},
		{"PASS", OutcomeFail, false},
		{" Pass", OutcomeFail, false},
		{"", OutcomeFail, false},
	}
	for _, tt := range tests {
		outcome, recognized := MapLabel(tt.label)
		assert.Equal(t, tt.outcome, outcome, "label %q", tt.label)
		assert.Equal(t, tt.recognized, recognized, "label %q", tt.label)
	}
	assert.Equal(t, "Pass", OutcomePass.Text())
	assert.Equal(t, "Fail", OutcomeFail.Text())
}

func TestNewPredictor_RequiresArtifacts(t *testing.T) {
	_, err := NewPredictor(nil)
	assert.Error(t, err)

	_, err = NewArtifacts(nil, &recordingClassifier{})
	assert.Error(t, err)
}
