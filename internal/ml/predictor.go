package ml

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"quality-predictor/internal/common"
	"quality-predictor/internal/features"

	"github.com/rs/zerolog/log"
)

// MetricsInterface defines metrics methods needed by the predictor
type MetricsInterface interface {
	MLPredictionsInc(outcome string)
	MLInvalidInputsInc(field string)
	MLFailuresInc(stage string)
	MLUnexpectedLabelsInc()
	MLLatencyObserve(float64)
	MLModelAgeSet(float64)
}

// Outcome is the display mapping of a classifier label.
type Outcome string

const (
	OutcomePass Outcome = "pass"
	OutcomeFail Outcome = "fail"
)

// Text returns the label shown to the user.
func (o Outcome) Text() string {
	if o == OutcomePass {
		return common.LabelPass
	}
	return common.LabelFail
}

// MapLabel maps a raw classifier label to an outcome. Only the exact label
// "Pass" passes; every other label, including ones the classifier should
// never produce, fails. recognized is false for labels outside {Pass, Fail}.
func MapLabel(label string) (outcome Outcome, recognized bool) {
	switch label {
	case common.LabelPass:
		return OutcomePass, true
	case common.LabelFail:
		return OutcomeFail, true
	default:
		return OutcomeFail, false
	}
}

// Result is one prediction, kept only long enough to be rendered.
type Result struct {
	Features   features.Vector `json:"features"`
	Label      string          `json:"label"`
	Outcome    Outcome         `json:"outcome"`
	Recognized bool            `json:"recognized"`
}

func (r Result) Passed() bool {
	return r.Outcome == OutcomePass
}

// Predictor validates a feature vector, scales it, classifies it, and maps
// the label to an outcome. Predictions run one at a time.
type Predictor struct {
	mu           sync.Mutex
	artifacts    *Artifacts
	metrics      MetricsInterface
	strictLabels bool
	stats        *PerformanceStats
}

// Option configures a Predictor.
type Option func(*Predictor)

// WithMetrics reports predictions to m.
func WithMetrics(m MetricsInterface) Option {
	return func(p *Predictor) { p.metrics = m }
}

// WithStrictLabels rejects classifier labels other than Pass and Fail with
// an ArtifactError instead of mapping them to Fail.
func WithStrictLabels(strict bool) Option {
	return func(p *Predictor) { p.strictLabels = strict }
}

func NewPredictor(artifacts *Artifacts, opts ...Option) (*Predictor, error) {
	if artifacts == nil {
		return nil, errors.New("artifacts are required")
	}
	p := &Predictor{
		artifacts: artifacts,
		stats:     newPerformanceStats(),
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.metrics != nil {
		if age := artifacts.ModelAge(); age > 0 {
			p.metrics.MLModelAgeSet(age.Seconds())
		}
	}
	return p, nil
}

// Predict runs one prediction. An out-of-range vector is rejected with a
// *features.InvalidInputError before any artifact is called. A failure in
// either artifact, including a panic, is returned as an *ArtifactError.
func (p *Predictor) Predict(ctx context.Context, fv features.Vector) (Result, error) {
	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	default:
	}

	if err := fv.Validate(); err != nil {
		var invalid *features.InvalidInputError
		if p.metrics != nil && errors.As(err, &invalid) {
			p.metrics.MLInvalidInputsInc(invalid.Field.String())
		}
		log.Debug().Err(err).Interface("features", fv).Msg("rejected invalid input")
		return Result{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	start := time.Now()
	res, err := p.predictInternal(fv)
	elapsed := time.Since(start)

	if p.metrics != nil {
		p.metrics.MLLatencyObserve(elapsed.Seconds())
	}
	p.stats.record(elapsed, err)

	if err != nil {
		var ae *ArtifactError
		if p.metrics != nil && errors.As(err, &ae) {
			p.metrics.MLFailuresInc(string(ae.Stage))
		}
		log.Error().
			Err(err).
			Interface("features", fv).
			Dur("latency", elapsed).
			Msg("prediction failed")
		return Result{}, err
	}

	if p.metrics != nil {
		p.metrics.MLPredictionsInc(string(res.Outcome))
	}
	log.Debug().
		Interface("features", fv).
		Str("label", res.Label).
		Str("outcome", string(res.Outcome)).
		Dur("latency", elapsed).
		Msg("prediction successful")

	return res, nil
}

func (p *Predictor) predictInternal(fv features.Vector) (Result, error) {
	scaled, err := safeTransform(p.artifacts.Scaler(), fv.Values())
	if err != nil {
		return Result{}, &ArtifactError{Stage: StageTransform, Err: err}
	}
	if len(scaled) != features.NumFields {
		return Result{}, &ArtifactError{
			Stage: StageTransform,
			Err:   &features.DimensionError{Want: features.NumFields, Got: len(scaled)},
		}
	}

	label, err := safePredict(p.artifacts.Classifier(), scaled)
	if err != nil {
		return Result{}, &ArtifactError{Stage: StagePredict, Err: err}
	}

	outcome, recognized := MapLabel(label)
	if !recognized {
		if p.metrics != nil {
			p.metrics.MLUnexpectedLabelsInc()
		}
		if p.strictLabels {
			return Result{}, &ArtifactError{
				Stage: StagePredict,
				Err:   fmt.Errorf("%w %q", ErrUnexpectedLabel, label),
			}
		}
		log.Warn().Str("label", label).Msg("classifier returned unexpected label, treating as Fail")
	}

	return Result{
		Features:   fv,
		Label:      label,
		Outcome:    outcome,
		Recognized: recognized,
	}, nil
}

// Info describes the loaded artifacts.
func (p *Predictor) Info() ArtifactInfo {
	return p.artifacts.Info()
}

func safeTransform(s Scaler, x []float64) (out []float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scaler panicked: %v", r)
		}
	}()
	return s.Transform(x)
}

func safePredict(c Classifier, x []float64) (label string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("classifier panicked: %v", r)
		}
	}()
	return c.Predict(x)
}
