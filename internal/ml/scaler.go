package ml

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// ScalerFile is the JSON export of a fitted scikit-learn scaler.
type ScalerFile struct {
	Kind         string     `json:"kind"` // "standard" or "minmax"
	FeatureNames []string   `json:"feature_names,omitempty"`
	Mean         []float64  `json:"mean,omitempty"`
	Scale        []float64  `json:"scale,omitempty"`
	DataMin      []float64  `json:"data_min,omitempty"`
	DataMax      []float64  `json:"data_max,omitempty"`
	FeatureRange [2]float64 `json:"feature_range,omitempty"`
}

// StandardScaler computes (x - mean) / scale per column.
type StandardScaler struct {
	mean  []float64
	scale []float64
}

// NewStandardScaler validates the fitted parameters. A zero scale is
// treated as 1, matching scikit-learn's handling of constant columns.
func NewStandardScaler(mean, scale []float64) (*StandardScaler, error) {
	if len(mean) == 0 || len(mean) != len(scale) {
		return nil, fmt.Errorf("standard scaler: mean has %d values, scale has %d", len(mean), len(scale))
	}
	s := &StandardScaler{
		mean:  append([]float64(nil), mean...),
		scale: make([]float64, len(scale)),
	}
	for i, v := range scale {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("standard scaler: scale[%d] is not finite", i)
		}
		if v == 0 {
			v = 1
		}
		s.scale[i] = v
	}
	return s, nil
}

func (s *StandardScaler) Transform(x []float64) ([]float64, error) {
	if len(x) != len(s.mean) {
		return nil, fmt.Errorf("scaler was fitted on %d features, got %d", len(s.mean), len(x))
	}
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = (v - s.mean[i]) / s.scale[i]
	}
	return out, nil
}

// MinMaxScaler maps [data_min, data_max] onto feature_range per column.
type MinMaxScaler struct {
	min   []float64
	scale []float64
}

func NewMinMaxScaler(dataMin, dataMax []float64, featureRange [2]float64) (*MinMaxScaler, error) {
	if len(dataMin) == 0 || len(dataMin) != len(dataMax) {
		return nil, fmt.Errorf("minmax scaler: data_min has %d values, data_max has %d", len(dataMin), len(dataMax))
	}
	if featureRange == [2]float64{} {
		featureRange = [2]float64{0, 1}
	}
	if featureRange[0] >= featureRange[1] {
		return nil, fmt.Errorf("minmax scaler: invalid feature_range %v", featureRange)
	}
	s := &MinMaxScaler{
		min:   make([]float64, len(dataMin)),
		scale: make([]float64, len(dataMin)),
	}
	for i := range dataMin {
		span := dataMax[i] - dataMin[i]
		if span == 0 {
			span = 1
		}
		s.scale[i] = (featureRange[1] - featureRange[0]) / span
		s.min[i] = featureRange[0] - dataMin[i]*s.scale[i]
	}
	return s, nil
}

func (s *MinMaxScaler) Transform(x []float64) ([]float64, error) {
	if len(x) != len(s.min) {
		return nil, fmt.Errorf("scaler was fitted on %d features, got %d", len(s.min), len(x))
	}
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = v*s.scale[i] + s.min[i]
	}
	return out, nil
}

// LoadScaler reads a ScalerFile from path. When wantNames is non-empty and
// the file records feature names, the two must agree column by column.
func LoadScaler(path string, wantNames []string) (Scaler, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scaler: %w", err)
	}

	var f ScalerFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse scaler: %w", err)
	}

	if err := checkFeatureNames(f.FeatureNames, wantNames); err != nil {
		return nil, err
	}

	switch f.Kind {
	case "standard", "":
		return NewStandardScaler(f.Mean, f.Scale)
	case "minmax":
		return NewMinMaxScaler(f.DataMin, f.DataMax, f.FeatureRange)
	default:
		return nil, fmt.Errorf("unsupported scaler kind %q", f.Kind)
	}
}

func checkFeatureNames(got, want []string) error {
	if len(got) == 0 || len(want) == 0 {
		return nil
	}
	if len(got) != len(want) {
		return fmt.Errorf("artifact lists %d features, expected %d", len(got), len(want))
	}
	for i := range got {
		if got[i] != want[i] {
			return fmt.Errorf("feature %d is %q in artifact, expected %q", i, got[i], want[i])
		}
	}
	return nil
}
