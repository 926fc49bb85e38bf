// Package features defines the five-field sensor observation submitted for a
// quality prediction, the valid range of every field, and the validation that
// guards the scaler and classifier from out-of-range input.
package features

import (
	"math"
	"strconv"
	"strings"
)

// Field identifies one input of a FeatureVector. The numeric order is the
// column order the scaler and classifier were fitted on.
type Field int

const (
	Temperature Field = iota
	Vibration
	Pressure
	FlowRate
	Efficiency

	NumFields = 5
)

// Spec describes the valid closed interval and default of a single field.
type Spec struct {
	Field   Field   `json:"-"`
	Key     string  `json:"key"`   // form and JSON key
	Label   string  `json:"label"` // column name used when the artifacts were fitted
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Default float64 `json:"default"`
	Step    float64 `json:"step"`
}

var specs = [NumFields]Spec{
	{Field: Temperature, Key: "temperature", Label: "Temperature (°C)", Min: 55.0, Max: 120.0, Default: 55.0, Step: 0.1},
	{Field: Vibration, Key: "vibration", Label: "Vibration (mm/s)", Min: 0.01, Max: 20.0, Default: 1.0, Step: 0.1},
	{Field: Pressure, Key: "pressure", Label: "Pressure (bar)", Min: 1.5, Max: 3.5, Default: 1.5, Step: 0.1},
	{Field: FlowRate, Key: "flow_rate", Label: "Flow Rate (L/min)", Min: 1.0, Max: 500.0, Default: 10.0, Step: 0.1},
	{Field: Efficiency, Key: "efficiency", Label: "Efficiency (%)", Min: 5.0, Max: 100.0, Default: 90.0, Step: 0.1},
}

// Specs returns the field specs in declared order.
func Specs() []Spec {
	out := make([]Spec, NumFields)
	copy(out, specs[:])
	return out
}

// Spec returns the spec of f.
func (f Field) Spec() Spec {
	return specs[f]
}

func (f Field) String() string {
	if f < 0 || int(f) >= NumFields {
		return "Field(" + strconv.Itoa(int(f)) + ")"
	}
	return specs[f].Key
}

// Contains reports whether v lies within [Min, Max]. NaN is never contained.
func (s Spec) Contains(v float64) bool {
	return !math.IsNaN(v) && v >= s.Min && v <= s.Max
}

// Names returns the fitted column names in declared order.
func Names() []string {
	names := make([]string, NumFields)
	for i, s := range specs {
		names[i] = s.Label
	}
	return names
}

// Vector is one machine observation. It is a value type; callers build a
// fresh one per submission.
type Vector struct {
	Temperature float64 `json:"temperature"`
	Vibration   float64 `json:"vibration"`
	Pressure    float64 `json:"pressure"`
	FlowRate    float64 `json:"flow_rate"`
	Efficiency  float64 `json:"efficiency"`
}

// Defaults returns the vector pre-filled in the form.
func Defaults() Vector {
	var v Vector
	for _, s := range specs {
		v = v.with(s.Field, s.Default)
	}
	return v
}

// FromValues builds a vector from values in declared order.
func FromValues(values []float64) (Vector, error) {
	if len(values) != NumFields {
		return Vector{}, &DimensionError{Want: NumFields, Got: len(values)}
	}
	var v Vector
	for i, x := range values {
		v = v.with(Field(i), x)
	}
	return v, nil
}

// Get returns the value of f.
func (v Vector) Get(f Field) float64 {
	switch f {
	case Temperature:
		return v.Temperature
	case Vibration:
		return v.Vibration
	case Pressure:
		return v.Pressure
	case FlowRate:
		return v.FlowRate
	case Efficiency:
		return v.Efficiency
	}
	return math.NaN()
}

func (v Vector) with(f Field, x float64) Vector {
	switch f {
	case Temperature:
		v.Temperature = x
	case Vibration:
		v.Vibration = x
	case Pressure:
		v.Pressure = x
	case FlowRate:
		v.FlowRate = x
	case Efficiency:
		v.Efficiency = x
	}
	return v
}

// Values returns the fields in declared order, the layout the scaler expects.
func (v Vector) Values() []float64 {
	return []float64{v.Temperature, v.Vibration, v.Pressure, v.FlowRate, v.Efficiency}
}

// Validate checks every field against its range and returns the first
// violation as an *InvalidInputError.
func (v Vector) Validate() error {
	for _, s := range specs {
		x := v.Get(s.Field)
		if !s.Contains(x) {
			return &InvalidInputError{Field: s.Field, Value: x, Min: s.Min, Max: s.Max}
		}
	}
	return nil
}

// Parse builds a vector from raw string values keyed by Spec.Key, as
// submitted by the HTML form. Every field is required; a missing or
// non-numeric value is reported as an *InvalidInputError. The result is
// also range-checked.
func Parse(get func(key string) string) (Vector, error) {
	var v Vector
	for _, s := range specs {
		raw := strings.TrimSpace(get(s.Key))
		if raw == "" {
			return Vector{}, &InvalidInputError{Field: s.Field, Missing: true, Min: s.Min, Max: s.Max}
		}
		x, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Vector{}, &InvalidInputError{Field: s.Field, Raw: raw, Min: s.Min, Max: s.Max, Err: err}
		}
		v = v.with(s.Field, x)
	}
	if err := v.Validate(); err != nil {
		return Vector{}, err
	}
	return v, nil
}
