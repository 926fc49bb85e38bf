package features

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	v := Defaults()

	assert.Equal(t, Vector{
		Temperature: 55.0,
		Vibration:   1.0,
		Pressure:    1.5,
		FlowRate:    10.0,
		Efficiency:  90.0,
	}, v)
	assert.NoError(t, v.Validate())
}

func TestValues_DeclaredOrder(t *testing.T) {
	v := Vector{Temperature: 1, Vibration: 2, Pressure: 3, FlowRate: 4, Efficiency: 5}
	assert.Equal(t, []float64{1, 2, 3, 4, 5}, v.Values())

	for i, s := range Specs() {
		assert.Equal(t, Field(i), s.Field, "spec %d out of order", i)
		assert.Equal(t, v.Values()[i], v.Get(s.Field))
	}
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{
		"Temperature (°C)",
		"Vibration (mm/s)",
		"Pressure (bar)",
		"Flow Rate (L/min)",
		"Efficiency (%)",
	}, Names())
}

func TestValidate_Boundaries(t *testing.T) {
	for _, s := range Specs() {
		s := s
		t.Run(s.Key, func(t *testing.T) {
			for _, tc := range []struct {
				name  string
				value float64
				valid bool
			}{
				{"at min", s.Min, true},
				{"at max", s.Max, true},
				{"just below min", math.Nextafter(s.Min, math.Inf(-1)), false},
				{"just above max", math.Nextafter(s.Max, math.Inf(1)), false},
				{"NaN", math.NaN(), false},
				{"+Inf", math.Inf(1), false},
				{"-Inf", math.Inf(-1), false},
			} {
				v := Defaults().with(s.Field, tc.value)
				err := v.Validate()
				if tc.valid {
					assert.NoError(t, err, tc.name)
					continue
				}

				var invalid *InvalidInputError
				require.True(t, errors.As(err, &invalid), "%s: expected InvalidInputError, got %v", tc.name, err)
				assert.Equal(t, s.Field, invalid.Field)
				assert.Equal(t, s.Min, invalid.Min)
				assert.Equal(t, s.Max, invalid.Max)
			}
		})
	}
}

func TestValidate_OutOfRangeTemperature(t *testing.T) {
	v := Defaults()
	v.Temperature = 200.0

	err := v.Validate()
	require.Error(t, err)
	assert.Equal(t, "Temperature (°C) must be between 55 and 120, got 200", err.Error())
}

func TestFromValues(t *testing.T) {
	v, err := FromValues([]float64{60, 2, 2, 20, 80})
	require.NoError(t, err)
	assert.Equal(t, Vector{Temperature: 60, Vibration: 2, Pressure: 2, FlowRate: 20, Efficiency: 80}, v)

	_, err = FromValues([]float64{1, 2})
	var dim *DimensionError
	require.ErrorAs(t, err, &dim)
	assert.Equal(t, 5, dim.Want)
	assert.Equal(t, 2, dim.Got)
}

func TestParse(t *testing.T) {
	form := func(m map[string]string) func(string) string {
		return func(k string) string { return m[k] }
	}
	valid := map[string]string{
		"temperature": "70.5",
		"vibration":   " 3.2 ",
		"pressure":    "2",
		"flow_rate":   "120",
		"efficiency":  "95",
	}

	t.Run("valid", func(t *testing.T) {
		v, err := Parse(form(valid))
		require.NoError(t, err)
		assert.Equal(t, Vector{Temperature: 70.5, Vibration: 3.2, Pressure: 2, FlowRate: 120, Efficiency: 95}, v)
	})

	t.Run("missing field", func(t *testing.T) {
		m := copyMap(valid)
		delete(m, "pressure")

		_, err := Parse(form(m))
		var invalid *InvalidInputError
		require.ErrorAs(t, err, &invalid)
		assert.True(t, invalid.Missing)
		assert.Equal(t, Pressure, invalid.Field)
		assert.Equal(t, "Pressure (bar) is required", err.Error())
	})

	t.Run("not a number", func(t *testing.T) {
		m := copyMap(valid)
		m["flow_rate"] = "lots"

		_, err := Parse(form(m))
		var invalid *InvalidInputError
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, FlowRate, invalid.Field)
		assert.Error(t, errors.Unwrap(err))
	})

	t.Run("out of range", func(t *testing.T) {
		m := copyMap(valid)
		m["efficiency"] = "101"

		_, err := Parse(form(m))
		var invalid *InvalidInputError
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, Efficiency, invalid.Field)
		assert.Equal(t, 101.0, invalid.Value)
	})

	t.Run("NaN literal", func(t *testing.T) {
		m := copyMap(valid)
		m["vibration"] = "NaN"

		_, err := Parse(form(m))
		var invalid *InvalidInputError
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, Vibration, invalid.Field)
	})
}

func TestFieldString(t *testing.T) {
	assert.Equal(t, "flow_rate", FlowRate.String())
	assert.Equal(t, "Field(9)", Field(9).String())
}

func copyMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
