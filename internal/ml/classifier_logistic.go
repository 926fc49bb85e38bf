package ml

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// LogisticFile is the JSON export of a fitted binary logistic regression.
type LogisticFile struct {
	Kind         string    `json:"kind"`
	FeatureNames []string  `json:"feature_names,omitempty"`
	Classes      []string  `json:"classes"`
	Coef         []float64 `json:"coef"`
	Intercept    float64   `json:"intercept"`
}

// LogisticClassifier labels x with Classes[1] when coef·x + intercept > 0,
// otherwise Classes[0].
type LogisticClassifier struct {
	classes   [2]string
	coef      []float64
	intercept float64
}

func NewLogisticClassifier(classes []string, coef []float64, intercept float64) (*LogisticClassifier, error) {
	if len(classes) != 2 {
		return nil, fmt.Errorf("logistic classifier: expected 2 classes, got %d", len(classes))
	}
	if len(coef) == 0 {
		return nil, fmt.Errorf("logistic classifier: empty coefficients")
	}
	for i, c := range coef {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return nil, fmt.Errorf("logistic classifier: coef[%d] is not finite", i)
		}
	}
	return &LogisticClassifier{
		classes:   [2]string{classes[0], classes[1]},
		coef:      append([]float64(nil), coef...),
		intercept: intercept,
	}, nil
}

// Decision returns the signed distance to the separating hyperplane.
func (c *LogisticClassifier) Decision(x []float64) (float64, error) {
	if len(x) != len(c.coef) {
		return 0, fmt.Errorf("classifier expects %d features, got %d", len(c.coef), len(x))
	}
	d := c.intercept
	for i, v := range x {
		d += c.coef[i] * v
	}
	if math.IsNaN(d) {
		return 0, fmt.Errorf("decision function is NaN")
	}
	return d, nil
}

func (c *LogisticClassifier) Predict(x []float64) (string, error) {
	d, err := c.Decision(x)
	if err != nil {
		return "", err
	}
	if d > 0 {
		return c.classes[1], nil
	}
	return c.classes[0], nil
}

// Probability returns P(Classes[1] | x).
func (c *LogisticClassifier) Probability(x []float64) (float64, error) {
	d, err := c.Decision(x)
	if err != nil {
		return 0, err
	}
	return 1 / (1 + math.Exp(-d)), nil
}

// LoadLogistic reads a LogisticFile from path.
func LoadLogistic(path string, wantNames []string) (*LogisticClassifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read classifier: %w", err)
	}

	var f LogisticFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse classifier: %w", err)
	}
	if f.Kind != "" && f.Kind != "logistic" {
		return nil, fmt.Errorf("unsupported classifier kind %q", f.Kind)
	}
	if err := checkFeatureNames(f.FeatureNames, wantNames); err != nil {
		return nil, err
	}

	return NewLogisticClassifier(f.Classes, f.Coef, f.Intercept)
}
