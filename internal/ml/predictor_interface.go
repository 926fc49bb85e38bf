// Package ml runs a quality prediction: a fitted scaler normalizes a sensor
// observation and a fitted binary classifier labels it Pass or Fail.
//
// Both artifacts are opaque. They are loaded once at startup into an
// Artifacts value and reached only through the Scaler and Classifier
// interfaces, so the runtime backing them (a JSON export, an ONNX session)
// stays an implementation detail.
package ml

// Scaler is a fitted normalization. Transform must return a vector of the
// same length as its input, in the same column order.
type Scaler interface {
	Transform(x []float64) ([]float64, error)
}

// Classifier is a fitted categorical decision function.
type Classifier interface {
	Predict(x []float64) (string, error)
}

// Closer is implemented by artifacts holding native resources.
type Closer interface {
	Close() error
}
