package ml

import (
	"errors"
	"fmt"
)

// Stage names the artifact call that failed.
type Stage string

const (
	StageTransform Stage = "transform"
	StagePredict   Stage = "predict"
	StageLoad      Stage = "load"
)

// ArtifactError reports a failure inside the scaler or classifier: a shape
// mismatch, a corrupted artifact, a panic in the runtime, or a label outside
// the expected set when strict labels are enabled.
type ArtifactError struct {
	Stage Stage
	Path  string
	Err   error
}

func (e *ArtifactError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s %s: %v", e.Stage, e.Path, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *ArtifactError) Unwrap() error {
	return e.Err
}

// ErrUnexpectedLabel is wrapped by an ArtifactError when strict labels are
// enabled and the classifier returns something other than Pass or Fail.
var ErrUnexpectedLabel = errors.New("unexpected classifier label")

// IsArtifactError reports whether err came from a scaler or classifier.
func IsArtifactError(err error) bool {
	var ae *ArtifactError
	return errors.As(err, &ae)
}
