package web

import (
	"errors"

	"quality-predictor/internal/features"
	"quality-predictor/internal/ml"
)

// PredictResponse is the body of a successful POST /api/v1/predict.
type PredictResponse struct {
	Label      string          `json:"label"`
	Outcome    string          `json:"outcome"`
	Result     string          `json:"result"`
	Recognized bool            `json:"recognized"`
	Features   features.Vector `json:"features"`
}

// Error kinds reported in ErrorResponse.
const (
	KindBadRequest   = "bad_request"
	KindInvalidInput = "invalid_input"
	KindArtifact     = "artifact_error"
	KindUnavailable  = "unavailable"
)

// ErrorResponse is the body of a failed API call.
type ErrorResponse struct {
	Kind  string `json:"kind"`
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string          `json:"status"`
	Predictor ml.HealthStatus `json:"predictor"`
}

func errorResponse(err error) ErrorResponse {
	var invalid *features.InvalidInputError
	if errors.As(err, &invalid) {
		return ErrorResponse{Kind: KindInvalidInput, Error: err.Error(), Field: invalid.Field.String()}
	}
	if ml.IsArtifactError(err) {
		return ErrorResponse{Kind: KindArtifact, Error: err.Error()}
	}
	return ErrorResponse{Kind: KindUnavailable, Error: err.Error()}
}
