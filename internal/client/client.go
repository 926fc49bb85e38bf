// Package client calls a running prediction server over its JSON API.
package client

import (
	"context"
	"fmt"
	"time"

	"quality-predictor/internal/features"
	"quality-predictor/internal/web"

	"github.com/go-resty/resty/v2"
)

type Client struct {
	rest *resty.Client
}

// New returns a client for the server at baseURL.
func New(baseURL string, timeout time.Duration) *Client {
	r := resty.New().SetBaseURL(baseURL)
	if timeout > 0 {
		r.SetTimeout(timeout)
	} else {
		r.SetTimeout(5 * time.Second) // default fallback
	}
	return &Client{rest: r}
}

// APIError is returned for non-2xx responses.
type APIError struct {
	StatusCode int
	Body       web.ErrorResponse
}

func (e *APIError) Error() string {
	if e.Body.Error != "" {
		return fmt.Sprintf("server returned %d (%s): %s", e.StatusCode, e.Body.Kind, e.Body.Error)
	}
	return fmt.Sprintf("server returned %d", e.StatusCode)
}

// Health fetches the server's health status.
func (c *Client) Health(ctx context.Context) (*web.HealthResponse, error) {
	result := &web.HealthResponse{}
	resp, err := c.rest.R().
		SetContext(ctx).
		SetResult(result).
		Get("/health")
	if err != nil {
		return nil, fmt.Errorf("health request failed: %w", err)
	}
	if resp.IsError() {
		return result, &APIError{StatusCode: resp.StatusCode()}
	}
	return result, nil
}

// Predict submits fv to the JSON prediction endpoint.
func (c *Client) Predict(ctx context.Context, fv features.Vector) (*web.PredictResponse, error) {
	result := &web.PredictResponse{}
	apiErr := &web.ErrorResponse{}
	resp, err := c.rest.R().
		SetContext(ctx).
		SetBody(fv).
		SetResult(result).
		SetError(apiErr).
		Post("/api/v1/predict")
	if err != nil {
		return nil, fmt.Errorf("predict request failed: %w", err)
	}
	if resp.IsError() {
		return nil, &APIError{StatusCode: resp.StatusCode(), Body: *apiErr}
	}
	return result, nil
}
