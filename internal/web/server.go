// Package web serves the prediction form, the JSON prediction API and the
// health endpoint.
package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"quality-predictor/internal/common"
	"quality-predictor/internal/features"
	"quality-predictor/internal/ml"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"
)

// Predictor is the prediction handler the server delegates to.
type Predictor interface {
	Predict(ctx context.Context, fv features.Vector) (ml.Result, error)
	Health() ml.HealthStatus
}

// RequestObserver records served requests.
type RequestObserver interface {
	ObserveRequest(route string, code int, d time.Duration)
}

type Server struct {
	predictor Predictor
	observer  RequestObserver
	timeout   time.Duration
	router    *mux.Router
	server    *http.Server
}

type fieldView struct {
	features.Spec
	Value string
}

type resultView struct {
	Text   string
	Passed bool
}

type pageData struct {
	Title          string
	Heading        string
	Description    string
	EnteredHeading string
	ResultHeading  string
	Fields         []fieldView
	Result         *resultView
	Error          string
}

// NewServer builds the router. observer may be nil. timeout bounds each
// prediction.
func NewServer(addr string, predictor Predictor, observer RequestObserver, timeout time.Duration) *Server {
	s := &Server{
		predictor: predictor,
		observer:  observer,
		timeout:   timeout,
	}

	r := mux.NewRouter()
	r.Use(hlog.NewHandler(log.Logger))
	r.Use(hlog.AccessHandler(s.logRequest))

	r.HandleFunc("/", s.handleForm).Methods(http.MethodGet)
	r.HandleFunc("/predict", s.handlePredictForm).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/predict", s.handlePredictAPI).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/fields", s.handleFields).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router = r

	s.server = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return s
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins serving HTTP requests
func (s *Server) Start() error {
	log.Info().Str("addr", s.server.Addr).Msg("starting prediction server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) logRequest(r *http.Request, status, size int, duration time.Duration) {
	route := r.URL.Path
	if cur := mux.CurrentRoute(r); cur != nil {
		if tmpl, err := cur.GetPathTemplate(); err == nil {
			route = tmpl
		}
	}
	if s.observer != nil {
		s.observer.ObserveRequest(route, status, duration)
	}
	hlog.FromRequest(r).Info().
		Str("method", r.Method).
		Str("route", route).
		Int("status", status).
		Int("size", size).
		Dur("duration", duration).
		Msg("request")
}

func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, http.StatusOK, defaultFields(), nil, "")
}

func (s *Server) handlePredictForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderPage(w, http.StatusBadRequest, defaultFields(), nil, common.ErrorPrefix+"failed to parse form")
		return
	}

	fields := enteredFields(r.PostFormValue)
	fv, err := features.Parse(r.PostFormValue)
	if err != nil {
		s.renderPage(w, http.StatusUnprocessableEntity, fields, nil, common.ErrorPrefix+err.Error())
		return
	}

	res, err := s.predict(r.Context(), fv)
	if err != nil {
		s.renderPage(w, statusFor(err), fields, nil, common.ErrorPrefix+err.Error())
		return
	}

	s.renderPage(w, http.StatusOK, fields, &resultView{
		Text:   common.ResultPrefix + res.Outcome.Text(),
		Passed: res.Passed(),
	}, "")
}

func (s *Server) predict(ctx context.Context, fv features.Vector) (ml.Result, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return s.predictor.Predict(ctx, fv)
}

func (s *Server) renderPage(w http.ResponseWriter, status int, fields []fieldView, result *resultView, errMsg string) {
	data := pageData{
		Title:          common.PageTitle,
		Heading:        common.PageHeading,
		Description:    common.PageDescription,
		EnteredHeading: common.EnteredHeading,
		ResultHeading:  common.ResultHeading,
		Fields:         fields,
		Result:         result,
		Error:          errMsg,
	}

	var buf bytes.Buffer
	if err := page.Execute(&buf, data); err != nil {
		log.Error().Err(err).Msg("failed to render page")
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

func defaultFields() []fieldView {
	specs := features.Specs()
	out := make([]fieldView, len(specs))
	for i, spec := range specs {
		out[i] = fieldView{Spec: spec, Value: formatValue(spec.Default)}
	}
	return out
}

// enteredFields echoes what the user submitted so a rejected form keeps its
// values.
func enteredFields(get func(string) string) []fieldView {
	specs := features.Specs()
	out := make([]fieldView, len(specs))
	for i, spec := range specs {
		out[i] = fieldView{Spec: spec, Value: get(spec.Key)}
	}
	return out
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// statusFor maps a prediction error to an HTTP status.
func statusFor(err error) int {
	var invalid *features.InvalidInputError
	switch {
	case errors.As(err, &invalid):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := s.predictor.Health()

	status := http.StatusOK
	if !health.Healthy {
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, HealthResponse{
		Status:    healthText(health.Healthy),
		Predictor: health,
	})
}

func healthText(healthy bool) string {
	if healthy {
		return "healthy"
	}
	return "unhealthy"
}

func (s *Server) handleFields(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, features.Specs())
}

func (s *Server) handlePredictAPI(w http.ResponseWriter, r *http.Request) {
	var raw map[string]*float64
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Kind: KindBadRequest, Error: fmt.Sprintf("invalid request: %v", err)})
		return
	}

	values := make([]float64, 0, features.NumFields)
	for _, spec := range features.Specs() {
		v, ok := raw[spec.Key]
		if !ok || v == nil {
			err := &features.InvalidInputError{Field: spec.Field, Missing: true, Min: spec.Min, Max: spec.Max}
			writeJSON(w, http.StatusBadRequest, errorResponse(err))
			return
		}
		values = append(values, *v)
	}

	fv, err := features.FromValues(values)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Kind: KindBadRequest, Error: err.Error()})
		return
	}

	res, err := s.predict(r.Context(), fv)
	if err != nil {
		writeJSON(w, statusFor(err), errorResponse(err))
		return
	}

	writeJSON(w, http.StatusOK, PredictResponse{
		Label:      res.Label,
		Outcome:    string(res.Outcome),
		Result:     res.Outcome.Text(),
		Recognized: res.Recognized,
		Features:   res.Features,
	})
}
