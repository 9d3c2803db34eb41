// Package api exposes the sampling engine, plan generation and dataset jobs
// over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"instituto-amostral/internal/config"
	"instituto-amostral/internal/dataset"
	"instituto-amostral/internal/pipeline"
	"instituto-amostral/internal/report"
	"instituto-amostral/internal/sampling"
	"instituto-amostral/internal/store"
	"instituto-amostral/pkg/utils"
)

// Bounds of the amostra parameter of plan requests.
const (
	MinSampleOverride = 100
	MaxSampleOverride = 10000
)

// Handler serves the API routes.
type Handler struct {
	Config     *config.Config
	Datasets   *dataset.Provider
	Calibrated sampling.ProfileLookup
	Output     *utils.OutputManager
	Builder    *pipeline.Builder
	Logger     *zap.Logger

	// jobCtx bounds asynchronous jobs; cancelled on shutdown.
	jobCtx context.Context
	jobs   sync.WaitGroup
}

// NewHandler wires a handler. jobCtx is the parent of asynchronous jobs.
func NewHandler(jobCtx context.Context, cfg *config.Config, datasets *dataset.Provider, calibrated sampling.ProfileLookup, builder *pipeline.Builder, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Config:     cfg,
		Datasets:   datasets,
		Calibrated: calibrated,
		Output:     utils.NewOutputManager(cfg.Data.OutputDir),
		Builder:    builder,
		Logger:     logger,
		jobCtx:     jobCtx,
	}
}

// Wait blocks until every asynchronous job started by the handler returned.
func (h *Handler) Wait() { h.jobs.Wait() }

func (h *Handler) planEnv() pipeline.PlanEnv {
	return pipeline.PlanEnv{
		Datasets:   h.Datasets,
		Calibrated: h.Calibrated,
		Output:     h.Output,
		Logger:     h.Logger,
	}
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// statusOf maps domain errors to HTTP statuses.
func statusOf(err error) int {
	switch {
	case errors.Is(err, dataset.ErrDataUnavailable), errors.Is(err, store.ErrNotInitialized):
		return http.StatusServiceUnavailable
	case errors.Is(err, dataset.ErrMunicipalityNotFound), errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, sampling.ErrInvalidParameter),
		errors.Is(err, sampling.ErrInvalidPopulation),
		errors.Is(err, report.ErrUnsupportedFormat),
		errors.Is(err, utils.ErrInvalidFileName):
		return http.StatusBadRequest
	case errors.Is(err, sampling.ErrMissingProfileData):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.Logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		msg = "internal error: " + msg
	}
	writeJSON(w, status, ErrorResponse{Error: msg})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: msg})
}

// query reads the request parameters shared by the sizing endpoints.
type query struct {
	values map[string][]string
	err    error
}

func newQuery(r *http.Request) *query { return &query{values: r.URL.Query()} }

func (q *query) str(name string) string {
	if v := q.values[name]; len(v) > 0 {
		return strings.TrimSpace(v[0])
	}
	return ""
}

func (q *query) required(name string) string {
	v := q.str(name)
	if v == "" && q.err == nil {
		q.err = errors.New("missing parameter " + name)
	}
	return v
}

func (q *query) float(name string, def float64) float64 {
	s := q.str(name)
	if s == "" {
		return def
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil && q.err == nil {
		q.err = errors.New("invalid number for " + name + ": " + s)
	}
	return f
}

func (q *query) int(name string, required bool) *int {
	s := q.str(name)
	if s == "" {
		if required && q.err == nil {
			q.err = errors.New("missing parameter " + name)
		}
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		if q.err == nil {
			q.err = errors.New("invalid integer for " + name + ": " + s)
		}
		return nil
	}
	return &n
}

// confidence parses confianca with the configured default.
func (h *Handler) confidence(q *query) sampling.Confidence {
	v := q.float("confianca", h.Config.Sampling.Confidence)
	if q.err != nil {
		return 0
	}
	c, err := sampling.ParseConfidence(v)
	if err != nil {
		q.err = err
	}
	return c
}
