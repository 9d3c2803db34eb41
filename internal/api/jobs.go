package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"instituto-amostral/internal/model"
	"instituto-amostral/internal/store"
	"instituto-amostral/pkg/router"
)

// CreateDataset starts a rebuild of the prepared tables
// @Summary Rebuild the dataset
// @Description Downloads the IBGE tables and the TSE per-section profiles, aggregates them by zone and replaces the prepared tables.
// @Tags jobs
// @Accept json
// @Produce json
// @Param job body model.DatasetJobSpec false "UFs, explicit sources and concurrency"
// @Success 202 {object} map[string]interface{} "Job accepted"
// @Failure 400 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse "Store unavailable"
// @Router /datasets [post]
func (h *Handler) CreateDataset(w http.ResponseWriter, r *http.Request) {
	var spec model.DatasetJobSpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil && !errors.Is(err, io.EOF) {
		badRequest(w, "invalid JSON payload")
		return
	}
	for _, src := range spec.Sources {
		if src.UF == "" || src.URL == "" {
			badRequest(w, "every source needs uf and url")
			return
		}
	}

	jobID := uuid.New().String()
	if err := store.SaveJob(jobID, model.JobKindDataset, spec); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.jobs.Add(1)
	go func() {
		defer h.jobs.Done()
		metrics, err := h.Builder.Run(h.jobCtx, jobID, spec)
		if err != nil {
			h.Logger.Warn("dataset job failed", zap.String("job_id", jobID), zap.Error(err))
			return
		}
		h.Logger.Info("dataset job finished",
			zap.String("job_id", jobID),
			zap.Int("zones", metrics.Zones),
			zap.Int64("invalid_records", metrics.InvalidRecords))
	}()

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"message":   "Dataset job created",
		"jobID":     jobID,
		"status":    model.StatusPending,
		"createdAt": time.Now().UTC(),
	})
}

// ListJobs lists plan and dataset jobs
// @Summary List jobs
// @Tags jobs
// @Produce json
// @Param kind query string false "plan or dataset"
// @Success 200 {array} store.Job
// @Failure 503 {object} ErrorResponse "Store unavailable"
// @Router /jobs [get]
func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := store.ListJobs(model.JobKind(r.URL.Query().Get("kind")))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if jobs == nil {
		jobs = []store.Job{}
	}
	writeJSON(w, http.StatusOK, jobs)
}

// GetJob returns a job
// @Summary Get job
// @Tags jobs
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} store.Job
// @Failure 404 {object} ErrorResponse
// @Router /jobs/{id} [get]
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	job, err := store.GetJob(router.Param(r, 0))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// GetJobErrors returns the errors recorded for a job
// @Summary Get job errors
// @Tags jobs
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} ErrorResponse "Store unavailable"
// @Router /jobs/{id}/errors [get]
func (h *Handler) GetJobErrors(w http.ResponseWriter, r *http.Request) {
	jobID := router.Param(r, 0)
	errs, err := store.GetJobErrors(jobID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"job_id": jobID,
		"errors": errs,
		"count":  len(errs),
	})
}

// GetJobLogs returns the persisted stage logs of a job
// @Summary Get job logs
// @Tags jobs
// @Produce json
// @Param id path string true "Job ID"
// @Param limit query int false "Maximum number of entries (default 100)"
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} ErrorResponse "Store unavailable"
// @Router /jobs/{id}/logs [get]
func (h *Handler) GetJobLogs(w http.ResponseWriter, r *http.Request) {
	jobID := router.Param(r, 0)
	limit := 100
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			badRequest(w, "invalid limit")
			return
		}
		limit = n
	}
	logs, err := store.GetPipelineLogs(jobID, limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"job_id": jobID,
		"logs":   logs,
		"count":  len(logs),
	})
}

// GetJobProgress returns the per-stage progress of a job
// @Summary Get job progress
// @Tags jobs
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} ErrorResponse
// @Router /jobs/{id}/progress [get]
func (h *Handler) GetJobProgress(w http.ResponseWriter, r *http.Request) {
	jobID := router.Param(r, 0)
	job, err := store.GetJob(jobID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	stages, err := store.GetStageProgress(jobID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	completed := 0
	for _, s := range stages {
		if s.Status == "completed" {
			completed++
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"job_id":           jobID,
		"status":           job.Status,
		"stages":           stages,
		"completed_stages": completed,
	})
}
