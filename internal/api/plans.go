package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"instituto-amostral/internal/model"
	"instituto-amostral/internal/pipeline"
	"instituto-amostral/internal/sampling"
	"instituto-amostral/internal/store"
	"instituto-amostral/pkg/router"
)

// planRequest validates a plan spec, filling configured defaults.
func (h *Handler) planRequest(spec model.PlanJobSpec) (pipeline.PlanRequest, error) {
	if spec.SampleSize != nil && (*spec.SampleSize < MinSampleOverride || *spec.SampleSize > MaxSampleOverride) {
		return pipeline.PlanRequest{}, fmt.Errorf("%w: amostra must be between %d and %d, got %d",
			sampling.ErrInvalidParameter, MinSampleOverride, MaxSampleOverride, *spec.SampleSize)
	}
	if spec.Format == "" {
		spec.Format = h.Config.Sampling.Format
	}
	if spec.Confidence == 0 {
		spec.Confidence = h.Config.Sampling.Confidence
	}
	if spec.Margin == 0 {
		spec.Margin = h.Config.Sampling.Margin
	}
	return pipeline.NewPlanRequest(spec)
}

// GeneratePlan builds a plan synchronously and returns it with download links
// @Summary Generate a sampling plan
// @Description Sizes the survey, apportions zone, gender and benchmark quotas and renders the requested format plus the Excel workbook.
// @Tags plans
// @Produce json
// @Param uf query string true "UF"
// @Param municipio query string true "Municipality name"
// @Param amostra query int false "Sample size override (100 to 10000); omitted means the recommended size"
// @Param formato query string false "Output format: excel, markdown, csv, json"
// @Param confianca query number false "Confidence level"
// @Param margem_erro query number false "Margin of error"
// @Success 200 {object} pipeline.PlanOutcome
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse "Municipality not found"
// @Failure 503 {object} ErrorResponse "Dataset unavailable"
// @Router /plano [get]
func (h *Handler) GeneratePlan(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r)
	spec := model.PlanJobSpec{
		UF:           q.required("uf"),
		Municipality: q.required("municipio"),
		SampleSize:   q.int("amostra", false),
		Format:       q.str("formato"),
		Confidence:   q.float("confianca", 0),
		Margin:       q.float("margem_erro", 0),
	}
	if q.err != nil {
		h.writeError(w, r, badParam(q.err))
		return
	}
	req, err := h.planRequest(spec)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out, err := pipeline.GeneratePlan(r.Context(), uuid.New().String(), req, h.planEnv())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// CreatePlan queues a plan generation job
// @Summary Queue a sampling plan
// @Tags plans
// @Accept json
// @Produce json
// @Param plan body model.PlanJobSpec true "Plan request"
// @Success 202 {object} map[string]interface{} "Job accepted"
// @Failure 400 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse "Store unavailable"
// @Router /plans [post]
func (h *Handler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	var spec model.PlanJobSpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		badRequest(w, "invalid JSON payload")
		return
	}
	req, err := h.planRequest(spec)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	jobID := uuid.New().String()
	if err := store.SaveJob(jobID, model.JobKindPlan, spec); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.jobs.Add(1)
	go func() {
		defer h.jobs.Done()
		if _, err := pipeline.RunPlanJob(h.jobCtx, jobID, req, h.planEnv()); err != nil {
			h.Logger.Warn("plan job failed", zap.String("job_id", jobID), zap.Error(err))
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"message":   "Plan job created",
		"jobID":     jobID,
		"status":    model.StatusPending,
		"createdAt": time.Now().UTC(),
	})
}

// ListPlans lists stored plans
// @Summary List plans
// @Tags plans
// @Produce json
// @Param uf query string false "Filter by UF"
// @Param limit query int false "Maximum number of plans (default 50)"
// @Success 200 {array} store.PlanRecord
// @Failure 503 {object} ErrorResponse "Store unavailable"
// @Router /plans [get]
func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			badRequest(w, "invalid limit")
			return
		}
		limit = n
	}
	plans, err := store.ListPlans(r.URL.Query().Get("uf"), limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if plans == nil {
		plans = []store.PlanRecord{}
	}
	writeJSON(w, http.StatusOK, plans)
}

// GetPlan returns a stored plan with its files
// @Summary Get plan
// @Tags plans
// @Produce json
// @Param id path string true "Plan ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} ErrorResponse
// @Router /plans/{id} [get]
func (h *Handler) GetPlan(w http.ResponseWriter, r *http.Request) {
	id := router.Param(r, 0)
	rec, err := store.GetPlan(id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	files, err := store.GetPlanFiles(id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	links := make([]map[string]interface{}, 0, len(files))
	for _, f := range files {
		links = append(links, map[string]interface{}{
			"format":       f.Format,
			"size_bytes":   f.SizeBytes,
			"download_url": h.Output.GetDownloadURL(id, f.Path),
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"plan": rec, "files": links})
}

// Download serves a generated file
// @Summary Download a plan file
// @Tags plans
// @Produce octet-stream
// @Param id path string true "Plan ID"
// @Param file path string true "File name"
// @Success 200 {file} file
// @Failure 404 {object} ErrorResponse
// @Router /download/{id}/{file} [get]
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	path, err := h.Output.ResolveDownload(router.Param(r, 0), router.Param(r, 1))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "file not found"})
			return
		}
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", h.Output.ContentType(path))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", router.Param(r, 1)))
	http.ServeFile(w, r, path)
}

