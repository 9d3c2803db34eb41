package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"instituto-amostral/internal/dataset"
	"instituto-amostral/internal/model"
	"instituto-amostral/internal/report"
	"instituto-amostral/internal/sampling"
	"instituto-amostral/internal/store"
	"instituto-amostral/pkg/utils"
)

// PlanRequest is a validated plan generation request.
type PlanRequest struct {
	UF           string
	Municipality string
	Override     *int
	Format       report.Format
	Confidence   sampling.Confidence
	Margin       float64
}

// NewPlanRequest validates a job spec.
func NewPlanRequest(spec model.PlanJobSpec) (PlanRequest, error) {
	req := PlanRequest{UF: spec.UF, Municipality: spec.Municipality, Override: spec.SampleSize, Margin: spec.Margin}
	if req.UF == "" || req.Municipality == "" {
		return req, fmt.Errorf("%w: uf and municipio are required", sampling.ErrInvalidParameter)
	}
	var err error
	if req.Format, err = report.ParseFormat(spec.Format); err != nil {
		return req, err
	}
	confidence := spec.Confidence
	if confidence == 0 {
		confidence = 0.95
	}
	if req.Confidence, err = sampling.ParseConfidence(confidence); err != nil {
		return req, err
	}
	if req.Margin == 0 {
		req.Margin = 0.05
	}
	return req, nil
}

// PlanEnv holds the collaborators of plan generation.
type PlanEnv struct {
	Datasets   *dataset.Provider
	Calibrated sampling.ProfileLookup
	Output     *utils.OutputManager
	Logger     *zap.Logger
	Now        func() time.Time
}

// GeneratedFile is a rendered file of a plan.
type GeneratedFile struct {
	Format      report.Format `json:"format"`
	Name        string        `json:"name"`
	Path        string        `json:"-"`
	SizeBytes   int64         `json:"size_bytes"`
	DownloadURL string        `json:"download_url"`
}

// PlanOutcome is the result of GeneratePlan.
type PlanOutcome struct {
	ID            string              `json:"id"`
	Plan          *sampling.Plan      `json:"plan"`
	Scenarios     []sampling.Scenario `json:"scenarios"`
	Justification string              `json:"justification"`
	Files         []GeneratedFile     `json:"files"`
}

// GeneratePlan sizes and apportions the sample of a municipality, renders
// the requested format plus the Excel workbook, and persists the result
// when a store is available.
func GeneratePlan(ctx context.Context, planID string, req PlanRequest, env PlanEnv) (*PlanOutcome, error) {
	return generatePlan(ctx, planID, "", req, env)
}

func generatePlan(ctx context.Context, planID, jobID string, req PlanRequest, env PlanEnv) (*PlanOutcome, error) {
	logger := env.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := time.Now
	if env.Now != nil {
		now = env.Now
	}

	ds, err := env.Datasets.Get()
	if err != nil {
		return nil, err
	}
	municipality, zones, err := ds.Municipality(req.UF, req.Municipality)
	if err != nil {
		return nil, err
	}
	electorate := 0
	for _, z := range zones {
		electorate += z.Total
	}

	sizing, err := sampling.ComputeSampleSize(sampling.SizingInput{
		Population: electorate,
		Zones:      len(zones),
		Confidence: req.Confidence,
		Margin:     req.Margin,
	})
	if err != nil {
		return nil, err
	}
	scenarios, err := sampling.Scenarios(electorate, len(zones), req.Confidence, req.Margin)
	if err != nil {
		return nil, err
	}
	plan, err := sampling.BuildPlan(sampling.PlanInput{
		Municipality: municipality,
		Zones:        zones,
		Sizing:       *sizing,
		Override:     req.Override,
		Profiles:     ds.Profiles(env.Calibrated),
	})
	if err != nil {
		return nil, err
	}

	outcome := &PlanOutcome{
		ID:            planID,
		Plan:          plan,
		Scenarios:     scenarios,
		Justification: sampling.Justification(sizing),
	}
	doc := &report.Document{
		Plan:          plan,
		Scenarios:     scenarios,
		Justification: outcome.Justification,
		Sources:       ds.Meta,
		GeneratedAt:   now(),
	}

	formats := []report.Format{req.Format}
	if req.Format != report.FormatExcel {
		formats = append(formats, report.FormatExcel)
	}
	files, err := renderFiles(ctx, planID, formats, doc, env.Output)
	if err != nil {
		return nil, err
	}
	outcome.Files = files

	if err := persistPlan(planID, jobID, outcome); err != nil && !errors.Is(err, store.ErrNotInitialized) {
		logger.Warn("failed to persist plan", zap.String("plan_id", planID), zap.Error(err))
	}
	logger.Info("plan generated",
		zap.String("plan_id", planID),
		zap.String("uf", municipality.UF),
		zap.String("municipio", municipality.Name),
		zap.Int("amostra", plan.Final.Size),
		zap.String("modo", string(plan.Final.Mode)),
		zap.Int("arquivos", len(files)))
	return outcome, nil
}

// renderFiles writes every format concurrently into the plan directory.
func renderFiles(ctx context.Context, planID string, formats []report.Format, doc *report.Document, om *utils.OutputManager) ([]GeneratedFile, error) {
	files := make([]GeneratedFile, len(formats))
	g, ctx := errgroup.WithContext(ctx)
	for i, f := range formats {
		i, f := i, f
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			path, err := om.GetOutputFilePath(planID, report.FileName(doc.Plan.Municipality, f))
			if err != nil {
				return err
			}
			if err := report.WriteFile(path, f, doc); err != nil {
				return fmt.Errorf("render %s: %w", f, err)
			}
			size, err := om.GetFileSize(path)
			if err != nil {
				return err
			}
			files[i] = GeneratedFile{
				Format:      f,
				Name:        filepath.Base(path),
				Path:        path,
				SizeBytes:   size,
				DownloadURL: om.GetDownloadURL(planID, path),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}

func persistPlan(planID, jobID string, o *PlanOutcome) error {
	doc, err := json.Marshal(o)
	if err != nil {
		return err
	}
	p := o.Plan
	if err := store.SavePlan(store.PlanRecord{
		ID:           planID,
		JobID:        jobID,
		UF:           p.Municipality.UF,
		Municipality: p.Municipality.Name,
		SampleSize:   p.Final.Size,
		Mode:         string(p.Final.Mode),
		Confidence:   int(p.Confidence),
		Margin:       p.Margin,
		Plan:         doc,
	}); err != nil {
		return err
	}
	for _, f := range o.Files {
		if err := store.SavePlanFile(store.PlanFile{PlanID: planID, Format: string(f.Format), Path: f.Path, SizeBytes: f.SizeBytes}); err != nil {
			return err
		}
	}
	return nil
}

// RunPlanJob runs GeneratePlan as a tracked asynchronous job. The plan id is
// the job id.
func RunPlanJob(ctx context.Context, jobID string, req PlanRequest, env PlanEnv) (*PlanOutcome, error) {
	tracker := NewTracker(jobID, env.Logger, true)
	tracker.SetStatus(model.StatusRunning)
	tracker.StartStage("plan", model.StatusSizing, map[string]interface{}{
		"uf": req.UF, "municipio": req.Municipality, "formato": string(req.Format),
	})

	outcome, err := generatePlan(ctx, jobID, jobID, req, env)
	if err != nil {
		tracker.FailStage("plan", err)
		tracker.RecordError(model.ErrorDetail{Stage: "plan", Message: err.Error()})
		tracker.SetStatus(model.StatusFailed)
		return nil, err
	}
	tracker.EndStage("plan", int64(outcome.Plan.Final.Size), 0, map[string]interface{}{"files": len(outcome.Files)})
	tracker.SetStatus(model.StatusCompleted)
	return outcome, nil
}
