package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"instituto-amostral/internal/dataset"
	"instituto-amostral/internal/model"
	"instituto-amostral/internal/report"
	"instituto-amostral/internal/sampling"
	"instituto-amostral/internal/store"
	"instituto-amostral/pkg/utils"
)

func planEnv(t *testing.T) PlanEnv {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		dataset.ZonesFile: "UF,MUNICIPIO,ZONA,ELEITORES_TOTAL,ELEITORES_FEMININO,ELEITORES_MASCULINO,SECOES\n" +
			"TO,Porto Nacional,1,1000,520,480,10\n" +
			"TO,Porto Nacional,2,300,150,150,3\n" +
			"TO,Porto Nacional,3,200,90,110,2\n",
		dataset.IBGEFile: "UF,MUNICIPIO,ID_IBGE,POPULACAO_TOTAL,IDH,PIB_PER_CAPITA\n" +
			"TO,Porto Nacional,1718204,53618,0.740,\n",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return PlanEnv{
		Datasets:   dataset.NewProvider(dir, nil),
		Calibrated: dataset.Calibrated(),
		Output:     utils.NewOutputManager(t.TempDir()),
		Logger:     zaptest.NewLogger(t),
		Now:        func() time.Time { return time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC) },
	}
}

func TestNewPlanRequest(t *testing.T) {
	req, err := NewPlanRequest(model.PlanJobSpec{UF: "TO", Municipality: "Palmas"})
	require.NoError(t, err)
	assert.Equal(t, report.FormatExcel, req.Format)
	assert.Equal(t, sampling.Confidence95, req.Confidence)
	assert.Equal(t, 0.05, req.Margin)

	_, err = NewPlanRequest(model.PlanJobSpec{UF: "TO"})
	assert.ErrorIs(t, err, sampling.ErrInvalidParameter)
	_, err = NewPlanRequest(model.PlanJobSpec{UF: "TO", Municipality: "Palmas", Format: "pdf"})
	assert.ErrorIs(t, err, report.ErrUnsupportedFormat)
	_, err = NewPlanRequest(model.PlanJobSpec{UF: "TO", Municipality: "Palmas", Confidence: 0.97})
	assert.ErrorIs(t, err, sampling.ErrInvalidParameter)
}

func TestGeneratePlan(t *testing.T) {
	env := planEnv(t)
	override := 500
	req, err := NewPlanRequest(model.PlanJobSpec{UF: "to", Municipality: "porto nacional", SampleSize: &override, Format: "md"})
	require.NoError(t, err)

	out, err := GeneratePlan(context.Background(), "plan-1", req, env)
	require.NoError(t, err)
	assert.Equal(t, "Porto Nacional", out.Plan.Municipality.Name)
	assert.Equal(t, 500, out.Plan.Final.Size)
	assert.Equal(t, sampling.SizingManual, out.Plan.Final.Mode)
	assert.Len(t, out.Scenarios, len(sampling.ScenarioMatrix()))
	assert.NotEmpty(t, out.Justification)

	require.Len(t, out.Files, 2, "requested format plus the workbook")
	assert.Equal(t, report.FormatMarkdown, out.Files[0].Format)
	assert.Equal(t, "TO_Porto_Nacional_plano.md", out.Files[0].Name)
	assert.Equal(t, "/api/v1/download/plan-1/TO_Porto_Nacional_plano.md", out.Files[0].DownloadURL)
	assert.Equal(t, report.FormatExcel, out.Files[1].Format)
	for _, f := range out.Files {
		info, err := os.Stat(f.Path)
		require.NoError(t, err)
		assert.Equal(t, info.Size(), f.SizeBytes)
	}

	md, err := os.ReadFile(out.Files[0].Path)
	require.NoError(t, err)
	assert.Contains(t, string(md), "Porto Nacional")
}

func TestGeneratePlan_ExcelOnlyOnce(t *testing.T) {
	env := planEnv(t)
	req, err := NewPlanRequest(model.PlanJobSpec{UF: "TO", Municipality: "Porto Nacional"})
	require.NoError(t, err)

	out, err := GeneratePlan(context.Background(), "plan-2", req, env)
	require.NoError(t, err)
	require.Len(t, out.Files, 1)
	assert.Equal(t, report.FormatExcel, out.Files[0].Format)
	assert.Equal(t, sampling.SizingAutomatic, out.Plan.Final.Mode)
}

func TestGeneratePlan_UnknownMunicipality(t *testing.T) {
	env := planEnv(t)
	req, err := NewPlanRequest(model.PlanJobSpec{UF: "TO", Municipality: "Atlântida"})
	require.NoError(t, err)

	_, err = GeneratePlan(context.Background(), "plan-3", req, env)
	assert.ErrorIs(t, err, dataset.ErrMunicipalityNotFound)
}

func TestRunPlanJob_Persists(t *testing.T) {
	openTestStore(t)
	env := planEnv(t)
	req, err := NewPlanRequest(model.PlanJobSpec{UF: "TO", Municipality: "Porto Nacional", Format: "json"})
	require.NoError(t, err)
	require.NoError(t, store.SaveJob("job-9", model.JobKindPlan, req))

	out, err := RunPlanJob(context.Background(), "job-9", req, env)
	require.NoError(t, err)

	job, err := store.GetJob("job-9")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, job.Status)

	rec, err := store.GetPlan("job-9")
	require.NoError(t, err)
	assert.Equal(t, "job-9", rec.JobID)
	assert.Equal(t, out.Plan.Final.Size, rec.SampleSize)
	assert.Equal(t, 95, rec.Confidence)

	var doc PlanOutcome
	require.NoError(t, json.Unmarshal(rec.Plan, &doc))
	assert.Equal(t, out.Plan.Final.Size, doc.Plan.Final.Size)

	files, err := store.GetPlanFiles("job-9")
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestRunPlanJob_Failure(t *testing.T) {
	openTestStore(t)
	env := planEnv(t)
	req := PlanRequest{UF: "TO", Municipality: "Nowhere", Format: report.FormatCSV, Confidence: sampling.Confidence95, Margin: 0.05}
	require.NoError(t, store.SaveJob("job-10", model.JobKindPlan, req))

	_, err := RunPlanJob(context.Background(), "job-10", req, env)
	require.Error(t, err)

	job, err := store.GetJob("job-10")
	require.NoError(t, err)
	assert.Equal(t, model.StatusFailed, job.Status)

	errs, err := store.GetJobErrors("job-10")
	require.NoError(t, err)
	assert.NotEmpty(t, errs)
}
