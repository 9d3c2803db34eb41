package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"instituto-amostral/internal/dataset"
	"instituto-amostral/internal/sampling"
)

func testDocument(t *testing.T) *Document {
	t.Helper()
	zones := []sampling.ZoneElectorate{
		{Zone: 1, Total: 1000, Female: 520, Male: 480, Sections: 10},
		{Zone: 2, Total: 300, Female: 150, Male: 150, Sections: 3},
		{Zone: 3, Total: 200, Female: 90, Male: 110, Sections: 2},
	}
	sizing, err := sampling.ComputeSampleSize(sampling.SizingInput{Population: 1500, Zones: 3, Confidence: sampling.Confidence95, Margin: 0.05})
	require.NoError(t, err)
	hdi := 0.788
	plan, err := sampling.BuildPlan(sampling.PlanInput{
		Municipality: sampling.Municipality{UF: "TO", Name: "Porto Nacional", IBGEID: 1718204, Population: 53316, HDI: &hdi},
		Zones:        zones,
		Sizing:       *sizing,
		Profiles:     sampling.ProfileSources{Calibrated: dataset.Calibrated()},
	})
	require.NoError(t, err)
	scenarios, err := sampling.Scenarios(1500, 3, sampling.Confidence95, 0.05)
	require.NoError(t, err)
	return &Document{
		Plan:          plan,
		Scenarios:     scenarios,
		Justification: sampling.Justification(sizing),
		GeneratedAt:   time.Date(2025, 3, 1, 14, 30, 0, 0, time.UTC),
	}
}

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{
		"":         FormatExcel,
		"md":       FormatMarkdown,
		"Markdown": FormatMarkdown,
		"xlsx":     FormatExcel,
		"csv":      FormatCSV,
		"json":     FormatJSON,
	}
	for in, want := range tests {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseFormat("pdf")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestFileName(t *testing.T) {
	m := sampling.Municipality{UF: "TO", Name: "Porto Nacional"}
	assert.Equal(t, "TO_Porto_Nacional_plano.xlsx", FileName(m, FormatExcel))
	assert.Equal(t, "TO_Porto_Nacional_plano.md", FileName(m, FormatMarkdown))
}

func TestRenderMarkdown(t *testing.T) {
	doc := testDocument(t)
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, FormatMarkdown, doc))
	out := buf.String()

	assert.Contains(t, out, "# Plano Amostral — Porto Nacional / TO")
	assert.Contains(t, out, "Gerado em: 01/03/2025 14:30")
	assert.Contains(t, out, "| Total de Eleitores | 1.500 |")
	assert.Contains(t, out, "| IDH Municipal | 0,788 |")
	assert.Contains(t, out, "### FAIXA ETÁRIA")
	assert.Contains(t, out, "(calibrado)")
	assert.Contains(t, out, "Padrão (95% / ±5%) ★")
	assert.Contains(t, out, "## Nota Metodológica")
	assert.Contains(t, out, "| **TOTAL** | **1.500** |")
}

func TestRenderCSV(t *testing.T) {
	doc := testDocument(t)
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, FormatCSV, doc))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, "1", rows[1][0])
	assert.Equal(t, "66.67", rows[1][8])
}

func TestRenderJSON(t *testing.T) {
	doc := testDocument(t)
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, FormatJSON, doc))

	var decoded struct {
		Plan struct {
			Final struct {
				Size int `json:"size"`
			} `json:"final"`
			Benchmarks []struct {
				Provenance string `json:"provenance"`
			} `json:"benchmarks"`
		} `json:"plan"`
		Scenarios []json.RawMessage `json:"scenarios"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, doc.Plan.Final.Size, decoded.Plan.Final.Size)
	assert.Equal(t, "real", decoded.Plan.Benchmarks[0].Provenance)
	assert.Equal(t, "calibrated", decoded.Plan.Benchmarks[1].Provenance)
	assert.Len(t, decoded.Scenarios, len(sampling.ScenarioMatrix()))
}

func TestWriteFileExcel(t *testing.T) {
	doc := testDocument(t)
	path := filepath.Join(t.TempDir(), FileName(doc.Plan.Municipality, FormatExcel))
	require.NoError(t, WriteFile(path, FormatExcel, doc))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetPlan, SheetBenchmark, SheetScenarios, SheetMethodology}, f.GetSheetList())
	title, err := f.GetCellValue(SheetPlan, "A1")
	require.NoError(t, err)
	assert.Equal(t, "PLANO AMOSTRAL — PORTO NACIONAL / TO", title)

	rows, err := f.GetRows(SheetPlan)
	require.NoError(t, err)
	last := rows[len(rows)-1]
	assert.Equal(t, "TOTAL", last[0])
	assert.Equal(t, "1500", last[1])

	methodology, err := f.GetCellValue(SheetMethodology, "A2")
	require.NoError(t, err)
	assert.Equal(t, doc.Plan.Methodology, methodology)
}

func TestRender_Errors(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, Render(&buf, FormatJSON, &Document{}))
	assert.ErrorIs(t, Render(&buf, Format("pdf"), testDocument(t)), ErrUnsupportedFormat)
}
