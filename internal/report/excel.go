package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"instituto-amostral/internal/sampling"
)

// Sheet names of the workbook.
const (
	SheetPlan        = "Plano Amostral"
	SheetBenchmark   = "Benchmark"
	SheetScenarios   = "Cenários"
	SheetMethodology = "Metodologia"
)

const (
	colorHeader = "1A3A5C"
	colorSub    = "2E7D9E"
	colorLight  = "F0F4F8"
)

type styles struct {
	title, subtitle, header, cell, bold, total int
}

func newStyles(f *excelize.File) (styles, error) {
	var s styles
	border := []excelize.Border{
		{Type: "left", Color: "CCCCCC", Style: 1},
		{Type: "right", Color: "CCCCCC", Style: 1},
		{Type: "top", Color: "CCCCCC", Style: 1},
		{Type: "bottom", Color: "CCCCCC", Style: 1},
	}
	defs := []struct {
		dst   *int
		style *excelize.Style
	}{
		{&s.title, &excelize.Style{
			Font:      &excelize.Font{Bold: true, Size: 14, Color: "FFFFFF", Family: "Calibri"},
			Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{colorHeader}},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		}},
		{&s.subtitle, &excelize.Style{
			Font:      &excelize.Font{Italic: true, Size: 10, Color: "FFFFFF", Family: "Calibri"},
			Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{colorSub}},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		}},
		{&s.header, &excelize.Style{
			Font:      &excelize.Font{Bold: true, Color: "FFFFFF", Family: "Calibri"},
			Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{colorHeader}},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
			Border:    border,
		}},
		{&s.cell, &excelize.Style{
			Font:   &excelize.Font{Family: "Calibri"},
			Border: border,
		}},
		{&s.bold, &excelize.Style{
			Font:   &excelize.Font{Bold: true, Family: "Calibri"},
			Border: border,
		}},
		{&s.total, &excelize.Style{
			Font:   &excelize.Font{Bold: true, Family: "Calibri"},
			Fill:   excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{colorLight}},
			Border: border,
		}},
	}
	for _, d := range defs {
		id, err := f.NewStyle(d.style)
		if err != nil {
			return s, err
		}
		*d.dst = id
	}
	return s, nil
}

// sheetWriter tracks the cursor while a sheet is filled row by row.
type sheetWriter struct {
	f     *excelize.File
	sheet string
	row   int
	err   error
}

func (w *sheetWriter) cell(col, row int) string {
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil && w.err == nil {
		w.err = err
	}
	return name
}

// put writes values starting at column 1 of the current row, styles them
// and advances the cursor.
func (w *sheetWriter) put(style int, values ...interface{}) {
	if w.err != nil {
		return
	}
	w.row++
	for i, v := range values {
		if err := w.f.SetCellValue(w.sheet, w.cell(i+1, w.row), v); err != nil {
			w.err = err
			return
		}
	}
	if len(values) > 0 {
		if err := w.f.SetCellStyle(w.sheet, w.cell(1, w.row), w.cell(len(values), w.row), style); err != nil {
			w.err = err
		}
	}
}

// banner writes a merged full-width line.
func (w *sheetWriter) banner(style, width int, text string) {
	if w.err != nil {
		return
	}
	w.row++
	first, last := w.cell(1, w.row), w.cell(width, w.row)
	if width > 1 {
		if err := w.f.MergeCell(w.sheet, first, last); err != nil {
			w.err = err
			return
		}
	}
	if err := w.f.SetCellValue(w.sheet, first, text); err != nil {
		w.err = err
		return
	}
	w.err = w.f.SetCellStyle(w.sheet, first, last, style)
}

func (w *sheetWriter) skip() { w.row++ }

func renderExcel(out io.Writer, doc *Document) error {
	f := excelize.NewFile()
	defer f.Close()

	st, err := newStyles(f)
	if err != nil {
		return err
	}
	if err := f.SetSheetName("Sheet1", SheetPlan); err != nil {
		return err
	}
	for _, name := range []string{SheetBenchmark, SheetScenarios, SheetMethodology} {
		if _, err := f.NewSheet(name); err != nil {
			return err
		}
	}

	for _, fill := range []func(*excelize.File, styles, *Document) error{
		planSheet, benchmarkSheet, scenarioSheet, methodologySheet,
	} {
		if err := fill(f, st, doc); err != nil {
			return err
		}
	}
	f.SetActiveSheet(0)
	return f.Write(out)
}

func planSheet(f *excelize.File, st styles, doc *Document) error {
	p := doc.Plan
	w := &sheetWriter{f: f, sheet: SheetPlan}
	w.banner(st.title, 9, fmt.Sprintf("PLANO AMOSTRAL — %s / %s", strings.ToUpper(p.Municipality.Name), p.Municipality.UF))
	w.banner(st.subtitle, 9, "Instituto Amostral  |  Gerado em: "+timestamp(doc))
	w.skip()

	w.put(st.header, "Indicador", "Valor")
	summary := [][2]interface{}{
		{"Total de Eleitores", p.TotalElectorate},
		{"Amostra Mínima (Cochran)", p.Sizing.MinimumCochran},
		{"Amostra Recomendada", p.Sizing.Recommended},
		{"Amostra Final Aplicada", p.Final.Size},
		{"Modo de Dimensionamento", string(p.Final.Mode)},
		{"Alvo de Campo", sampling.FieldTarget(p.Final.Size)},
		{"Nível de Confiança", p.Confidence.String()},
		{"Margem de Erro", "±" + percent(p.Margin*100, 1) + "%"},
		{"Margem Efetiva", "±" + percent(p.Final.RealizedMargin*100, 2) + "%"},
		{"Zonas Eleitorais", len(p.Zones)},
	}
	if p.Municipality.IBGEID != 0 {
		summary = append(summary, [2]interface{}{"População (IBGE)", p.Municipality.Population})
	}
	for _, kv := range summary {
		w.put(st.cell, kv[0], kv[1])
	}
	w.skip()

	w.put(st.header, "Zona", "Eleitores", "Fem.", "Masc.", "Seções", "Quota", "Q.Fem.", "Q.Masc.", "%")
	var tot sampling.ZoneQuota
	for _, z := range p.Zones {
		w.put(st.cell, z.Zone, z.Total, z.Female, z.Male, z.Sections, z.Quota, z.FemaleQuota, z.MaleQuota, z.Share)
		tot.Total += z.Total
		tot.Female += z.Female
		tot.Male += z.Male
		tot.Sections += z.Sections
		tot.Quota += z.Quota
		tot.FemaleQuota += z.FemaleQuota
		tot.MaleQuota += z.MaleQuota
	}
	w.put(st.total, "TOTAL", tot.Total, tot.Female, tot.Male, tot.Sections, tot.Quota, tot.FemaleQuota, tot.MaleQuota, 100)
	if w.err != nil {
		return w.err
	}
	if err := f.SetColWidth(SheetPlan, "A", "A", 28); err != nil {
		return err
	}
	return f.SetColWidth(SheetPlan, "B", "I", 13)
}

func benchmarkSheet(f *excelize.File, st styles, doc *Document) error {
	w := &sheetWriter{f: f, sheet: SheetBenchmark}
	w.banner(st.title, 3, "BENCHMARK ESTRATIFICADO")
	for _, t := range doc.Plan.Benchmarks {
		w.skip()
		w.put(st.bold, t.Title)
		w.put(st.cell, fmt.Sprintf("Fonte: %s (%s)", t.Source, provenanceLabel(t.Provenance)))
		w.put(st.header, "Categoria", "V. Absoluto", "%")
		for _, r := range t.Rows {
			w.put(st.cell, r.Category, r.Quota, r.Percent)
		}
		w.put(st.total, "TOTAL", t.Total, 100)
	}
	if len(doc.Plan.Notes) > 0 {
		w.skip()
		w.put(st.bold, "Observações")
		for _, n := range doc.Plan.Notes {
			w.put(st.cell, n)
		}
	}
	if w.err != nil {
		return w.err
	}
	return f.SetColWidth(SheetBenchmark, "A", "A", 40)
}

func scenarioSheet(f *excelize.File, st styles, doc *Document) error {
	w := &sheetWriter{f: f, sheet: SheetScenarios}
	w.banner(st.title, 7, "CENÁRIOS DE DIMENSIONAMENTO")
	w.put(st.header, "Cenário", "Confiança", "Margem", "Cochran", "Recomendada", "Campo", "Margem Efetiva")
	for _, s := range doc.Scenarios {
		style := st.cell
		if s.Selected {
			style = st.total
		}
		w.put(style, s.Label, s.Confidence.String(), "±"+percent(s.Margin*100, 0)+"%",
			s.MinimumCochran, s.Recommended, s.FieldTarget, "±"+percent(s.RealizedMargin*100, 2)+"%")
	}
	if w.err != nil {
		return w.err
	}
	return f.SetColWidth(SheetScenarios, "A", "A", 28)
}

func methodologySheet(f *excelize.File, st styles, doc *Document) error {
	w := &sheetWriter{f: f, sheet: SheetMethodology}
	w.banner(st.title, 1, "NOTA METODOLÓGICA")
	w.put(st.cell, doc.Plan.Methodology)
	if doc.Justification != "" {
		w.put(st.cell, doc.Justification)
	}
	if w.err != nil {
		return w.err
	}
	wrap, err := f.NewStyle(&excelize.Style{Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"}})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetMethodology, "A2", fmt.Sprintf("A%d", w.row), wrap); err != nil {
		return err
	}
	return f.SetColWidth(SheetMethodology, "A", "A", 120)
}
