// Package report renders sampling plans as markdown, Excel, CSV and JSON.
package report

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"instituto-amostral/internal/model"
	"instituto-amostral/internal/sampling"
	"instituto-amostral/pkg/utils"
)

// ErrUnsupportedFormat is returned for formats this service does not render.
var ErrUnsupportedFormat = errors.New("unsupported report format")

// Format is an output format of a plan.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatExcel    Format = "excel"
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
)

// DefaultFormat is used when a request names none.
const DefaultFormat = FormatExcel

// Formats lists the supported formats.
func Formats() []Format {
	return []Format{FormatExcel, FormatMarkdown, FormatCSV, FormatJSON}
}

// ParseFormat resolves a format name. Blank means DefaultFormat.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return DefaultFormat, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "excel", "xlsx":
		return FormatExcel, nil
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// Ext is the file extension of the format.
func (f Format) Ext() string {
	switch f {
	case FormatMarkdown:
		return ".md"
	case FormatExcel:
		return ".xlsx"
	case FormatCSV:
		return ".csv"
	case FormatJSON:
		return ".json"
	}
	return ""
}

// Document is everything a rendered plan shows.
type Document struct {
	Plan          *sampling.Plan      `json:"plan"`
	Scenarios     []sampling.Scenario `json:"scenarios,omitempty"`
	Justification string              `json:"justification,omitempty"`
	Sources       *model.SourceMeta   `json:"sources,omitempty"`
	GeneratedAt   time.Time           `json:"generated_at"`
}

// FileName is the name of a plan file: TO_Palmas_plano.xlsx.
func FileName(m sampling.Municipality, f Format) string {
	return utils.Slug(m.UF, m.Name) + "_plano" + f.Ext()
}

// Render writes doc to w in format f.
func Render(w io.Writer, f Format, doc *Document) error {
	if doc == nil || doc.Plan == nil {
		return errors.New("report: empty document")
	}
	switch f {
	case FormatMarkdown:
		return renderMarkdown(w, doc)
	case FormatExcel:
		return renderExcel(w, doc)
	case FormatCSV:
		return renderCSV(w, doc)
	case FormatJSON:
		return renderJSON(w, doc)
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
}

// WriteFile renders doc into path.
func WriteFile(path string, f Format, doc *Document) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Render(out, f, doc); err != nil {
		out.Close()
		os.Remove(path)
		return err
	}
	return out.Close()
}

func timestamp(doc *Document) string {
	t := doc.GeneratedAt
	if t.IsZero() {
		t = time.Now()
	}
	return t.Format("02/01/2006 15:04")
}

func percent(v float64, places int) string {
	return strings.Replace(fmt.Sprintf("%.*f", places, v), ".", ",", 1)
}

func provenanceLabel(p sampling.Provenance) string {
	if p == sampling.ProvenanceCalibrated {
		return "calibrado"
	}
	return "real"
}
