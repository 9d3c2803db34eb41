package report

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
)

// csvHeader matches the zone table of the markdown and Excel reports.
var csvHeader = []string{
	"ZONA", "ELEITORES_TOTAL", "ELEITORES_FEMININO", "ELEITORES_MASCULINO", "SECOES",
	"QUOTA", "QUOTA_FEMININO", "QUOTA_MASCULINO", "PCT_ELEITORADO",
}

func renderCSV(w io.Writer, doc *Document) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, z := range doc.Plan.Zones {
		if err := cw.Write([]string{
			strconv.Itoa(z.Zone), strconv.Itoa(z.Total), strconv.Itoa(z.Female), strconv.Itoa(z.Male),
			strconv.Itoa(z.Sections), strconv.Itoa(z.Quota), strconv.Itoa(z.FemaleQuota), strconv.Itoa(z.MaleQuota),
			strconv.FormatFloat(z.Share, 'f', 2, 64),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func renderJSON(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
