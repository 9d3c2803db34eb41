package pipeline

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"instituto-amostral/internal/dataset"
	"instituto-amostral/internal/model"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ExportDataset writes ibge.csv, tse.csv, tse_perfil.csv and
// meta_fontes.json into dir. Each file is written next to its destination
// and renamed into place.
func ExportDataset(dir string, municipalities []model.MunicipalityRecord, agg *Aggregate, meta model.SourceMeta) ([]model.ExportResult, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	var results []model.ExportResult
	steps := []struct {
		name  string
		write func(string) (int, error)
	}{
		{dataset.IBGEFile, func(p string) (int, error) { return writeIBGE(p, municipalities) }},
		{dataset.ZonesFile, func(p string) (int, error) { return writeZones(p, agg) }},
		{dataset.ProfileFile, func(p string) (int, error) { return writeProfile(p, agg) }},
		{dataset.MetaFile, func(p string) (int, error) { return 1, writeMeta(p, meta) }},
	}
	for _, step := range steps {
		path := filepath.Join(dir, step.name)
		n, err := writeAtomic(path, step.write)
		res := model.ExportResult{Type: fileType(step.name), Path: path, RecordCount: n, Success: err == nil, Timestamp: time.Now()}
		if err != nil {
			res.Error = err.Error()
			results = append(results, res)
			return results, fmt.Errorf("export %s: %w", step.name, err)
		}
		results = append(results, res)
	}
	return results, nil
}

func fileType(name string) string {
	if filepath.Ext(name) == ".json" {
		return "json"
	}
	return "csv"
}

func writeAtomic(path string, write func(string) (int, error)) (int, error) {
	tmp := path + ".tmp"
	n, err := write(tmp)
	if err != nil {
		os.Remove(tmp)
		return 0, err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return 0, err
	}
	return n, nil
}

func writeCSV(path string, header []string, rows [][]string) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	if _, err := f.Write(utf8BOM); err != nil {
		f.Close()
		return 0, err
	}
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close()
		return 0, err
	}
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return 0, err
	}
	return len(rows), f.Close()
}

func writeIBGE(path string, municipalities []model.MunicipalityRecord) (int, error) {
	sorted := make([]model.MunicipalityRecord, len(municipalities))
	copy(sorted, municipalities)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].UF != sorted[j].UF {
			return sorted[i].UF < sorted[j].UF
		}
		return sorted[i].Name < sorted[j].Name
	})
	rows := make([][]string, 0, len(sorted))
	for _, m := range sorted {
		rows = append(rows, []string{
			m.UF, m.Name, strconv.Itoa(m.IBGEID), strconv.Itoa(m.Population),
			optionalFloat(m.HDI), optionalFloat(m.GDPPerCapita),
		})
	}
	return writeCSV(path, dataset.IBGEHeader, rows)
}

func optionalFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// ZoneRows flattens the zone totals, completing the gender split when the
// source left voters without a gender.
func ZoneRows(agg *Aggregate) []model.ZoneRecord {
	out := make([]model.ZoneRecord, 0, len(agg.Zones))
	for k, zt := range agg.Zones {
		r := model.ZoneRecord{
			UF: k.UF, Municipality: k.Municipality, Zone: k.Zone,
			Total: zt.Total, Female: zt.Female, Male: zt.Male, Sections: zt.Sections(),
		}
		if missing := r.Total - r.Female - r.Male; missing > 0 {
			r.Female += missing
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.UF != b.UF {
			return a.UF < b.UF
		}
		if a.Municipality != b.Municipality {
			return a.Municipality < b.Municipality
		}
		return a.Zone < b.Zone
	})
	return out
}

func writeZones(path string, agg *Aggregate) (int, error) {
	zones := ZoneRows(agg)
	rows := make([][]string, 0, len(zones))
	for _, z := range zones {
		rows = append(rows, []string{
			z.UF, z.Municipality, strconv.Itoa(z.Zone), strconv.Itoa(z.Total),
			strconv.Itoa(z.Female), strconv.Itoa(z.Male), strconv.Itoa(z.Sections),
		})
	}
	return writeCSV(path, dataset.ZonesHeader, rows)
}

// ProfileRows flattens the profile counts in UF, municipality, dimension and
// category order.
func ProfileRows(agg *Aggregate) []model.ProfileRecord {
	out := make([]model.ProfileRecord, 0, len(agg.Profile))
	for k, n := range agg.Profile {
		out = append(out, model.ProfileRecord{
			UF: k.UF, Municipality: k.Municipality, Dimension: dataset.DimensionName(k.Axis),
			Category: k.Category, Voters: n,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.UF != b.UF:
			return a.UF < b.UF
		case a.Municipality != b.Municipality:
			return a.Municipality < b.Municipality
		case a.Dimension != b.Dimension:
			return a.Dimension < b.Dimension
		}
		return a.Category < b.Category
	})
	return out
}

func writeProfile(path string, agg *Aggregate) (int, error) {
	profile := ProfileRows(agg)
	rows := make([][]string, 0, len(profile))
	for _, p := range profile {
		rows = append(rows, []string{p.UF, p.Municipality, p.Dimension, p.Category, strconv.Itoa(p.Voters)})
	}
	return writeCSV(path, dataset.ProfileHeader, rows)
}

func writeMeta(path string, meta model.SourceMeta) error {
	b, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}
