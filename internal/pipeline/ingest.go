package pipeline

import (
	"archive/zip"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding/charmap"

	"instituto-amostral/internal/model"
	"instituto-amostral/pkg/utils"
)

// sectionColumns lists the accepted header names of each field. TSE renamed
// some columns between releases.
var sectionColumns = map[string][]string{
	"uf":        {"SG_UF"},
	"municipio": {"NM_MUNICIPIO"},
	"zona":      {"NR_ZONA"},
	"secao":     {"NR_SECAO"},
	"genero":    {"DS_GENERO"},
	"instrucao": {"DS_GRAU_INSTRUCAO", "DS_GRAU_ESCOLARIDADE"},
	"faixa":     {"DS_FAIXA_ETARIA"},
	"eleitores": {"QT_ELEITORES", "QT_ELEITORES_PERFIL"},
	"geracao":   {"DT_GERACAO"},
}

var requiredSectionColumns = []string{"uf", "municipio", "zona", "eleitores"}

// StartIngestion reads every source with at most workers files in flight.
// The first failing source cancels the others.
func StartIngestion(ctx context.Context, client *SourceClient, sources []model.Source, workers int, out chan<- model.SectionRecord) ([]model.SourceMetrics, error) {
	if workers < 1 {
		workers = 1
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var mu sync.Mutex
	metrics := make([]model.SourceMetrics, 0, len(sources))
	for _, src := range sources {
		src := src
		g.Go(func() error {
			m, err := IngestSource(ctx, client, src, out)
			mu.Lock()
			metrics = append(metrics, m)
			mu.Unlock()
			if err != nil {
				return fmt.Errorf("ingest %s (%s): %w", src.UF, src.URL, err)
			}
			return nil
		})
	}
	err := g.Wait()
	return metrics, err
}

// IngestSource streams the rows of one TSE per-section file into out.
func IngestSource(ctx context.Context, client *SourceClient, src model.Source, out chan<- model.SectionRecord) (model.SourceMetrics, error) {
	start := time.Now()
	metrics := model.SourceMetrics{SourceURL: src.URL, UF: src.UF}
	client.Logger.Info("ingesting source", zap.String("uf", src.UF), zap.String("url", src.URL))

	path := src.URL
	if strings.HasPrefix(src.URL, "http://") || strings.HasPrefix(src.URL, "https://") {
		tmp, err := client.download(ctx, src.URL, "tse_*_"+src.UF)
		if err != nil {
			return metrics, err
		}
		defer os.Remove(tmp)
		path = tmp
	}
	metrics.Attempts = 1

	rc, err := openSectionFile(path, src.Type)
	if err != nil {
		return metrics, err
	}
	defer rc.Close()

	n, err := readSections(ctx, rc, src, out)
	metrics.RecordsIngested = n
	metrics.IngestionTime = time.Since(start)
	client.Logger.Info("source ingested",
		zap.String("uf", src.UF),
		zap.Int64("records", n),
		zap.Duration("elapsed", metrics.IngestionTime))
	return metrics, err
}

type zipEntry struct {
	io.ReadCloser
	archive *zip.ReadCloser
}

func (z zipEntry) Close() error {
	err := z.ReadCloser.Close()
	if cerr := z.archive.Close(); err == nil {
		err = cerr
	}
	return err
}

// openSectionFile opens a plain CSV or the first CSV inside a ZIP archive.
func openSectionFile(path, kind string) (io.ReadCloser, error) {
	if strings.EqualFold(kind, "zip") || strings.EqualFold(filepath.Ext(path), ".zip") {
		archive, err := zip.OpenReader(path)
		if err != nil {
			return nil, Permanent(fmt.Errorf("open zip: %w", err))
		}
		for _, f := range archive.File {
			if strings.EqualFold(filepath.Ext(f.Name), ".csv") {
				rc, err := f.Open()
				if err != nil {
					archive.Close()
					return nil, err
				}
				return zipEntry{ReadCloser: rc, archive: archive}, nil
			}
		}
		archive.Close()
		return nil, Permanent(fmt.Errorf("zip archive %s has no CSV", filepath.Base(path)))
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, Permanent(err)
	}
	return f, nil
}

// readSections decodes a latin-1, semicolon separated TSE file.
func readSections(ctx context.Context, r io.Reader, src model.Source, out chan<- model.SectionRecord) (int64, error) {
	reader := csv.NewReader(charmap.ISO8859_1.NewDecoder().Reader(r))
	reader.Comma = ';'
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read header: %w", err)
	}
	cols := resolveColumns(header)
	for _, c := range requiredSectionColumns {
		if _, ok := cols[c]; !ok {
			return 0, Permanent(fmt.Errorf("missing column %s", sectionColumns[c][0]))
		}
	}
	field := func(rec []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}
	number := func(rec []string, name string) int {
		n, err := utils.ParseInt(field(rec, name))
		if err != nil {
			return 0
		}
		return n
	}

	var count int64
	line := 1
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			return count, nil
		}
		line++
		if err != nil {
			return count, fmt.Errorf("line %d: %w", line, err)
		}
		row := model.SectionRecord{
			UF:           strings.ToUpper(field(rec, "uf")),
			Municipality: field(rec, "municipio"),
			Zone:         number(rec, "zona"),
			Section:      number(rec, "secao"),
			Gender:       field(rec, "genero"),
			Education:    field(rec, "instrucao"),
			AgeBracket:   field(rec, "faixa"),
			Voters:       number(rec, "eleitores"),
			GeneratedAt:  field(rec, "geracao"),
			SourceURL:    src.URL,
			Line:         line,
		}
		select {
		case <-ctx.Done():
			return count, ctx.Err()
		case out <- row:
			count++
		}
	}
}

func resolveColumns(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToUpper(strings.Trim(strings.TrimSpace(h), `"`))] = i
	}
	cols := make(map[string]int, len(sectionColumns))
	for field, names := range sectionColumns {
		for _, n := range names {
			if i, ok := index[n]; ok {
				cols[field] = i
				break
			}
		}
	}
	return cols
}
