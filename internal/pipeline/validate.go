package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"instituto-amostral/internal/model"
)

// DefaultValidation applies to sources without explicit rules.
var DefaultValidation = model.ValidationRules{
	RequiredFields: []string{"NM_MUNICIPIO"},
	MinValues:      map[string]float64{"NR_ZONA": 1, "QT_ELEITORES": 0},
}

// ValidateRecords checks rows against the rules of their source and
// forwards the valid ones. out is closed when in is drained.
func ValidateRecords(
	ctx context.Context,
	sources []model.Source,
	in <-chan model.SectionRecord,
	out chan<- model.SectionRecord,
	errs chan<- model.ErrorDetail,
	workerCount int,
) (valid, invalid int64) {
	defer close(out)
	if workerCount < 1 {
		workerCount = 1
	}

	rulesBySource := make(map[string]sourceRules, len(sources))
	for _, src := range sources {
		rules := DefaultValidation
		if src.Validation != nil {
			rules = *src.Validation
		}
		rulesBySource[src.URL] = sourceRules{uf: strings.ToUpper(src.UF), rules: rules}
	}

	var validCount, invalidCount atomic.Int64
	var wg sync.WaitGroup
	wg.Add(workerCount)
	for i := 0; i < workerCount; i++ {
		go func() {
			defer wg.Done()
			for rec := range in {
				if err := validateRecord(rec, rulesBySource[rec.SourceURL]); err != nil {
					invalidCount.Add(1)
					select {
					case errs <- model.ErrorDetail{Stage: "validation", Message: err.Error(), SourceURL: rec.SourceURL, Line: rec.Line, Timestamp: time.Now()}:
					case <-ctx.Done():
					}
					continue
				}
				select {
				case out <- rec:
					validCount.Add(1)
				case <-ctx.Done():
					// keep draining so ingestion never blocks on a full channel
				}
			}
		}()
	}
	wg.Wait()
	return validCount.Load(), invalidCount.Load()
}

type sourceRules struct {
	uf    string
	rules model.ValidationRules
}

// sectionField exposes a row by its TSE column name for rule checks.
func sectionField(rec model.SectionRecord, name string) (string, float64, bool) {
	switch name {
	case "SG_UF":
		return rec.UF, 0, false
	case "NM_MUNICIPIO":
		return rec.Municipality, 0, false
	case "DS_GENERO":
		return rec.Gender, 0, false
	case "DS_GRAU_INSTRUCAO", "DS_GRAU_ESCOLARIDADE":
		return rec.Education, 0, false
	case "DS_FAIXA_ETARIA":
		return rec.AgeBracket, 0, false
	case "NR_ZONA":
		return "", float64(rec.Zone), true
	case "NR_SECAO":
		return "", float64(rec.Section), true
	case "QT_ELEITORES", "QT_ELEITORES_PERFIL":
		return "", float64(rec.Voters), true
	}
	return "", 0, false
}

// validateRecord applies per-source validation rules to a row.
func validateRecord(rec model.SectionRecord, sr sourceRules) error {
	if sr.uf != "" && rec.UF != sr.uf {
		return fmt.Errorf("line %d: UF %q does not belong to source %s", rec.Line, rec.UF, sr.uf)
	}
	if len(sr.rules.AllowedUFs) > 0 {
		allowed := false
		for _, uf := range sr.rules.AllowedUFs {
			if strings.EqualFold(uf, rec.UF) {
				allowed = true
				break
			}
		}
		if !allowed {
			return fmt.Errorf("line %d: UF %q not allowed", rec.Line, rec.UF)
		}
	}
	for _, field := range sr.rules.RequiredFields {
		if s, _, numeric := sectionField(rec, field); !numeric && strings.TrimSpace(s) == "" {
			return fmt.Errorf("line %d: missing required field %s", rec.Line, field)
		}
	}
	for field, min := range sr.rules.MinValues {
		if _, v, numeric := sectionField(rec, field); numeric && v < min {
			return fmt.Errorf("line %d: field %s below minimum: got %v, want ≥ %v", rec.Line, field, v, min)
		}
	}
	for field, max := range sr.rules.MaxValues {
		if _, v, numeric := sectionField(rec, field); numeric && v > max {
			return fmt.Errorf("line %d: field %s above maximum: got %v, want ≤ %v", rec.Line, field, v, max)
		}
	}
	return nil
}
