package pipeline

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"instituto-amostral/internal/dataset"
	"instituto-amostral/internal/model"
	"instituto-amostral/internal/sampling"
	"instituto-amostral/pkg/utils"
)

// ZoneKey identifies an electoral zone of a municipality.
type ZoneKey struct {
	UF           string
	Municipality string
	Zone         int
}

// ProfileKey identifies a raw profile category of a municipality.
type ProfileKey struct {
	UF           string
	Municipality string
	Axis         sampling.Axis
	Category     string
}

// ZoneTotals accumulates the electorate of a zone.
type ZoneTotals struct {
	Total    int
	Female   int
	Male     int
	sections map[int]struct{}
}

// Sections is the number of distinct sections seen in the zone.
func (z *ZoneTotals) Sections() int { return len(z.sections) }

// Aggregate is the merged output of the aggregation workers.
type Aggregate struct {
	Zones           map[ZoneKey]*ZoneTotals
	Profile         map[ProfileKey]int
	GenerationDates map[string]struct{}
	Records         int64
}

func newAggregate() *Aggregate {
	return &Aggregate{
		Zones:           make(map[ZoneKey]*ZoneTotals),
		Profile:         make(map[ProfileKey]int),
		GenerationDates: make(map[string]struct{}),
	}
}

// Canonicalizer maps TSE municipality names onto the IBGE spelling.
type Canonicalizer struct {
	names map[[2]string]string
}

// NewCanonicalizer indexes the IBGE names by UF and normalized name.
func NewCanonicalizer(records []model.MunicipalityRecord) *Canonicalizer {
	c := &Canonicalizer{names: make(map[[2]string]string, len(records))}
	for _, r := range records {
		c.names[[2]string{strings.ToUpper(r.UF), utils.NormalizeName(r.Name)}] = r.Name
	}
	return c
}

// Name returns the IBGE spelling, or the title-cased TSE name when IBGE
// does not know the municipality.
func (c *Canonicalizer) Name(uf, name string) string {
	if n, ok := c.names[[2]string{uf, utils.NormalizeName(name)}]; ok {
		return n
	}
	// Casers keep state, so each call gets its own.
	return cases.Title(language.BrazilianPortuguese).String(strings.ToLower(strings.TrimSpace(name)))
}

// add folds one section row into the partial aggregate.
func (a *Aggregate) add(rec model.SectionRecord, canon *Canonicalizer) {
	name := canon.Name(rec.UF, rec.Municipality)
	zk := ZoneKey{UF: rec.UF, Municipality: name, Zone: rec.Zone}
	zt, ok := a.Zones[zk]
	if !ok {
		zt = &ZoneTotals{sections: make(map[int]struct{})}
		a.Zones[zk] = zt
	}
	zt.Total += rec.Voters
	switch g, _ := dataset.MapGender(rec.Gender); g {
	case dataset.GenderOrder[0]:
		zt.Female += rec.Voters
	case dataset.GenderOrder[1]:
		zt.Male += rec.Voters
	}
	if rec.Section > 0 {
		zt.sections[rec.Section] = struct{}{}
	}
	if rec.GeneratedAt != "" {
		a.GenerationDates[rec.GeneratedAt] = struct{}{}
	}

	for axis, label := range map[sampling.Axis]string{
		sampling.AxisGender:    rec.Gender,
		sampling.AxisEducation: rec.Education,
		sampling.AxisAge:       rec.AgeBracket,
	} {
		if label == "" {
			label = "N/D"
		}
		a.Profile[ProfileKey{UF: rec.UF, Municipality: name, Axis: axis, Category: label}] += rec.Voters
	}
	a.Records++
}

// merge folds another partial aggregate into a.
func (a *Aggregate) merge(other *Aggregate) {
	for k, zt := range other.Zones {
		cur, ok := a.Zones[k]
		if !ok {
			a.Zones[k] = zt
			continue
		}
		cur.Total += zt.Total
		cur.Female += zt.Female
		cur.Male += zt.Male
		for s := range zt.sections {
			cur.sections[s] = struct{}{}
		}
	}
	for k, n := range other.Profile {
		a.Profile[k] += n
	}
	for d := range other.GenerationDates {
		a.GenerationDates[d] = struct{}{}
	}
	a.Records += other.Records
}

// AggregateRecords sums the validated rows by zone and by profile category
// using workerCount partial aggregates merged at the end.
func AggregateRecords(ctx context.Context, in <-chan model.SectionRecord, canon *Canonicalizer, workerCount int) *Aggregate {
	if workerCount < 1 {
		workerCount = 1
	}
	partials := make([]*Aggregate, workerCount)
	var wg sync.WaitGroup
	wg.Add(workerCount)
	for i := range partials {
		partials[i] = newAggregate()
		go func(part *Aggregate) {
			defer wg.Done()
			for rec := range in {
				if ctx.Err() != nil {
					continue
				}
				part.add(rec, canon)
			}
		}(partials[i])
	}
	wg.Wait()

	result := partials[0]
	for _, p := range partials[1:] {
		result.merge(p)
	}
	return result
}
