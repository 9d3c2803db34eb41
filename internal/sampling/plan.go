package sampling

import (
	"fmt"
	"math"
)

// ZoneElectorate is the registered electorate of one electoral zone.
type ZoneElectorate struct {
	Zone     int `json:"zone"`
	Total    int `json:"total"`
	Female   int `json:"female"`
	Male     int `json:"male"`
	Sections int `json:"sections"`
}

// Municipality identifies the surveyed universe.
type Municipality struct {
	UF           string   `json:"uf"`
	Name         string   `json:"name"`
	IBGEID       int      `json:"ibge_id,omitempty"`
	Population   int      `json:"population,omitempty"`
	HDI          *float64 `json:"hdi,omitempty"`
	GDPPerCapita *float64 `json:"gdp_per_capita,omitempty"`
}

// SizingMode tells whether the final size came from the calculator or from
// the caller.
type SizingMode string

const (
	SizingAutomatic SizingMode = "automatico"
	SizingManual    SizingMode = "manual"
)

// ZoneQuota is a zone row of the plan.
type ZoneQuota struct {
	ZoneElectorate
	Quota       int     `json:"quota"`
	FemaleQuota int     `json:"female_quota"`
	MaleQuota   int     `json:"male_quota"`
	Share       float64 `json:"share_pct"`
}

// BenchmarkRow is one category of a benchmark table.
type BenchmarkRow struct {
	Category string  `json:"category"`
	Quota    int     `json:"quota"`
	Percent  float64 `json:"pct"`
}

// BenchmarkTable is the final sample apportioned along one axis.
type BenchmarkTable struct {
	Axis       Axis           `json:"axis"`
	Title      string         `json:"title"`
	Provenance Provenance     `json:"provenance"`
	Source     string         `json:"source"`
	Rows       []BenchmarkRow `json:"rows"`
	Total      int            `json:"total"`
}

// FinalSize is the resolved sample size of a plan.
type FinalSize struct {
	Size           int        `json:"size"`
	Mode           SizingMode `json:"mode"`
	Requested      *int       `json:"requested,omitempty"`
	RealizedMargin float64    `json:"realized_margin"`
	BelowMinimum   bool       `json:"below_minimum"`
}

// Plan is the complete stratified sampling plan of a municipality.
type Plan struct {
	Municipality    Municipality     `json:"municipality"`
	Confidence      Confidence       `json:"confidence_pct"`
	Margin          float64          `json:"margin"`
	Sizing          SampleSizeResult `json:"sizing"`
	Final           FinalSize        `json:"final"`
	TotalElectorate int              `json:"total_electorate"`
	Zones           []ZoneQuota      `json:"zones"`
	Benchmarks      []BenchmarkTable `json:"benchmarks"`
	Notes           []string         `json:"notes,omitempty"`
	Methodology     string           `json:"methodology"`
}

// PlanInput gathers everything BuildPlan consumes.
type PlanInput struct {
	Municipality Municipality
	Zones        []ZoneElectorate
	Sizing       SampleSizeResult
	Override     *int
	Profiles     ProfileSources
}

const genderSource = "TSE (eleitorado municipal por zona)"

// ResolveFinalSize applies a caller override to the calculator output. An
// override below the Cochran minimum is kept and flagged, never raised.
func ResolveFinalSize(sizing SampleSizeResult, override *int) (FinalSize, error) {
	if sizing.Recommended <= 0 {
		return FinalSize{}, fmt.Errorf("%w: sizing result has no recommended size", ErrInvalidParameter)
	}
	if override == nil {
		return FinalSize{
			Size:           sizing.Recommended,
			Mode:           SizingAutomatic,
			RealizedMargin: sizing.RealizedMargin,
		}, nil
	}
	n := *override
	if n <= 0 {
		return FinalSize{}, fmt.Errorf("%w: sample size override must be positive, got %d", ErrInvalidParameter, n)
	}
	margin, err := RealizedMargin(sizing.Population, sizing.Confidence, n)
	if err != nil {
		return FinalSize{}, err
	}
	requested := n
	return FinalSize{
		Size:           n,
		Mode:           SizingManual,
		Requested:      &requested,
		RealizedMargin: margin,
		BelowMinimum:   n < sizing.MinimumCochran,
	}, nil
}

// BuildPlan apportions the final sample across zones, gender within each
// zone and every benchmark axis.
func BuildPlan(in PlanInput) (*Plan, error) {
	if len(in.Zones) == 0 {
		return nil, fmt.Errorf("%w: %s/%s has no electoral zones", ErrInvalidPopulation, in.Municipality.Name, in.Municipality.UF)
	}
	electorate, female, male := 0, 0, 0
	for _, z := range in.Zones {
		if z.Total < 0 || z.Female < 0 || z.Male < 0 {
			return nil, fmt.Errorf("%w: zone %d has negative counts", ErrInvalidParameter, z.Zone)
		}
		electorate += z.Total
		female += z.Female
		male += z.Male
	}
	if electorate == 0 {
		return nil, fmt.Errorf("%w: %s/%s has no registered voters", ErrInvalidPopulation, in.Municipality.Name, in.Municipality.UF)
	}

	final, err := ResolveFinalSize(in.Sizing, in.Override)
	if err != nil {
		return nil, err
	}

	zones, err := apportionZones(final.Size, in.Zones, electorate)
	if err != nil {
		return nil, err
	}

	plan := &Plan{
		Municipality:    in.Municipality,
		Confidence:      in.Sizing.Confidence,
		Margin:          in.Sizing.Margin,
		Sizing:          in.Sizing,
		Final:           final,
		TotalElectorate: electorate,
		Zones:           zones,
	}

	gender, err := benchmarkTable(AxisGender, ProvenanceReal, genderSource, final.Size, Distribution{
		{Category: "FEMININO", Share: float64(female)},
		{Category: "MASCULINO", Share: float64(male)},
	})
	if err != nil {
		return nil, err
	}
	plan.Benchmarks = append(plan.Benchmarks, gender)

	for _, axis := range BenchmarkAxes {
		profile, err := in.Profiles.Resolve(in.Municipality.UF, in.Municipality.Name, axis)
		if err != nil {
			return nil, err
		}
		table, err := benchmarkTable(axis, profile.Provenance, profile.Source, final.Size, profile.Distribution)
		if err != nil {
			return nil, err
		}
		if profile.Provenance == ProvenanceCalibrated {
			plan.Notes = append(plan.Notes, fmt.Sprintf(
				"Perfil municipal real indisponível para %s; aplicado perfil calibrado (%s).",
				axis.Title(), profile.Source))
		}
		plan.Benchmarks = append(plan.Benchmarks, table)
	}

	if final.Mode == SizingManual && final.RealizedMargin > in.Sizing.Margin {
		plan.Notes = append(plan.Notes, fmt.Sprintf(
			"Amostra informada (%d) abaixo do necessário para ±%.1f%%: margem efetiva estimada em ±%.2f%%.",
			final.Size, in.Sizing.Margin*100, final.RealizedMargin*100))
	}

	plan.Methodology = Methodology(plan)
	return plan, nil
}

func apportionZones(final int, zones []ZoneElectorate, electorate int) ([]ZoneQuota, error) {
	weights := make([]float64, len(zones))
	for i, z := range zones {
		weights[i] = float64(z.Total)
	}
	quotas, err := Apportion(final, weights)
	if err != nil {
		return nil, err
	}

	out := make([]ZoneQuota, len(zones))
	for i, z := range zones {
		split, err := Apportion(quotas[i], []float64{float64(z.Female), float64(z.Male)})
		if err != nil {
			return nil, err
		}
		out[i] = ZoneQuota{
			ZoneElectorate: z,
			Quota:          quotas[i],
			FemaleQuota:    split[0],
			MaleQuota:      split[1],
			Share:          round(float64(z.Total)/float64(electorate)*100, 2),
		}
	}
	return out, nil
}

func benchmarkTable(axis Axis, prov Provenance, source string, final int, dist Distribution) (BenchmarkTable, error) {
	buckets := make([]Bucket, len(dist))
	for i, c := range dist {
		buckets[i] = Bucket{Label: c.Category, Weight: c.Share}
	}
	alloc, err := ApportionBuckets(final, buckets)
	if err != nil {
		return BenchmarkTable{}, fmt.Errorf("%s benchmark: %w", axis, err)
	}
	rows := make([]BenchmarkRow, len(alloc))
	for i, a := range alloc {
		pct := 0.0
		if final > 0 {
			pct = round(float64(a.Quota)/float64(final)*100, 2)
		}
		rows[i] = BenchmarkRow{Category: a.Label, Quota: a.Quota, Percent: pct}
	}
	return BenchmarkTable{
		Axis:       axis,
		Title:      axis.Title(),
		Provenance: prov,
		Source:     source,
		Rows:       rows,
		Total:      alloc.Total(),
	}, nil
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
