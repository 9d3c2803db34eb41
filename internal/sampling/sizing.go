package sampling

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// SizingInput is the statistical universe of a sizing request.
type SizingInput struct {
	Population int
	Zones      int
	Confidence Confidence
	Margin     float64
}

// SampleSizeResult describes every step from the Cochran minimum to the
// field target.
type SampleSizeResult struct {
	Population     int        `json:"population"`
	Zones          int        `json:"zones"`
	Confidence     Confidence `json:"confidence_pct"`
	Z              float64    `json:"z"`
	Margin         float64    `json:"margin"`
	Theoretical    float64    `json:"theoretical"`
	MinimumCochran int        `json:"minimum_cochran"`
	DesignEffect   float64    `json:"design_effect"`
	DesignAdjusted int        `json:"design_adjusted"`
	MunicipalFloor int        `json:"municipal_floor"`
	ZoneFloor      int        `json:"zone_floor"`
	Base           int        `json:"base"`
	Recommended    int        `json:"recommended"`
	ResponseRate   float64    `json:"response_rate"`
	FieldTarget    int        `json:"field_target"`
	RealizedMargin float64    `json:"realized_margin"`
}

func validateUniverse(population int, margin float64) error {
	if population <= 1 {
		return fmt.Errorf("%w: population must be greater than 1, got %d", ErrInvalidPopulation, population)
	}
	if math.IsNaN(margin) || margin <= 0 || margin >= 1 {
		return fmt.Errorf("%w: margin of error %v outside (0, 1)", ErrInvalidParameter, margin)
	}
	return nil
}

// CochranMinimum returns the unrounded finite-population sample size n0.
func CochranMinimum(population int, confidence Confidence, margin float64) (float64, error) {
	if err := validateUniverse(population, margin); err != nil {
		return 0, err
	}
	z, err := confidence.Z()
	if err != nil {
		return 0, err
	}
	pq := policy.Proportion * (1 - policy.Proportion)
	n := float64(population)
	z2pq := z * z * pq
	return z2pq * n / (margin*margin*(n-1) + z2pq), nil
}

// ComputeSampleSize runs the full sizing policy for one universe.
func ComputeSampleSize(in SizingInput) (*SampleSizeResult, error) {
	if in.Zones < 0 {
		return nil, fmt.Errorf("%w: zone count %d is negative", ErrInvalidParameter, in.Zones)
	}
	n0, err := CochranMinimum(in.Population, in.Confidence, in.Margin)
	if err != nil {
		return nil, err
	}
	z, _ := in.Confidence.Z()

	minimum := int(math.Ceil(n0))
	adjusted := int(decimal.NewFromInt(int64(minimum)).
		Mul(decimal.NewFromFloat(policy.DesignEffect)).
		Ceil().IntPart())
	zoneFloor := policy.PerZoneFloor * in.Zones
	base := max(adjusted, policy.MunicipalFloor, zoneFloor)
	recommended := roundUp(base, policy.Granularity)

	res := &SampleSizeResult{
		Population:     in.Population,
		Zones:          in.Zones,
		Confidence:     in.Confidence,
		Z:              z,
		Margin:         in.Margin,
		Theoretical:    n0,
		MinimumCochran: minimum,
		DesignEffect:   policy.DesignEffect,
		DesignAdjusted: adjusted,
		MunicipalFloor: policy.MunicipalFloor,
		ZoneFloor:      zoneFloor,
		Base:           base,
		Recommended:    recommended,
		ResponseRate:   policy.ResponseRate,
		FieldTarget:    FieldTarget(recommended),
	}
	res.RealizedMargin, err = RealizedMargin(in.Population, in.Confidence, recommended)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// FieldTarget inflates completed interviews by the expected response rate
// and rounds to the policy granularity.
func FieldTarget(completed int) int {
	if completed <= 0 {
		return 0
	}
	contacts := decimal.NewFromInt(int64(completed)).
		Div(decimal.NewFromFloat(policy.ResponseRate)).
		Ceil().IntPart()
	return roundUp(int(contacts), policy.Granularity)
}

// RealizedMargin inverts the Cochran formula: the margin of error actually
// achieved by n interviews out of population. It is 0 once n covers the
// whole population.
func RealizedMargin(population int, confidence Confidence, n int) (float64, error) {
	if population <= 1 {
		return 0, fmt.Errorf("%w: population must be greater than 1, got %d", ErrInvalidPopulation, population)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%w: sample size must be positive, got %d", ErrInvalidParameter, n)
	}
	z, err := confidence.Z()
	if err != nil {
		return 0, err
	}
	if n >= population {
		return 0, nil
	}
	pq := policy.Proportion * (1 - policy.Proportion)
	N := float64(population)
	fpc := math.Sqrt((N - float64(n)) / (N - 1))
	return z * math.Sqrt(pq/float64(n)) * fpc, nil
}
