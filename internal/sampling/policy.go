package sampling

import (
	"fmt"
	"math"
	"sort"
)

// Confidence is a supported confidence level expressed in percent.
type Confidence int

const (
	Confidence90 Confidence = 90
	Confidence95 Confidence = 95
	Confidence99 Confidence = 99
)

// criticalValues maps each supported confidence level to its two-sided Z.
var criticalValues = map[Confidence]float64{
	Confidence90: 1.645,
	Confidence95: 1.96,
	Confidence99: 2.576,
}

// Z returns the critical value for c.
func (c Confidence) Z() (float64, error) {
	z, ok := criticalValues[c]
	if !ok {
		return 0, fmt.Errorf("%w: unsupported confidence level %d%%", ErrInvalidParameter, int(c))
	}
	return z, nil
}

// Fraction returns c as a fraction (95 -> 0.95).
func (c Confidence) Fraction() float64 { return float64(c) / 100 }

func (c Confidence) String() string { return fmt.Sprintf("%d%%", int(c)) }

// ParseConfidence accepts either a fraction (0.95) or a percentage (95).
func ParseConfidence(v float64) (Confidence, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, fmt.Errorf("%w: confidence level %v", ErrInvalidParameter, v)
	}
	pct := v
	if v < 1 {
		pct = v * 100
	}
	c := Confidence(math.Round(pct))
	if math.Abs(pct-float64(c)) > 1e-6 {
		return 0, fmt.Errorf("%w: unsupported confidence level %v", ErrInvalidParameter, v)
	}
	if _, err := c.Z(); err != nil {
		return 0, err
	}
	return c, nil
}

// SupportedConfidences lists the accepted levels in ascending order.
func SupportedConfidences() []Confidence {
	out := make([]Confidence, 0, len(criticalValues))
	for c := range criticalValues {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Policy holds the fixed operational constants applied on top of the
// Cochran minimum.
type Policy struct {
	Proportion     float64 `json:"proportion"`
	DesignEffect   float64 `json:"design_effect"`
	ResponseRate   float64 `json:"response_rate"`
	MunicipalFloor int     `json:"municipal_floor"`
	PerZoneFloor   int     `json:"per_zone_floor"`
	Granularity    int     `json:"granularity"`
}

var policy = Policy{
	Proportion:     0.5,
	DesignEffect:   1.3,
	ResponseRate:   0.80,
	MunicipalFloor: 400,
	PerZoneFloor:   12,
	Granularity:    10,
}

// CurrentPolicy returns a copy of the sizing constants.
func CurrentPolicy() Policy { return policy }

// roundUp rounds n up to the next multiple of step.
func roundUp(n, step int) int {
	if step <= 1 || n%step == 0 {
		return n
	}
	return (n/step + 1) * step
}
