package sampling

import (
	"fmt"
	"strings"
)

// Axis is a stratification dimension of the benchmark tables.
type Axis string

const (
	AxisGender     Axis = "genero"
	AxisEducation  Axis = "instrucao"
	AxisAge        Axis = "faixa_etaria"
	AxisIncome     Axis = "renda"
	AxisSettlement Axis = "situacao_domicilio"
)

// BenchmarkAxes are the profile-driven axes, in report order.
var BenchmarkAxes = []Axis{AxisEducation, AxisAge, AxisIncome, AxisSettlement}

var axisTitles = map[Axis]string{
	AxisGender:     "GÊNERO",
	AxisEducation:  "GRAU DE INSTRUÇÃO",
	AxisAge:        "FAIXA ETÁRIA",
	AxisIncome:     "RENDA FAMILIAR",
	AxisSettlement: "SITUAÇÃO DO DOMICÍLIO",
}

// Title is the report heading of the axis.
func (a Axis) Title() string {
	if t, ok := axisTitles[a]; ok {
		return t
	}
	return strings.ToUpper(string(a))
}

// ParseAxis resolves an axis from its identifier.
func ParseAxis(s string) (Axis, error) {
	a := Axis(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := axisTitles[a]; !ok {
		return "", fmt.Errorf("%w: unknown axis %q", ErrInvalidParameter, s)
	}
	return a, nil
}

// Provenance records where a distribution came from.
type Provenance int

const (
	ProvenanceReal Provenance = iota
	ProvenanceCalibrated
)

func (p Provenance) String() string {
	if p == ProvenanceCalibrated {
		return "calibrated"
	}
	return "real"
}

func (p Provenance) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *Provenance) UnmarshalText(b []byte) error {
	switch string(b) {
	case "real":
		*p = ProvenanceReal
	case "calibrated":
		*p = ProvenanceCalibrated
	default:
		return fmt.Errorf("unknown provenance %q", b)
	}
	return nil
}

// CategoryShare is the weight of one category within an axis.
type CategoryShare struct {
	Category string  `json:"category" yaml:"categoria"`
	Share    float64 `json:"share" yaml:"share"`
}

// Distribution is an ordered set of category weights for one axis.
type Distribution []CategoryShare

func (d Distribution) empty() bool {
	for _, c := range d {
		if c.Share > 0 {
			return false
		}
	}
	return true
}

// ProfileLookup returns the distribution of a municipality along an axis,
// reporting false when it has none.
type ProfileLookup interface {
	Distribution(uf, municipality string, axis Axis) (Distribution, string, bool)
}

// ProfileSources pairs the real municipal profile with the calibrated
// fallback. Either may be nil.
type ProfileSources struct {
	Real       ProfileLookup
	Calibrated ProfileLookup
}

// ResolvedProfile is a distribution tagged with its provenance.
type ResolvedProfile struct {
	Axis         Axis         `json:"axis"`
	Provenance   Provenance   `json:"provenance"`
	Source       string       `json:"source"`
	Distribution Distribution `json:"distribution"`
}

// Resolve picks the real distribution for the axis when present and falls
// back to the calibrated one.
func (s ProfileSources) Resolve(uf, municipality string, axis Axis) (ResolvedProfile, error) {
	if s.Real != nil {
		if d, src, ok := s.Real.Distribution(uf, municipality, axis); ok && !d.empty() {
			return ResolvedProfile{Axis: axis, Provenance: ProvenanceReal, Source: src, Distribution: d}, nil
		}
	}
	if s.Calibrated != nil {
		if d, src, ok := s.Calibrated.Distribution(uf, municipality, axis); ok && !d.empty() {
			return ResolvedProfile{Axis: axis, Provenance: ProvenanceCalibrated, Source: src, Distribution: d}, nil
		}
	}
	return ResolvedProfile{}, fmt.Errorf("%w: no distribution for axis %s in %s/%s", ErrMissingProfileData, axis, municipality, uf)
}
