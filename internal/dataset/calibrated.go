package dataset

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"instituto-amostral/internal/sampling"
)

//go:embed calibrated.yaml
var calibratedYAML []byte

const shareTolerance = 0.005

// CalibratedProfile answers every municipality with the same reference
// distribution.
type CalibratedProfile struct {
	source string
	axes   map[sampling.Axis]sampling.Distribution
}

type calibratedFile struct {
	Source string                           `yaml:"fonte"`
	Axes   map[string]sampling.Distribution `yaml:"eixos"`
}

// Calibrated returns the built-in reference profile.
func Calibrated() *CalibratedProfile {
	p, err := LoadCalibrated(bytes.NewReader(calibratedYAML))
	if err != nil {
		panic(fmt.Sprintf("embedded calibrated profile: %v", err))
	}
	return p
}

// LoadCalibratedFile reads a replacement profile from disk.
func LoadCalibratedFile(path string) (*CalibratedProfile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadCalibrated(f)
}

// LoadCalibrated parses and validates a calibrated profile document.
func LoadCalibrated(r io.Reader) (*CalibratedProfile, error) {
	var doc calibratedFile
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: calibrated profile: %v", ErrInvalidData, err)
	}
	p := &CalibratedProfile{source: doc.Source, axes: make(map[sampling.Axis]sampling.Distribution, len(doc.Axes))}
	if p.source == "" {
		p.source = "Perfil calibrado"
	}
	for name, dist := range doc.Axes {
		axis, err := sampling.ParseAxis(name)
		if err != nil {
			return nil, fmt.Errorf("%w: calibrated profile: %v", ErrInvalidData, err)
		}
		sum := 0.0
		for _, c := range dist {
			if c.Share < 0 || math.IsNaN(c.Share) {
				return nil, fmt.Errorf("%w: calibrated profile: %s/%s has share %v", ErrInvalidData, axis, c.Category, c.Share)
			}
			sum += c.Share
		}
		if math.Abs(sum-1) > shareTolerance {
			return nil, fmt.Errorf("%w: calibrated profile: shares of %s sum to %.4f", ErrInvalidData, axis, sum)
		}
		p.axes[axis] = dist
	}
	return p, nil
}

// Source names the profile in plan tables.
func (p *CalibratedProfile) Source() string { return p.source }

// Distribution implements sampling.ProfileLookup.
func (p *CalibratedProfile) Distribution(_, _ string, axis sampling.Axis) (sampling.Distribution, string, bool) {
	d, ok := p.axes[axis]
	if !ok {
		return nil, "", false
	}
	out := make(sampling.Distribution, len(d))
	copy(out, d)
	return out, p.source, true
}
