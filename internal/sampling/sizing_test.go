package sampling

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeSampleSize_ReferenceMunicipality(t *testing.T) {
	res, err := ComputeSampleSize(SizingInput{Population: 50000, Zones: 10, Confidence: Confidence95, Margin: 0.05})
	require.NoError(t, err)

	assert.InDelta(t, 381.2, res.Theoretical, 0.5)
	assert.Equal(t, 382, res.MinimumCochran)
	assert.Equal(t, 497, res.DesignAdjusted)
	assert.Equal(t, 120, res.ZoneFloor)
	assert.Equal(t, 400, res.MunicipalFloor)
	assert.Equal(t, 497, res.Base)
	assert.Equal(t, 500, res.Recommended)
	assert.Equal(t, 630, res.FieldTarget)
	assert.Equal(t, 1.96, res.Z)
	assert.Less(t, res.RealizedMargin, 0.05)
	assert.InDelta(t, 0.0436, res.RealizedMargin, 0.0005)
}

func TestComputeSampleSize_Floors(t *testing.T) {
	tests := []struct {
		name       string
		in         SizingInput
		wantBase   int
		wantRec    int
		wantTarget int
	}{
		{
			name:       "municipal floor",
			in:         SizingInput{Population: 1000, Zones: 2, Confidence: Confidence95, Margin: 0.05},
			wantBase:   400,
			wantRec:    400,
			wantTarget: 500,
		},
		{
			name:       "zone floor",
			in:         SizingInput{Population: 50000, Zones: 50, Confidence: Confidence95, Margin: 0.05},
			wantBase:   600,
			wantRec:    600,
			wantTarget: 750,
		},
		{
			name:       "zone floor rounded",
			in:         SizingInput{Population: 50000, Zones: 51, Confidence: Confidence95, Margin: 0.05},
			wantBase:   612,
			wantRec:    620,
			wantTarget: 780,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := ComputeSampleSize(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.wantBase, res.Base)
			assert.Equal(t, tt.wantRec, res.Recommended)
			assert.Equal(t, tt.wantTarget, res.FieldTarget)
		})
	}
}

func TestComputeSampleSize_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   SizingInput
		want error
	}{
		{"population one", SizingInput{Population: 1, Confidence: Confidence95, Margin: 0.05}, ErrInvalidPopulation},
		{"population zero", SizingInput{Population: 0, Confidence: Confidence95, Margin: 0.05}, ErrInvalidPopulation},
		{"unknown confidence", SizingInput{Population: 100, Confidence: Confidence(80), Margin: 0.05}, ErrInvalidParameter},
		{"zero margin", SizingInput{Population: 100, Confidence: Confidence95, Margin: 0}, ErrInvalidParameter},
		{"margin of one", SizingInput{Population: 100, Confidence: Confidence95, Margin: 1}, ErrInvalidParameter},
		{"nan margin", SizingInput{Population: 100, Confidence: Confidence95, Margin: math.NaN()}, ErrInvalidParameter},
		{"negative zones", SizingInput{Population: 100, Zones: -1, Confidence: Confidence95, Margin: 0.05}, ErrInvalidParameter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ComputeSampleSize(tt.in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestCochranMinimum_Monotonic(t *testing.T) {
	prev := 0.0
	for _, n := range []int{2, 10, 100, 1000, 10000, 100000, 1000000, 10000000} {
		got, err := CochranMinimum(n, Confidence95, 0.05)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, got, prev, "population %d", n)
		prev = got
	}

	prev = 0
	for _, e := range []float64{0.1, 0.07, 0.05, 0.04, 0.03, 0.02, 0.01} {
		got, err := CochranMinimum(50000, Confidence95, e)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, got, prev, "margin %v", e)
		prev = got
	}

	prev = 0
	for _, c := range SupportedConfidences() {
		got, err := CochranMinimum(50000, c, 0.05)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, got, prev, "confidence %v", c)
		prev = got
	}
}

func TestComputeSampleSize_RecommendedInvariants(t *testing.T) {
	for _, n := range []int{2, 50, 401, 5000, 77777, 250000, 9000000} {
		for _, zones := range []int{0, 1, 7, 40, 130} {
			for _, c := range SupportedConfidences() {
				for _, e := range []float64{0.07, 0.05, 0.03} {
					res, err := ComputeSampleSize(SizingInput{Population: n, Zones: zones, Confidence: c, Margin: e})
					require.NoError(t, err)
					assert.Zero(t, res.Recommended%10)
					assert.GreaterOrEqual(t, res.Recommended, max(res.DesignAdjusted, 400, 12*zones))
					assert.LessOrEqual(t, res.RealizedMargin, e+1e-12)
					assert.Zero(t, res.FieldTarget%10)
					assert.GreaterOrEqual(t, res.FieldTarget, res.Recommended)
				}
			}
		}
	}
}

func TestRealizedMargin(t *testing.T) {
	got, err := RealizedMargin(1000, Confidence95, 1000)
	require.NoError(t, err)
	assert.Zero(t, got)

	got, err = RealizedMargin(1000, Confidence95, 5000)
	require.NoError(t, err)
	assert.Zero(t, got)

	n0, err := CochranMinimum(20000, Confidence99, 0.04)
	require.NoError(t, err)
	got, err = RealizedMargin(20000, Confidence99, int(math.Ceil(n0)))
	require.NoError(t, err)
	assert.LessOrEqual(t, got, 0.04)
	assert.InDelta(t, 0.04, got, 0.001)

	_, err = RealizedMargin(20000, Confidence95, 0)
	assert.ErrorIs(t, err, ErrInvalidParameter)
	_, err = RealizedMargin(1, Confidence95, 10)
	assert.ErrorIs(t, err, ErrInvalidPopulation)
}

func TestParseConfidence(t *testing.T) {
	tests := []struct {
		in   float64
		want Confidence
		ok   bool
	}{
		{0.90, Confidence90, true},
		{0.95, Confidence95, true},
		{0.99, Confidence99, true},
		{95, Confidence95, true},
		{0.975, 0, false},
		{0.8, 0, false},
		{-1, 0, false},
		{math.Inf(1), 0, false},
	}
	for _, tt := range tests {
		got, err := ParseConfidence(tt.in)
		if !tt.ok {
			assert.ErrorIs(t, err, ErrInvalidParameter, "input %v", tt.in)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestFieldTarget(t *testing.T) {
	assert.Equal(t, 630, FieldTarget(500))
	assert.Equal(t, 500, FieldTarget(400))
	assert.Equal(t, 10, FieldTarget(1))
	assert.Zero(t, FieldTarget(0))
}

func TestJustification(t *testing.T) {
	res, err := ComputeSampleSize(SizingInput{Population: 50000, Zones: 10, Confidence: Confidence95, Margin: 0.05})
	require.NoError(t, err)
	text := Justification(res)
	assert.Contains(t, text, "N=50.000")
	assert.Contains(t, text, "n₀ = 382")
	assert.Contains(t, text, "→ 497")
	assert.Contains(t, text, "arredondado: 500")
	assert.Contains(t, text, "80%: 630")
}
