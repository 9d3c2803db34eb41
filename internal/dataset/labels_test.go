package dataset

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"instituto-amostral/internal/sampling"
)

func TestMapAgeBracket(t *testing.T) {
	tests := []struct {
		label string
		want  string
		ok    bool
	}{
		{"16 anos", "De 16 a 24 anos", true},
		{"21 a 24 anos", "De 16 a 24 anos", true},
		{"25 a 29 anos", "25 a 34 anos", true},
		{"40 a 44 anos", "35 a 44 anos", true},
		{"55 a 59 anos", "45 a 59 anos", true},
		{"60 a 64 anos", "Acima de 60 anos", true},
		{"100 anos ou mais", "Acima de 60 anos", true},
		{"15 anos", "", false},
		{"Inválido", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := MapAgeBracket(tt.label)
		assert.Equal(t, tt.ok, ok, tt.label)
		assert.Equal(t, tt.want, got, tt.label)
	}
}

func TestMapEducation(t *testing.T) {
	tests := map[string]string{
		"ANALFABETO":                    "Analfabeto",
		"LÊ E ESCREVE":                  "Lê e escreve",
		"ENSINO FUNDAMENTAL INCOMPLETO": "Ensino fundamental",
		"ensino médio completo":         "Ensino médio",
		"SUPERIOR INCOMPLETO":           "Superior",
	}
	for label, want := range tests {
		got, ok := MapEducation(label)
		require.True(t, ok, label)
		assert.Equal(t, want, got)
	}
	_, ok := MapEducation("NÃO INFORMADO")
	assert.False(t, ok)
}

func TestMapCategory(t *testing.T) {
	got, ok := MapCategory(sampling.AxisIncome, "mais de 2 a 5 sm")
	require.True(t, ok)
	assert.Equal(t, "Mais de 2 a 5 SM", got)

	got, ok = MapCategory(sampling.AxisSettlement, "URBANA")
	require.True(t, ok)
	assert.Equal(t, "Urbana", got)

	got, ok = MapCategory(sampling.AxisGender, "feminino")
	require.True(t, ok)
	assert.Equal(t, "FEMININO", got)

	_, ok = MapCategory(sampling.AxisGender, "NÃO INFORMADO")
	assert.False(t, ok)
	assert.Equal(t, "FAIXA_ETARIA", DimensionName(sampling.AxisAge))
}

func TestCalibrated(t *testing.T) {
	p := Calibrated()
	for _, axis := range sampling.BenchmarkAxes {
		d, src, ok := p.Distribution("TO", "Palmas", axis)
		require.True(t, ok, axis)
		assert.Equal(t, p.Source(), src)
		cats := make([]string, len(d))
		for i, c := range d {
			cats[i] = c.Category
		}
		assert.Equal(t, CategoryOrder(axis), cats, axis)
	}
	_, _, ok := p.Distribution("TO", "Palmas", sampling.AxisGender)
	assert.False(t, ok)
}

func TestLoadCalibrated_Invalid(t *testing.T) {
	_, err := LoadCalibrated(strings.NewReader("eixos:\n  renda:\n    - {categoria: A, share: 0.5}\n"))
	assert.ErrorIs(t, err, ErrInvalidData)

	_, err = LoadCalibrated(strings.NewReader("eixos:\n  cor:\n    - {categoria: A, share: 1}\n"))
	assert.ErrorIs(t, err, ErrInvalidData)

	_, err = LoadCalibrated(strings.NewReader("eixos: ["))
	assert.ErrorIs(t, err, ErrInvalidData)
}
