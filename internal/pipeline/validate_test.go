package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"instituto-amostral/internal/model"
)

func TestValidateRecord(t *testing.T) {
	def := sourceRules{uf: "TO", rules: DefaultValidation}
	ok := model.SectionRecord{UF: "TO", Municipality: "PALMAS", Zone: 29, Voters: 3, Line: 2}
	assert.NoError(t, validateRecord(ok, def))

	tests := []struct {
		name  string
		rec   model.SectionRecord
		rules sourceRules
		want  string
	}{
		{"other UF", model.SectionRecord{UF: "GO", Municipality: "X", Zone: 1}, def, `UF "GO" does not belong`},
		{"blank municipality", model.SectionRecord{UF: "TO", Zone: 1}, def, "missing required field NM_MUNICIPIO"},
		{"zone zero", model.SectionRecord{UF: "TO", Municipality: "X"}, def, "NR_ZONA below minimum"},
		{"negative voters", model.SectionRecord{UF: "TO", Municipality: "X", Zone: 1, Voters: -1}, def, "QT_ELEITORES below minimum"},
		{"not allowed", ok, sourceRules{rules: model.ValidationRules{AllowedUFs: []string{"GO"}}}, "not allowed"},
		{"above max", ok, sourceRules{rules: model.ValidationRules{MaxValues: map[string]float64{"QT_ELEITORES": 2}}}, "above maximum"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := validateRecord(tc.rec, tc.rules)
			if assert.Error(t, err) {
				assert.Contains(t, err.Error(), tc.want)
			}
		})
	}
}

func TestValidateRecords(t *testing.T) {
	sources := []model.Source{{UF: "TO", URL: "a"}}
	in := make(chan model.SectionRecord, 4)
	out := make(chan model.SectionRecord, 4)
	errs := make(chan model.ErrorDetail, 4)

	in <- model.SectionRecord{UF: "TO", Municipality: "PALMAS", Zone: 1, Voters: 1, SourceURL: "a", Line: 2}
	in <- model.SectionRecord{UF: "GO", Municipality: "GOIANIA", Zone: 1, Voters: 1, SourceURL: "a", Line: 3}
	in <- model.SectionRecord{UF: "TO", Municipality: "PALMAS", Zone: 2, Voters: 4, SourceURL: "a", Line: 4}
	close(in)

	valid, invalid := ValidateRecords(context.Background(), sources, in, out, errs, 2)
	assert.EqualValues(t, 2, valid)
	assert.EqualValues(t, 1, invalid)

	n := 0
	for range out {
		n++
	}
	assert.Equal(t, 2, n, "out is closed after draining")

	close(errs)
	detail := <-errs
	assert.Equal(t, "validation", detail.Stage)
	assert.Equal(t, 3, detail.Line)
	assert.Equal(t, "a", detail.SourceURL)
}
