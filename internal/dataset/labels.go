package dataset

import (
	"regexp"
	"strconv"
	"strings"

	"instituto-amostral/internal/sampling"
	"instituto-amostral/pkg/utils"
)

// Canonical category order of every axis, as printed in the plan tables.
var (
	EducationOrder  = []string{"Analfabeto", "Lê e escreve", "Ensino fundamental", "Ensino médio", "Superior"}
	AgeOrder        = []string{"De 16 a 24 anos", "25 a 34 anos", "35 a 44 anos", "45 a 59 anos", "Acima de 60 anos"}
	IncomeOrder     = []string{"Até 1 SM", "Mais de 1 a 2 SM", "Mais de 2 a 5 SM", "Mais de 5 SM"}
	SettlementOrder = []string{"Urbana", "Rural"}
	GenderOrder     = []string{"FEMININO", "MASCULINO"}
)

// dimensions maps the DIMENSAO column of tse_perfil.csv to an axis.
var dimensions = map[string]sampling.Axis{
	"GENERO":             sampling.AxisGender,
	"INSTRUCAO":          sampling.AxisEducation,
	"FAIXA_ETARIA":       sampling.AxisAge,
	"RENDA":              sampling.AxisIncome,
	"SITUACAO_DOMICILIO": sampling.AxisSettlement,
}

// DimensionName is the inverse of the DIMENSAO mapping, used when exporting.
func DimensionName(axis sampling.Axis) string {
	for k, v := range dimensions {
		if v == axis {
			return k
		}
	}
	return strings.ToUpper(string(axis))
}

// CategoryOrder returns the canonical categories of an axis.
func CategoryOrder(axis sampling.Axis) []string {
	switch axis {
	case sampling.AxisGender:
		return GenderOrder
	case sampling.AxisEducation:
		return EducationOrder
	case sampling.AxisAge:
		return AgeOrder
	case sampling.AxisIncome:
		return IncomeOrder
	case sampling.AxisSettlement:
		return SettlementOrder
	}
	return nil
}

// MapEducation folds a TSE DS_GRAU_INSTRUCAO label into a canonical category.
func MapEducation(label string) (string, bool) {
	t := utils.NormalizeName(label)
	switch {
	case t == "":
		return "", false
	case strings.Contains(t, "ANALFAB"):
		return EducationOrder[0], true
	case strings.Contains(t, "LE E ESCREVE"):
		return EducationOrder[1], true
	case strings.Contains(t, "FUNDAMENTAL"):
		return EducationOrder[2], true
	case strings.Contains(t, "MEDIO"):
		return EducationOrder[3], true
	case strings.Contains(t, "SUPERIOR"):
		return EducationOrder[4], true
	}
	return "", false
}

var firstNumber = regexp.MustCompile(`\d+`)

// MapAgeBracket folds a TSE DS_FAIXA_ETARIA label ("21 a 24 anos",
// "100 anos ou mais") into a canonical bracket using its lower bound.
func MapAgeBracket(label string) (string, bool) {
	m := firstNumber.FindString(label)
	if m == "" {
		return "", false
	}
	age, err := strconv.Atoi(m)
	if err != nil || age < 16 {
		return "", false
	}
	switch {
	case age <= 24:
		return AgeOrder[0], true
	case age <= 34:
		return AgeOrder[1], true
	case age <= 44:
		return AgeOrder[2], true
	case age <= 59:
		return AgeOrder[3], true
	}
	return AgeOrder[4], true
}

// MapGender accepts FEMININO/MASCULINO in any case; other labels are dropped.
func MapGender(label string) (string, bool) {
	t := utils.NormalizeName(label)
	switch {
	case strings.Contains(t, "FEMIN"):
		return GenderOrder[0], true
	case strings.Contains(t, "MASCUL"):
		return GenderOrder[1], true
	}
	return "", false
}

func matchCanonical(order []string) func(string) (string, bool) {
	index := make(map[string]string, len(order))
	for _, c := range order {
		index[utils.NormalizeName(c)] = c
	}
	return func(label string) (string, bool) {
		c, ok := index[utils.NormalizeName(label)]
		return c, ok
	}
}

var categoryMappers = map[sampling.Axis]func(string) (string, bool){
	sampling.AxisGender:     MapGender,
	sampling.AxisEducation:  MapEducation,
	sampling.AxisAge:        MapAgeBracket,
	sampling.AxisIncome:     matchCanonical(IncomeOrder),
	sampling.AxisSettlement: matchCanonical(SettlementOrder),
}

// MapCategory folds a raw profile label of the given axis into its
// canonical category.
func MapCategory(axis sampling.Axis, label string) (string, bool) {
	f, ok := categoryMappers[axis]
	if !ok {
		return "", false
	}
	return f(label)
}
