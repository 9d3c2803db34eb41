package sampling

import "math"

// ScenarioSpec is one row of the comparison matrix.
type ScenarioSpec struct {
	Label      string
	Confidence Confidence
	Margin     float64
}

var scenarioMatrix = []ScenarioSpec{
	{Label: "Econômico (90% / ±7%)", Confidence: Confidence90, Margin: 0.07},
	{Label: "Básico (90% / ±5%)", Confidence: Confidence90, Margin: 0.05},
	{Label: "Padrão (95% / ±5%) ★", Confidence: Confidence95, Margin: 0.05},
	{Label: "Aprimorado (95% / ±4%)", Confidence: Confidence95, Margin: 0.04},
	{Label: "Preciso (95% / ±3%)", Confidence: Confidence95, Margin: 0.03},
	{Label: "Rigoroso (99% / ±5%)", Confidence: Confidence99, Margin: 0.05},
	{Label: "Máximo (99% / ±3%)", Confidence: Confidence99, Margin: 0.03},
}

// ScenarioMatrix returns the fixed confidence/margin pairs.
func ScenarioMatrix() []ScenarioSpec {
	return append([]ScenarioSpec(nil), scenarioMatrix...)
}

// Scenario is the sizing of one matrix row.
type Scenario struct {
	Label          string     `json:"label"`
	Confidence     Confidence `json:"confidence_pct"`
	Margin         float64    `json:"margin"`
	MinimumCochran int        `json:"minimum_cochran"`
	Recommended    int        `json:"recommended"`
	FieldTarget    int        `json:"field_target"`
	RealizedMargin float64    `json:"realized_margin"`
	Selected       bool       `json:"selected"`
}

// Scenarios sizes the universe for every matrix row and marks the row that
// matches the requested confidence and margin.
func Scenarios(population, zones int, confidence Confidence, margin float64) ([]Scenario, error) {
	out := make([]Scenario, 0, len(scenarioMatrix))
	for _, spec := range scenarioMatrix {
		res, err := ComputeSampleSize(SizingInput{
			Population: population,
			Zones:      zones,
			Confidence: spec.Confidence,
			Margin:     spec.Margin,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, Scenario{
			Label:          spec.Label,
			Confidence:     spec.Confidence,
			Margin:         spec.Margin,
			MinimumCochran: res.MinimumCochran,
			Recommended:    res.Recommended,
			FieldTarget:    res.FieldTarget,
			RealizedMargin: res.RealizedMargin,
			Selected:       spec.Confidence == confidence && math.Abs(spec.Margin-margin) < 1e-9,
		})
	}
	return out, nil
}
