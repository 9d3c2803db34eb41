package sampling

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// Thousands formats n with dot separators (12.345).
func Thousands(n int) string {
	return strings.ReplaceAll(humanize.Comma(int64(n)), ",", ".")
}

func pct(v float64, places int) string {
	return fmt.Sprintf("%.*f", places, v*100)
}

// Justification explains each sizing step of r.
func Justification(r *SampleSizeResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Fórmula de Cochran (população finita): n₀ = %d entrevistas para N=%s eleitores, confiança %s e margem ±%s%%. ",
		r.MinimumCochran, Thousands(r.Population), r.Confidence, pct(r.Margin, 1))
	fmt.Fprintf(&b, "Ajuste operacional (DEFF=%.2f) → %d. ", r.DesignEffect, r.DesignAdjusted)
	fmt.Fprintf(&b, "Piso municipal=%d e cobertura mínima por zona (%d×%d=%d). ",
		r.MunicipalFloor, policy.PerZoneFloor, r.Zones, r.ZoneFloor)
	fmt.Fprintf(&b, "Valor recomendado (entrevistas completas), arredondado: %d. ", r.Recommended)
	fmt.Fprintf(&b, "Alvo de campo com taxa de resposta de %.0f%%: %d. ", r.ResponseRate*100, r.FieldTarget)
	fmt.Fprintf(&b, "Margem de erro efetiva estimada: ±%s%%.", pct(r.RealizedMargin, 2))
	return b.String()
}

// Methodology renders the institutional methodology note of a plan.
func Methodology(p *Plan) string {
	var b strings.Builder
	b.WriteString("O plano amostral considera população finita e aplica a fórmula de Cochran com variância máxima (p=q=0,5). ")
	fmt.Fprintf(&b, "A amostra final é de %s entrevistas para um universo de %s eleitores, ",
		Thousands(p.Final.Size), Thousands(p.TotalElectorate))
	fmt.Fprintf(&b, "com nível de confiança de %s, margem planejada de ±%s%% e margem efetiva estimada em ±%s%%. ",
		p.Confidence, pct(p.Margin, 1), pct(p.Final.RealizedMargin, 2))
	if p.Final.Mode == SizingManual {
		b.WriteString("O tamanho da amostra foi definido manualmente pelo solicitante. ")
	}
	fmt.Fprintf(&b, "A seleção é estratificada pelas %d zonas eleitorais, com alocação proporcional ao eleitorado pelo método do maior resto (Hamilton), ", len(p.Zones))
	b.WriteString("o que preserva a soma exata das quotas em todos os níveis. ")

	observed, calibrated := provenanceTitles(p.Benchmarks)
	if len(observed) > 0 {
		fmt.Fprintf(&b, "As quotas de %s derivam de dados oficiais observados do município (TSE). ", strings.Join(observed, ", "))
	}
	if len(calibrated) > 0 {
		fmt.Fprintf(&b, "As quotas de %s utilizam perfil calibrado de referência, na ausência de dado municipal. ", strings.Join(calibrated, ", "))
	}
	b.WriteString("As fontes são oficiais e públicas, permitindo auditoria técnica e reprodutibilidade.")
	return b.String()
}

func provenanceTitles(tables []BenchmarkTable) (observed, calibrated []string) {
	for _, t := range tables {
		title := strings.ToLower(t.Title)
		if t.Provenance == ProvenanceCalibrated {
			calibrated = append(calibrated, title)
		} else {
			observed = append(observed, title)
		}
	}
	return observed, calibrated
}
