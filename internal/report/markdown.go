package report

import (
	"fmt"
	"io"
	"strings"

	"instituto-amostral/internal/sampling"
)

func renderMarkdown(w io.Writer, doc *Document) error {
	p := doc.Plan
	var b strings.Builder
	line := func(format string, args ...interface{}) {
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}

	line("# Plano Amostral — %s / %s", p.Municipality.Name, p.Municipality.UF)
	line("")
	line("> **Instituto Amostral** | Gerado em: %s", timestamp(doc))
	line("")
	line("---")
	line("")

	line("## Resumo Estatístico")
	line("")
	line("| Indicador | Valor |")
	line("|-----------|-------|")
	line("| Total de Eleitores | %s |", sampling.Thousands(p.TotalElectorate))
	line("| Amostra Mínima (Cochran) | %s |", sampling.Thousands(p.Sizing.MinimumCochran))
	line("| Amostra Recomendada | %s |", sampling.Thousands(p.Sizing.Recommended))
	line("| Amostra Final | **%s** (%s) |", sampling.Thousands(p.Final.Size), p.Final.Mode)
	line("| Alvo de Campo | %s |", sampling.Thousands(sampling.FieldTarget(p.Final.Size)))
	line("| Nível de Confiança | %s |", p.Confidence)
	line("| Margem de Erro | ±%s%% |", percent(p.Margin*100, 1))
	line("| Margem Efetiva | ±%s%% |", percent(p.Final.RealizedMargin*100, 2))
	line("| Zonas Eleitorais | %d |", len(p.Zones))
	line("")
	if doc.Justification != "" {
		line("%s", doc.Justification)
		line("")
	}

	m := p.Municipality
	if m.IBGEID != 0 {
		line("## Perfil Socioeconômico (IBGE)")
		line("")
		line("| Indicador | Valor |")
		line("|-----------|-------|")
		line("| População Total | %s |", sampling.Thousands(m.Population))
		line("| ID IBGE | %d |", m.IBGEID)
		if m.HDI != nil {
			line("| IDH Municipal | %s |", percent(*m.HDI, 3))
		} else {
			line("| IDH Municipal | N/D |")
		}
		if m.GDPPerCapita != nil {
			line("| PIB per Capita | R$ %s |", percent(*m.GDPPerCapita, 2))
		}
		line("")
	}

	line("## Distribuição por Zona Eleitoral")
	line("")
	line("| Zona | Eleitores | Fem. | Masc. | Seções | Quota | Q.Fem. | Q.Masc. | %% |")
	line("|------|-----------|------|-------|--------|-------|--------|---------|---|")
	var tot sampling.ZoneQuota
	for _, z := range p.Zones {
		line("| %d | %s | %s | %s | %d | **%d** | %d | %d | %s%% |",
			z.Zone, sampling.Thousands(z.Total), sampling.Thousands(z.Female), sampling.Thousands(z.Male),
			z.Sections, z.Quota, z.FemaleQuota, z.MaleQuota, percent(z.Share, 1))
		tot.Total += z.Total
		tot.Female += z.Female
		tot.Male += z.Male
		tot.Sections += z.Sections
		tot.Quota += z.Quota
		tot.FemaleQuota += z.FemaleQuota
		tot.MaleQuota += z.MaleQuota
	}
	line("| **TOTAL** | **%s** | %s | %s | %d | **%d** | %d | %d | 100%% |",
		sampling.Thousands(tot.Total), sampling.Thousands(tot.Female), sampling.Thousands(tot.Male),
		tot.Sections, tot.Quota, tot.FemaleQuota, tot.MaleQuota)
	line("")
	line("---")
	line("")

	if len(p.Benchmarks) > 0 {
		line("## Benchmark Estratificado")
		line("")
		for _, t := range p.Benchmarks {
			line("### %s", t.Title)
			line("")
			line("Fonte: %s (%s)", t.Source, provenanceLabel(t.Provenance))
			line("")
			line("| Categoria | V. Absoluto | %% |")
			line("|-----------|-------------|---|")
			for _, r := range t.Rows {
				line("| %s | %d | %s%% |", r.Category, r.Quota, percent(r.Percent, 2))
			}
			line("| **TOTAL** | **%d** | **100,00%%** |", t.Total)
			line("")
		}
		if len(p.Notes) > 0 {
			line("Observações: %s", strings.Join(p.Notes, " | "))
			line("")
		}
		line("---")
		line("")
	}

	if len(doc.Scenarios) > 0 {
		line("## Cenários de Dimensionamento")
		line("")
		line("| Cenário | Confiança | Margem | Cochran | Recomendada | Campo | Margem Efetiva |")
		line("|---------|-----------|--------|---------|-------------|-------|----------------|")
		for _, s := range doc.Scenarios {
			line("| %s | %s | ±%s%% | %d | %d | %d | ±%s%% |", s.Label, s.Confidence,
				percent(s.Margin*100, 0), s.MinimumCochran, s.Recommended, s.FieldTarget, percent(s.RealizedMargin*100, 2))
		}
		line("")
	}

	line("## Nota Metodológica")
	line("")
	line("%s", p.Methodology)

	_, err := io.WriteString(w, b.String())
	return err
}
