package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"instituto-amostral/internal/sampling"
)

type sizeOptions struct {
	population   int
	zones        int
	uf           string
	municipality string
	confidence   float64
	margin       float64
	asJSON       bool
}

func (c *cli) sizeCmd() *cobra.Command {
	var o sizeOptions
	cmd := &cobra.Command{
		Use:   "size",
		Short: "Compute the recommended sample size",
		Long: "Compute the recommended sample size of a universe given with --populacao,\n" +
			"or of a municipality of the dataset given with --uf and --municipio.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runSize(cmd.OutOrStdout(), o)
		},
	}
	f := cmd.Flags()
	f.IntVarP(&o.population, "populacao", "n", 0, "universe size (electorate)")
	f.IntVar(&o.zones, "zonas", 0, "number of electoral zones")
	f.StringVar(&o.uf, "uf", "", "UF of the municipality")
	f.StringVar(&o.municipality, "municipio", "", "municipality name")
	f.Float64Var(&o.confidence, "confianca", 0, "confidence level (0.90, 0.95, 0.99); default from config")
	f.Float64Var(&o.margin, "margem", 0, "margin of error (0.05 = 5%); default from config")
	f.BoolVar(&o.asJSON, "json", false, "print JSON")
	return cmd
}

func (c *cli) runSize(w io.Writer, o sizeOptions) error {
	if o.confidence == 0 {
		o.confidence = c.cfg.Sampling.Confidence
	}
	if o.margin == 0 {
		o.margin = c.cfg.Sampling.Margin
	}
	confidence, err := sampling.ParseConfidence(o.confidence)
	if err != nil {
		return err
	}

	title := "Universo informado"
	if o.uf != "" || o.municipality != "" {
		a, err := c.app()
		if err != nil {
			return err
		}
		ds, err := a.Datasets.Get()
		if err != nil {
			return err
		}
		m, zones, err := ds.Municipality(o.uf, o.municipality)
		if err != nil {
			return err
		}
		o.population, o.zones = 0, len(zones)
		for _, z := range zones {
			o.population += z.Total
		}
		title = fmt.Sprintf("%s / %s", m.Name, m.UF)
	} else if o.population == 0 {
		return errors.New("either --populacao or --uf and --municipio are required")
	}

	res, err := sampling.ComputeSampleSize(sampling.SizingInput{Population: o.population, Zones: o.zones, Confidence: confidence, Margin: o.margin})
	if err != nil {
		return err
	}
	scenarios, err := sampling.Scenarios(o.population, o.zones, confidence, o.margin)
	if err != nil {
		return err
	}

	if o.asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]interface{}{"calculo": res, "cenarios": scenarios})
	}

	renderBox(w, "Tamanho de amostra: "+title, []kv{
		{"Eleitores (N)", sampling.Thousands(res.Population)},
		{"Zonas", fmt.Sprint(res.Zones)},
		{"Confiança / margem", fmt.Sprintf("%s / ±%.1f%%", res.Confidence, res.Margin*100)},
		{"Mínimo de Cochran", sampling.Thousands(res.MinimumCochran)},
		{"Com efeito de desenho", fmt.Sprintf("%s (DEFF %.1f)", sampling.Thousands(res.DesignAdjusted), res.DesignEffect)},
		{"Piso por zona", sampling.Thousands(res.ZoneFloor)},
		{"Recomendado", okStyle.Render(sampling.Thousands(res.Recommended))},
		{"Alvo de campo", sampling.Thousands(res.FieldTarget)},
		{"Margem efetiva", fmt.Sprintf("±%.2f%%", res.RealizedMargin*100)},
	})

	rows := make([][]string, 0, len(scenarios))
	for _, s := range scenarios {
		rows = append(rows, []string{
			s.Label,
			sampling.Thousands(s.MinimumCochran),
			sampling.Thousands(s.Recommended),
			sampling.Thousands(s.FieldTarget),
			fmt.Sprintf("±%.2f%%", s.RealizedMargin*100),
		})
	}
	fmt.Fprintln(w)
	renderTable(w, []string{"Cenário", "Cochran", "Recomendado", "Campo", "Margem"}, rows)
	fmt.Fprintln(w)
	fmt.Fprintln(w, sampling.Justification(res))
	return nil
}
