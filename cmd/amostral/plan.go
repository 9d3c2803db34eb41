package main

import (
	"context"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"instituto-amostral/internal/model"
	"instituto-amostral/internal/pipeline"
	"instituto-amostral/internal/sampling"
)

func (c *cli) planCmd() *cobra.Command {
	var (
		spec   model.PlanJobSpec
		sample int
		save   bool
	)
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Generate the sampling plan of a municipality",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("amostra") {
				spec.SampleSize = &sample
			}
			return c.runPlan(cmd.Context(), cmd.OutOrStdout(), spec, save)
		},
	}
	f := cmd.Flags()
	f.StringVar(&spec.UF, "uf", "", "UF of the municipality")
	f.StringVar(&spec.Municipality, "municipio", "", "municipality name")
	f.IntVar(&sample, "amostra", 0, "sample size override; omitted means the recommended size")
	f.StringVarP(&spec.Format, "formato", "f", "", "output format: excel, markdown, csv, json")
	f.Float64Var(&spec.Confidence, "confianca", 0, "confidence level; default from config")
	f.Float64Var(&spec.Margin, "margem", 0, "margin of error; default from config")
	f.BoolVar(&save, "save", false, "record the plan in the database")
	_ = cmd.MarkFlagRequired("uf")
	_ = cmd.MarkFlagRequired("municipio")
	return cmd
}

func (c *cli) runPlan(ctx context.Context, w io.Writer, spec model.PlanJobSpec, save bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if spec.Format == "" {
		spec.Format = c.cfg.Sampling.Format
	}
	if spec.Confidence == 0 {
		spec.Confidence = c.cfg.Sampling.Confidence
	}
	if spec.Margin == 0 {
		spec.Margin = c.cfg.Sampling.Margin
	}
	req, err := pipeline.NewPlanRequest(spec)
	if err != nil {
		return err
	}
	a, err := c.app()
	if err != nil {
		return err
	}
	if save {
		if err := a.OpenStore(); err != nil {
			return err
		}
	}

	out, err := pipeline.GeneratePlan(ctx, uuid.New().String(), req, a.PlanEnv())
	if err != nil {
		return err
	}

	p := out.Plan
	size := okStyle.Render(sampling.Thousands(p.Final.Size))
	if p.Final.BelowMinimum {
		size = warnStyle.Render(sampling.Thousands(p.Final.Size) + " (abaixo do mínimo de Cochran)")
	}
	renderBox(w, fmt.Sprintf("Plano amostral: %s / %s", p.Municipality.Name, p.Municipality.UF), []kv{
		{"Eleitores", sampling.Thousands(p.TotalElectorate)},
		{"Zonas", fmt.Sprint(len(p.Zones))},
		{"Amostra", size},
		{"Modo", string(p.Final.Mode)},
		{"Margem efetiva", fmt.Sprintf("±%.2f%%", p.Final.RealizedMargin*100)},
	})

	rows := make([][]string, 0, len(p.Zones))
	for _, z := range p.Zones {
		rows = append(rows, []string{
			fmt.Sprint(z.Zone),
			sampling.Thousands(z.Total),
			fmt.Sprintf("%.2f%%", z.Share),
			fmt.Sprint(z.Quota),
			fmt.Sprint(z.FemaleQuota),
			fmt.Sprint(z.MaleQuota),
		})
	}
	fmt.Fprintln(w)
	renderTable(w, []string{"Zona", "Eleitores", "Peso", "Entrevistas", "Fem.", "Masc."}, rows)

	fmt.Fprintln(w)
	for _, f := range out.Files {
		fmt.Fprintf(w, "%s %s (%s)\n", okStyle.Render("✔"), f.Path, humanize.Bytes(uint64(f.SizeBytes)))
	}
	for _, n := range p.Notes {
		fmt.Fprintln(w, warnStyle.Render("• "+n))
	}
	return nil
}
