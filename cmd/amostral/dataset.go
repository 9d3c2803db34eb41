package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"instituto-amostral/internal/model"
)

func (c *cli) datasetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dataset",
		Short: "Manage the prepared TSE and IBGE tables",
	}
	cmd.AddCommand(c.datasetBuildCmd())
	return cmd
}

func (c *cli) datasetBuildCmd() *cobra.Command {
	var (
		spec    model.DatasetJobSpec
		sources []string
		save    bool
	)
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Download the sources and rebuild the dataset",
		Example: "  amostral dataset build --ufs TO,GO\n" +
			"  amostral dataset build --source TO=./perfil_eleitor_secao_2024_TO.zip",
		RunE: func(cmd *cobra.Command, _ []string) error {
			parsed, err := parseSources(sources)
			if err != nil {
				return err
			}
			spec.Sources = parsed
			return c.runDatasetBuild(cmd.Context(), cmd.OutOrStdout(), spec, save)
		},
	}
	f := cmd.Flags()
	f.StringSliceVar(&spec.UFs, "ufs", nil, "UFs to include; empty means every UF in the catalog")
	f.StringArrayVar(&sources, "source", nil, "explicit source as UF=path-or-url (repeatable)")
	f.IntVar(&spec.Concurrency.Workers.Ingest, "workers", 0, "ingestion workers; default from config")
	f.BoolVar(&spec.Logging, "logging", false, "persist per-stage logs")
	f.BoolVar(&save, "save", false, "record the job in the database")
	return cmd
}

// parseSources turns UF=location flags into sources. The type follows the
// file extension.
func parseSources(flags []string) ([]model.Source, error) {
	out := make([]model.Source, 0, len(flags))
	for _, f := range flags {
		uf, location, ok := strings.Cut(f, "=")
		uf, location = strings.ToUpper(strings.TrimSpace(uf)), strings.TrimSpace(location)
		if !ok || len(uf) != 2 || location == "" {
			return nil, fmt.Errorf("invalid --source %q, expected UF=path", f)
		}
		kind := "zip"
		if strings.EqualFold(filepath.Ext(location), ".csv") {
			kind = "csv"
		}
		out = append(out, model.Source{UF: uf, Type: kind, URL: location})
	}
	return out, nil
}

func (c *cli) runDatasetBuild(ctx context.Context, w io.Writer, spec model.DatasetJobSpec, save bool) error {
	if ctx == nil {
		ctx = context.Background()
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
	ctx, stop := signalContext(ctx)
	defer stop()

	jobID := uuid.New().String()
	metrics, runErr := a.Builder.Run(ctx, jobID, spec)
	if metrics != nil {
		renderMetrics(w, metrics, runErr == nil)
	}
	return runErr
}

func renderMetrics(w io.Writer, m *model.JobMetrics, ok bool) {
	status := okStyle.Render(model.StatusCompleted)
	if !ok {
		status = warnStyle.Render(model.StatusFailed)
	}
	renderBox(w, "Dataset "+m.JobID, []kv{
		{"Status", status},
		{"Duração", m.EndTime.Sub(m.StartTime).Round(time.Millisecond).String()},
		{"Linhas lidas", humanize.Comma(m.TotalRecords)},
		{"Linhas válidas", humanize.Comma(m.ValidRecords)},
		{"Linhas rejeitadas", humanize.Comma(m.InvalidRecords)},
		{"Municípios", humanize.Comma(int64(m.Municipalities))},
		{"Zonas", humanize.Comma(int64(m.Zones))},
		{"Linhas de perfil", humanize.Comma(int64(m.ProfileRows))},
	})

	names := make([]string, 0, len(m.Stages))
	for name := range m.Stages {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return m.Stages[names[i]].StartTime.Before(m.Stages[names[j]].StartTime)
	})
	rows := make([][]string, 0, len(names))
	for _, name := range names {
		s := m.Stages[name]
		rows = append(rows, []string{name, s.Status, humanize.Comma(s.RecordsProcessed), s.Duration.Round(time.Millisecond).String()})
	}
	fmt.Fprintln(w)
	renderTable(w, []string{"Etapa", "Status", "Registros", "Duração"}, rows)

	if len(m.Errors) > 0 {
		fmt.Fprintln(w)
		for i, e := range m.Errors {
			if i == 10 {
				fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("… mais %d erros", len(m.Errors)-i)))
				break
			}
			fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("[%s] %s", e.Stage, e.Message)))
		}
	}
}
