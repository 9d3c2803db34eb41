package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"instituto-amostral/internal/model"
	"instituto-amostral/internal/store"
	"instituto-amostral/pkg/utils"
)

// ErrNoZones is returned when the sources produced no usable section rows.
var ErrNoZones = errors.New("dataset build produced no zones")

// Builder rebuilds the prepared tables from the public sources.
type Builder struct {
	Client   *SourceClient
	DataDir  string
	Defaults model.ConcurrencyConfig
	Logger   *zap.Logger
	// OnComplete runs after the tables were replaced, e.g. to drop caches.
	OnComplete func()
}

// Run executes a dataset build job: sources, ingestion, validation,
// aggregation and export.
func (b *Builder) Run(ctx context.Context, jobID string, spec model.DatasetJobSpec) (metrics *model.JobMetrics, err error) {
	logger := b.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	tracker := NewTracker(jobID, logger, spec.Logging)
	conc := spec.Concurrency.WithDefaults(b.Defaults)

	tracker.SetStatus(model.StatusRunning)
	defer func() {
		snapshot := tracker.Metrics()
		snapshot.EndTime = time.Now()
		metrics = &snapshot
		if err != nil {
			tracker.SetStatus(model.StatusFailed)
			tracker.persist(store.SaveJobError(jobID, err))
			return
		}
		tracker.SetStatus(model.StatusCompleted)
	}()

	ctx, cancel := context.WithTimeout(ctx, utils.ParseDuration(conc.JobTimeout, 2*time.Hour))
	defer cancel()

	// --- SOURCES STAGE ---
	tracker.StartStage("sources", model.StatusRunning, map[string]interface{}{"ufs": spec.UFs})
	municipalities, refYear, sources, err := b.resolveSources(ctx, spec)
	if err != nil {
		tracker.FailStage("sources", err)
		return nil, err
	}
	tracker.EndStage("sources", int64(len(sources)), 0, map[string]interface{}{"municipalities": len(municipalities)})

	recordsCh := make(chan model.SectionRecord, conc.ChannelBufferSize)
	validatedCh := make(chan model.SectionRecord, conc.ChannelBufferSize)
	errorCh := make(chan model.ErrorDetail, conc.ChannelBufferSize)

	var errWG sync.WaitGroup
	errWG.Add(1)
	go func() {
		defer errWG.Done()
		tracker.ConsumeErrors(errorCh)
	}()

	var stages sync.WaitGroup
	var ingestErr error
	var valid, invalid int64

	// --- INGESTION STAGE ---
	stages.Add(1)
	go func() {
		defer stages.Done()
		defer close(recordsCh)
		tracker.StartStage("ingestion", model.StatusIngesting, map[string]interface{}{"sources_count": len(sources), "workers": conc.Workers.Ingest})
		var perSource []model.SourceMetrics
		perSource, ingestErr = StartIngestion(ctx, b.Client, sources, conc.Workers.Ingest, recordsCh)
		var total int64
		for _, m := range perSource {
			tracker.AddSource(m)
			total += m.RecordsIngested
		}
		if ingestErr != nil {
			tracker.RecordError(model.ErrorDetail{Stage: "ingestion", Message: ingestErr.Error()})
			tracker.FailStage("ingestion", ingestErr)
			cancel()
			return
		}
		tracker.Update(func(m *model.JobMetrics) { m.TotalRecords = total })
		tracker.EndStage("ingestion", total, 0, map[string]interface{}{"rows": humanize.Comma(total)})
	}()

	// --- VALIDATION STAGE ---
	stages.Add(1)
	go func() {
		defer stages.Done()
		tracker.StartStage("validation", "", map[string]interface{}{"workers": conc.Workers.Validation})
		valid, invalid = ValidateRecords(ctx, sources, recordsCh, validatedCh, errorCh, conc.Workers.Validation)
		tracker.Update(func(m *model.JobMetrics) {
			m.ValidRecords = valid
			m.InvalidRecords = invalid
		})
		tracker.EndStage("validation", valid, invalid, nil)
	}()

	// --- AGGREGATION STAGE ---
	tracker.StartStage("aggregation", model.StatusAggregating, map[string]interface{}{"workers": conc.Workers.Aggregation})
	agg := AggregateRecords(ctx, validatedCh, NewCanonicalizer(municipalities), conc.Workers.Aggregation)

	stages.Wait()
	close(errorCh)
	errWG.Wait()

	if ingestErr != nil {
		return nil, ingestErr
	}
	if err := ctx.Err(); err != nil {
		tracker.FailStage("aggregation", err)
		return nil, err
	}
	if len(agg.Zones) == 0 {
		tracker.FailStage("aggregation", ErrNoZones)
		return nil, ErrNoZones
	}
	zoneRows := ZoneRows(agg)
	tracker.Update(func(m *model.JobMetrics) {
		m.Zones = len(zoneRows)
		m.ProfileRows = len(agg.Profile)
		seen := map[string]bool{}
		for _, z := range zoneRows {
			seen[z.UF+"/"+z.Municipality] = true
		}
		m.Municipalities = len(seen)
	})
	tracker.EndStage("aggregation", agg.Records, 0, map[string]interface{}{"zones": len(zoneRows)})

	// --- EXPORT STAGE ---
	tracker.StartStage("export", model.StatusExporting, map[string]interface{}{"dir": b.DataDir})
	results, err := ExportDataset(b.DataDir, municipalities, agg, b.sourceMeta(refYear, agg))
	if err != nil {
		tracker.FailStage("export", err)
		return nil, err
	}
	var exported int64
	for _, r := range results {
		exported += int64(r.RecordCount)
	}
	tracker.EndStage("export", exported, 0, map[string]interface{}{"files": len(results)})

	if b.OnComplete != nil {
		b.OnComplete()
	}
	return nil, nil
}

// resolveSources fetches the IBGE tables and, unless the job lists explicit
// files, the TSE catalog. Both run concurrently.
func (b *Builder) resolveSources(ctx context.Context, spec model.DatasetJobSpec) ([]model.MunicipalityRecord, int, []model.Source, error) {
	var (
		municipalities []model.MunicipalityRecord
		population     map[int]int
		refYear        int
		sources        = spec.Sources
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		municipalities, err = b.Client.FetchMunicipalities(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		population, refYear, err = b.Client.FetchPopulation(gctx)
		return err
	})
	if len(sources) == 0 {
		g.Go(func() error {
			var err error
			sources, err = b.Client.FetchTSESources(gctx)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, nil, err
	}

	missing := 0
	for i := range municipalities {
		pop, ok := population[municipalities[i].IBGEID]
		if !ok {
			missing++
		}
		municipalities[i].Population = pop
	}
	if missing > 0 {
		b.Client.Logger.Warn("municipalities without population, using 0", zap.Int("count", missing))
	}

	sources = filterSources(sources, spec.UFs)
	if len(sources) == 0 {
		return nil, 0, nil, fmt.Errorf("no TSE sources for UFs %v", spec.UFs)
	}
	return municipalities, refYear, sources, nil
}

func filterSources(sources []model.Source, ufs []string) []model.Source {
	if len(ufs) == 0 {
		return sources
	}
	want := make(map[string]bool, len(ufs))
	for _, uf := range ufs {
		want[strings.ToUpper(strings.TrimSpace(uf))] = true
	}
	var out []model.Source
	for _, s := range sources {
		if want[strings.ToUpper(s.UF)] {
			out = append(out, s)
		}
	}
	return out
}

func (b *Builder) sourceMeta(refYear int, agg *Aggregate) model.SourceMeta {
	var meta model.SourceMeta
	meta.GeneratedAt = time.Now().UTC().Truncate(time.Second)
	meta.IBGE.Source = "API IBGE Agregados 6579 / variável 9324"
	meta.IBGE.URL = b.Client.Endpoints.IBGEPopulation
	meta.IBGE.ReferenceYear = refYear
	meta.TSE.Source = "Dados Abertos TSE - Eleitorado Atual (perfil por seção)"
	meta.TSE.CatalogURL = b.Client.Endpoints.TSECatalog
	meta.TSE.GenerationDates = make([]string, 0, len(agg.GenerationDates))
	for d := range agg.GenerationDates {
		meta.TSE.GenerationDates = append(meta.TSE.GenerationDates, d)
	}
	sort.Strings(meta.TSE.GenerationDates)
	return meta
}
