// Package app wires configuration into the long-lived components shared by
// the CLI and the API server.
package app

import (
	"fmt"

	"go.uber.org/zap"

	"instituto-amostral/internal/config"
	"instituto-amostral/internal/dataset"
	"instituto-amostral/internal/pipeline"
	"instituto-amostral/internal/sampling"
	"instituto-amostral/internal/store"
	"instituto-amostral/pkg/utils"
)

// App holds the components built from a Config.
type App struct {
	Config     *config.Config
	Logger     *zap.Logger
	Datasets   *dataset.Provider
	Calibrated sampling.ProfileLookup
	Output     *utils.OutputManager
	Builder    *pipeline.Builder
}

// New validates cfg and builds the components. The store is opened
// separately with OpenStore.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	calibrated := dataset.Calibrated()
	if path := cfg.Data.CalibratedProfile; path != "" {
		p, err := dataset.LoadCalibratedFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load calibrated profile: %w", err)
		}
		logger.Info("calibrated profile loaded", zap.String("path", path), zap.String("source", p.Source()))
		calibrated = p
	}

	output := utils.NewOutputManager(cfg.Data.OutputDir)
	if err := output.EnsureOutputDirExists(); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	datasets := dataset.NewProvider(cfg.Data.Dir, logger.Named("dataset"))
	client := pipeline.NewSourceClient(pipeline.Endpoints{
		IBGEMunicipalities: cfg.Sources.IBGEMunicipalitiesURL,
		IBGEPopulation:     cfg.Sources.IBGEPopulationURL,
		TSECatalog:         cfg.Sources.TSECatalogURL,
	}, cfg.GetHTTPTimeout(), cfg.Pipeline.Retry, logger.Named("sources"))

	return &App{
		Config:     cfg,
		Logger:     logger,
		Datasets:   datasets,
		Calibrated: calibrated,
		Output:     output,
		Builder: &pipeline.Builder{
			Client:     client,
			DataDir:    cfg.Data.Dir,
			Defaults:   cfg.Pipeline.Concurrency,
			Logger:     logger.Named("pipeline"),
			OnComplete: datasets.Invalidate,
		},
	}, nil
}

// OpenStore opens the configured database.
func (a *App) OpenStore() error {
	if err := store.InitDB(a.Config.Database.Driver, a.Config.Database.DSN); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	a.Logger.Info("database ready", zap.String("driver", a.Config.Database.Driver))
	return nil
}

// PlanEnv is the environment of plan generation.
func (a *App) PlanEnv() pipeline.PlanEnv {
	return pipeline.PlanEnv{
		Datasets:   a.Datasets,
		Calibrated: a.Calibrated,
		Output:     a.Output,
		Logger:     a.Logger.Named("plan"),
	}
}
