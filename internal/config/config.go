package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"instituto-amostral/internal/model"
	"instituto-amostral/internal/sampling"
	"instituto-amostral/pkg/utils"
)

// Config holds the service configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Data     DataConfig     `yaml:"data"`
	Sources  SourcesConfig  `yaml:"sources"`
	Sampling SamplingConfig `yaml:"sampling"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr            string   `yaml:"addr"`
	ReadTimeout     string   `yaml:"read_timeout"`
	WriteTimeout    string   `yaml:"write_timeout"`
	ShutdownTimeout string   `yaml:"shutdown_timeout"`
	CORSOrigins     []string `yaml:"cors_origins"`
}

// DatabaseConfig selects the job and plan store.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite3, postgres
	DSN    string `yaml:"dsn"`
}

// DataConfig locates the prepared tables and generated files.
type DataConfig struct {
	Dir               string `yaml:"dir"`
	OutputDir         string `yaml:"output_dir"`
	CalibratedProfile string `yaml:"calibrated_profile"` // empty uses the built-in profile
}

// SourcesConfig holds the remote endpoints of the dataset build.
type SourcesConfig struct {
	IBGEMunicipalitiesURL string `yaml:"ibge_municipalities_url"`
	IBGEPopulationURL     string `yaml:"ibge_population_url"`
	TSECatalogURL         string `yaml:"tse_catalog_url"`
	HTTPTimeout           string `yaml:"http_timeout"`
}

// SamplingConfig holds request defaults.
type SamplingConfig struct {
	Confidence float64 `yaml:"confidence"`
	Margin     float64 `yaml:"margin"`
	Format     string  `yaml:"format"`
}

// PipelineConfig tunes the dataset build.
type PipelineConfig struct {
	Concurrency model.ConcurrencyConfig `yaml:"concurrency"`
	Retry       model.RetryConfig       `yaml:"retry"`
}

// LoggingConfig configures zap.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     "30s",
			WriteTimeout:    "5m",
			ShutdownTimeout: "15s",
			CORSOrigins:     []string{"*"},
		},
		Database: DatabaseConfig{
			Driver: "sqlite3",
			DSN:    "./amostral.db",
		},
		Data: DataConfig{
			Dir:       "./dados",
			OutputDir: "./output",
		},
		Sources: SourcesConfig{
			IBGEMunicipalitiesURL: "https://servicodados.ibge.gov.br/api/v1/localidades/municipios?orderBy=nome",
			IBGEPopulationURL:     "https://servicodados.ibge.gov.br/api/v3/agregados/6579/periodos/-6/variaveis/9324?localidades=N6[all]",
			TSECatalogURL:         "https://dadosabertos.tse.jus.br/api/3/action/package_search?q=Eleitorado%20Atual",
			HTTPTimeout:           "4m",
		},
		Sampling: SamplingConfig{
			Confidence: 0.95,
			Margin:     0.05,
			Format:     "excel",
		},
		Pipeline: PipelineConfig{
			Concurrency: model.ConcurrencyConfig{
				Workers:           model.Workers{Ingest: 4, Validation: 4, Aggregation: 2},
				ChannelBufferSize: 1000,
				JobTimeout:        "2h",
			},
			Retry: model.DefaultRetryConfig,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadDotEnv loads .env style files into the environment. Missing files are
// ignored.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults; environment overrides apply either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies AMOSTRAL_* environment variables.
func (c *Config) applyEnvOverrides() {
	overrides := map[string]*string{
		"AMOSTRAL_ADDR":       &c.Server.Addr,
		"AMOSTRAL_DB_DRIVER":  &c.Database.Driver,
		"AMOSTRAL_DB_DSN":     &c.Database.DSN,
		"AMOSTRAL_DATA_DIR":   &c.Data.Dir,
		"AMOSTRAL_OUTPUT_DIR": &c.Data.OutputDir,
		"AMOSTRAL_LOG_LEVEL":  &c.Logging.Level,
	}
	for env, dst := range overrides {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			*dst = v
		}
	}
	// DATABASE_URL is the usual name on hosted postgres.
	if url := os.Getenv("DATABASE_URL"); url != "" && os.Getenv("AMOSTRAL_DB_DSN") == "" {
		c.Database.Driver = "postgres"
		c.Database.DSN = url
	}
}

// ValidDrivers lists the supported database drivers.
var ValidDrivers = []string{"sqlite3", "postgres"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	valid := false
	for _, d := range ValidDrivers {
		if c.Database.Driver == d {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("invalid database driver: %s (valid: %v)", c.Database.Driver, ValidDrivers)
	}
	if c.Data.Dir == "" || c.Data.OutputDir == "" {
		return errors.New("data.dir and data.output_dir are required")
	}
	if _, err := sampling.ParseConfidence(c.Sampling.Confidence); err != nil {
		return fmt.Errorf("sampling.confidence: %w", err)
	}
	if c.Sampling.Margin <= 0 || c.Sampling.Margin >= 1 {
		return fmt.Errorf("sampling.margin must be in (0, 1), got %v", c.Sampling.Margin)
	}
	if c.Pipeline.Retry.MaxAttempts < 1 {
		return fmt.Errorf("pipeline.retry.max_attempts must be positive, got %d", c.Pipeline.Retry.MaxAttempts)
	}
	return nil
}

// GetReadTimeout returns the server read timeout.
func (c *Config) GetReadTimeout() time.Duration {
	return utils.ParseDuration(c.Server.ReadTimeout, 30*time.Second)
}

// GetWriteTimeout returns the server write timeout.
func (c *Config) GetWriteTimeout() time.Duration {
	return utils.ParseDuration(c.Server.WriteTimeout, 5*time.Minute)
}

// GetShutdownTimeout returns the graceful shutdown budget.
func (c *Config) GetShutdownTimeout() time.Duration {
	return utils.ParseDuration(c.Server.ShutdownTimeout, 15*time.Second)
}

// GetHTTPTimeout returns the timeout of remote source requests.
func (c *Config) GetHTTPTimeout() time.Duration {
	return utils.ParseDuration(c.Sources.HTTPTimeout, 4*time.Minute)
}
