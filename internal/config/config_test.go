package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Server.Addr, cfg.Server.Addr)
	assert.NoError(t, cfg.Validate())
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "amostral.yaml")
	cfg := DefaultConfig()
	cfg.Server.Addr = ":9090"
	cfg.Pipeline.Retry.InitialDelay = 3 * time.Second
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", loaded.Server.Addr)
	assert.Equal(t, 3*time.Second, loaded.Pipeline.Retry.InitialDelay)
	assert.Equal(t, 4, loaded.Pipeline.Concurrency.Workers.Ingest)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "amostral.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sampling:\n  margin: 0.03\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.03, cfg.Sampling.Margin)
	assert.Equal(t, 0.95, cfg.Sampling.Confidence)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "amostral.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: ["), 0644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Run("AMOSTRAL variables", func(t *testing.T) {
		t.Setenv("AMOSTRAL_ADDR", ":7000")
		t.Setenv("AMOSTRAL_DATA_DIR", "/srv/dados")
		t.Setenv("AMOSTRAL_LOG_LEVEL", "debug")
		t.Setenv("DATABASE_URL", "")

		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, ":7000", cfg.Server.Addr)
		assert.Equal(t, "/srv/dados", cfg.Data.Dir)
		assert.Equal(t, "debug", cfg.Logging.Level)
		assert.Equal(t, "sqlite3", cfg.Database.Driver)
	})

	t.Run("DATABASE_URL selects postgres", func(t *testing.T) {
		t.Setenv("AMOSTRAL_DB_DSN", "")
		t.Setenv("DATABASE_URL", "postgres://u:p@db/amostral")

		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, "postgres", cfg.Database.Driver)
		assert.Equal(t, "postgres://u:p@db/amostral", cfg.Database.DSN)
	})
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("AMOSTRAL_OUTPUT_DIR=/tmp/planos\n"), 0644))
	t.Setenv("AMOSTRAL_OUTPUT_DIR", "")
	require.NoError(t, os.Unsetenv("AMOSTRAL_OUTPUT_DIR"))

	require.NoError(t, LoadDotEnv(path, filepath.Join(t.TempDir(), "missing.env")))
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/planos", cfg.Data.OutputDir)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"driver", func(c *Config) { c.Database.Driver = "mysql" }},
		{"data dir", func(c *Config) { c.Data.Dir = "" }},
		{"confidence", func(c *Config) { c.Sampling.Confidence = 0.8 }},
		{"margin", func(c *Config) { c.Sampling.Margin = 1.5 }},
		{"retry", func(c *Config) { c.Pipeline.Retry.MaxAttempts = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestTimeouts(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.ReadTimeout = "bogus"
	assert.Equal(t, 30*time.Second, cfg.GetReadTimeout())
	assert.Equal(t, 5*time.Minute, cfg.GetWriteTimeout())
	assert.Equal(t, 15*time.Second, cfg.GetShutdownTimeout())
	assert.Equal(t, 4*time.Minute, cfg.GetHTTPTimeout())
}
