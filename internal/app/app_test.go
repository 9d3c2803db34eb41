package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"instituto-amostral/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Data.Dir = t.TempDir()
	cfg.Data.OutputDir = filepath.Join(t.TempDir(), "out")
	return cfg
}

func TestNew(t *testing.T) {
	cfg := testConfig(t)
	a, err := New(cfg, nil)
	require.NoError(t, err)
	assert.DirExists(t, cfg.Data.OutputDir)
	assert.Equal(t, cfg.Data.Dir, a.Datasets.Dir())
	assert.Equal(t, cfg.Data.Dir, a.Builder.DataDir)
	assert.NotNil(t, a.Calibrated)
	assert.Equal(t, a.Output, a.PlanEnv().Output)
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Database.Driver = "mysql"
	_, err := New(cfg, nil)
	assert.Error(t, err)
}

func TestNew_CalibratedProfileFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.Data.CalibratedProfile = filepath.Join(t.TempDir(), "perfil.yaml")
	require.NoError(t, os.WriteFile(cfg.Data.CalibratedProfile, []byte("fonte: x\neixos: [\n"), 0644))
	_, err := New(cfg, nil)
	assert.ErrorContains(t, err, "calibrated profile")
}
