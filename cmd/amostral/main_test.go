package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"instituto-amostral/internal/config"
	"instituto-amostral/internal/dataset"
	"instituto-amostral/internal/model"
)

// testConfig writes a config whose data, output and database live in a
// temporary directory. withData seeds a Porto Nacional dataset.
func testConfig(t *testing.T, withData bool) (path string, cfg *config.Config) {
	t.Helper()
	dir := t.TempDir()
	cfg = config.DefaultConfig()
	cfg.Data.Dir = filepath.Join(dir, "dados")
	cfg.Data.OutputDir = filepath.Join(dir, "output")
	cfg.Database.Driver = "sqlite3"
	cfg.Database.DSN = filepath.Join(dir, "amostral.db")
	cfg.Logging.Level = "error"
	cfg.Pipeline.Retry.MaxAttempts = 1

	// Source endpoints point at a closed server so no test reaches the network.
	closed := httptest.NewServer(http.NotFoundHandler())
	closed.Close()
	cfg.Sources.IBGEMunicipalitiesURL = closed.URL + "/municipios"
	cfg.Sources.IBGEPopulationURL = closed.URL + "/populacao"
	cfg.Sources.TSECatalogURL = closed.URL + "/ckan"
	require.NoError(t, os.MkdirAll(cfg.Data.Dir, 0755))

	if withData {
		files := map[string]string{
			dataset.ZonesFile: "UF,MUNICIPIO,ZONA,ELEITORES_TOTAL,ELEITORES_FEMININO,ELEITORES_MASCULINO,SECOES\n" +
				"TO,Porto Nacional,1,1000,520,480,10\n" +
				"TO,Porto Nacional,2,300,150,150,3\n" +
				"TO,Porto Nacional,3,200,90,110,2\n",
			dataset.IBGEFile: "UF,MUNICIPIO,ID_IBGE,POPULACAO_TOTAL,IDH,PIB_PER_CAPITA\n" +
				"TO,Porto Nacional,1718204,53618,0.740,\n",
		}
		for name, content := range files {
			require.NoError(t, os.WriteFile(filepath.Join(cfg.Data.Dir, name), []byte(content), 0644))
		}
	}

	path = filepath.Join(dir, "amostral.yaml")
	require.NoError(t, cfg.Save(path))
	return path, cfg
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--env", ""}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestSize_Universe(t *testing.T) {
	path, _ := testConfig(t, false)
	out, err := execute(t, "--config", path, "size", "--populacao", "50000", "--zonas", "10", "--json")
	require.NoError(t, err)

	var got struct {
		Calculo struct {
			MinimumCochran int `json:"minimum_cochran"`
			Recommended    int `json:"recommended"`
			FieldTarget    int `json:"field_target"`
		} `json:"calculo"`
		Cenarios []json.RawMessage `json:"cenarios"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 382, got.Calculo.MinimumCochran)
	assert.Equal(t, 500, got.Calculo.Recommended)
	assert.Equal(t, 630, got.Calculo.FieldTarget)
	assert.Len(t, got.Cenarios, 7)
}

func TestSize_Municipality(t *testing.T) {
	path, _ := testConfig(t, true)
	out, err := execute(t, "--config", path, "size", "--uf", "to", "--municipio", "porto nacional")
	require.NoError(t, err)
	assert.Contains(t, out, "Porto Nacional / TO")
	assert.Contains(t, out, "Padrão (95% / ±5%) ★")
	assert.Contains(t, out, "Fórmula de Cochran")
}

func TestSize_Errors(t *testing.T) {
	path, _ := testConfig(t, false)

	_, err := execute(t, "--config", path, "size")
	assert.Error(t, err)

	_, err = execute(t, "--config", path, "size", "--populacao", "1000", "--confianca", "0.80")
	assert.Error(t, err)

	_, err = execute(t, "--config", path, "size", "--uf", "TO", "--municipio", "Palmas")
	assert.Error(t, err, "no dataset on disk")
}

func TestPlan(t *testing.T) {
	path, cfg := testConfig(t, true)
	out, err := execute(t, "--config", path, "plan", "--uf", "TO", "--municipio", "Porto Nacional", "--amostra", "500", "--formato", "markdown")
	require.NoError(t, err)
	assert.Contains(t, out, "Plano amostral: Porto Nacional / TO")
	assert.Contains(t, out, "manual")

	md, err := filepath.Glob(filepath.Join(cfg.Data.OutputDir, "*", "*.md"))
	require.NoError(t, err)
	assert.Len(t, md, 1)
	xlsx, err := filepath.Glob(filepath.Join(cfg.Data.OutputDir, "*", "*.xlsx"))
	require.NoError(t, err)
	assert.Len(t, xlsx, 1)
}

func TestPlan_RequiresMunicipality(t *testing.T) {
	path, _ := testConfig(t, true)
	_, err := execute(t, "--config", path, "plan", "--uf", "TO")
	assert.Error(t, err)
}

func TestParseSources(t *testing.T) {
	got, err := parseSources([]string{"to=./perfil.zip", "GO = https://example.org/perfil_GO.csv"})
	require.NoError(t, err)
	assert.Equal(t, []model.Source{
		{UF: "TO", Type: "zip", URL: "./perfil.zip"},
		{UF: "GO", Type: "csv", URL: "https://example.org/perfil_GO.csv"},
	}, got)

	for _, bad := range []string{"TO", "TOC=x.zip", "TO="} {
		_, err := parseSources([]string{bad})
		assert.Error(t, err, bad)
	}
}

func TestDatasetBuild_SourcesUnreachable(t *testing.T) {
	path, cfg := testConfig(t, false)
	out, err := execute(t, "--config", path, "dataset", "build", "--ufs", "TO",
		"--source", "TO="+filepath.Join(cfg.Data.Dir, "absent.zip"))
	assert.Error(t, err)
	assert.Contains(t, out, model.StatusFailed)
	assert.NoFileExists(t, filepath.Join(cfg.Data.Dir, dataset.ZonesFile))
}
