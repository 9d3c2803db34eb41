package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"instituto-amostral/internal/sampling"
)

const tseCSV = "\uFEFFUF,MUNICIPIO,ZONA,ELEITORES_TOTAL,ELEITORES_FEMININO,ELEITORES_MASCULINO,SECOES\n" +
	"TO,Araguaína,34,1000,520,480,10\n" +
	"TO,Araguaína,2,300,150,150,3\n" +
	"TO,Palmas,29,5000,2600,2400,40\n" +
	"GO,Goiânia,1,9000,4700,4300,80\n"

const ibgeCSV = "UF,MUNICIPIO,ID_IBGE,POPULACAO_TOTAL,IDH,PIB_PER_CAPITA\n" +
	"TO,Araguaína,1702109,171301,0.752,N/D\n" +
	"GO,Goiânia,5208707,1437237,,\n"

const profileCSV = "UF,MUNICIPIO,DIMENSAO,CATEGORIA,QT_ELEITORES\n" +
	"TO,Araguaína,INSTRUCAO,ANALFABETO,50\n" +
	"TO,Araguaína,INSTRUCAO,LÊ E ESCREVE,50\n" +
	"TO,Araguaína,INSTRUCAO,ENSINO FUNDAMENTAL INCOMPLETO,200\n" +
	"TO,Araguaína,INSTRUCAO,ENSINO FUNDAMENTAL COMPLETO,100\n" +
	"TO,Araguaína,INSTRUCAO,ENSINO MÉDIO COMPLETO,400\n" +
	"TO,Araguaína,INSTRUCAO,SUPERIOR COMPLETO,200\n" +
	"TO,Araguaína,INSTRUCAO,NÃO INFORMADO,999\n" +
	"TO,Araguaína,FAIXA_ETARIA,Inválido,7\n" +
	"TO,Araguaína,FAIXA_ETARIA,ZZZ,1\n" +
	"TO,Araguaína,OUTRA,X,1\n"

func writeDataset(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return dir
}

func loadFixture(t *testing.T) *Dataset {
	t.Helper()
	ds, err := Load(writeDataset(t, map[string]string{
		ZonesFile:   tseCSV,
		IBGEFile:    ibgeCSV,
		ProfileFile: profileCSV,
		MetaFile:    `{"gerado_em":"2025-01-02T10:00:00Z","tse":{"datas_geracao_detectadas":["01/01/2025"]}}`,
	}))
	require.NoError(t, err)
	return ds
}

func TestLoad(t *testing.T) {
	ds := loadFixture(t)
	assert.Equal(t, []string{"GO", "TO"}, ds.UFs())
	require.NotNil(t, ds.Meta)
	assert.Equal(t, []string{"01/01/2025"}, ds.Meta.TSE.GenerationDates)

	list := ds.Municipalities("to")
	require.Len(t, list, 2)
	assert.Equal(t, MunicipalitySummary{UF: "TO", Name: "Araguaína", Zones: 2, Electorate: 1300}, list[0])
	assert.Equal(t, "Palmas", list[1].Name)
}

func TestMunicipality(t *testing.T) {
	ds := loadFixture(t)

	m, zones, err := ds.Municipality("TO", "araguaina")
	require.NoError(t, err)
	assert.Equal(t, "Araguaína", m.Name)
	assert.Equal(t, 1702109, m.IBGEID)
	assert.Equal(t, 171301, m.Population)
	require.NotNil(t, m.HDI)
	assert.InDelta(t, 0.752, *m.HDI, 1e-9)
	assert.Nil(t, m.GDPPerCapita)
	require.Len(t, zones, 2)
	assert.Equal(t, 2, zones[0].Zone, "zones sorted by number")

	m, _, err = ds.Municipality("TO", "Palmas")
	require.NoError(t, err)
	assert.Equal(t, 5000, m.Population, "population falls back to the electorate")

	_, _, err = ds.Municipality("TO", "Gurupi")
	assert.ErrorIs(t, err, ErrMunicipalityNotFound)
}

func TestDistribution(t *testing.T) {
	ds := loadFixture(t)

	d, src, ok := ds.Distribution("TO", "ARAGUAINA", sampling.AxisEducation)
	require.True(t, ok)
	assert.Equal(t, ProfileSource, src)
	require.Len(t, d, len(EducationOrder))
	assert.Equal(t, "Ensino fundamental", d[2].Category)
	assert.InDelta(t, 0.3, d[2].Share, 1e-9)
	assert.InDelta(t, 0.4, d[3].Share, 1e-9)

	_, _, ok = ds.Distribution("TO", "Araguaína", sampling.AxisAge)
	assert.False(t, ok, "only invalid age labels")
	_, _, ok = ds.Distribution("TO", "Palmas", sampling.AxisEducation)
	assert.False(t, ok)

	resolved, err := ds.Profiles(Calibrated()).Resolve("TO", "Araguaína", sampling.AxisAge)
	require.NoError(t, err)
	assert.Equal(t, sampling.ProvenanceCalibrated, resolved.Provenance)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(writeDataset(t, map[string]string{ZonesFile: tseCSV}))
	assert.ErrorIs(t, err, ErrDataUnavailable)

	_, err = Load(writeDataset(t, map[string]string{ZonesFile: "UF,MUNICIPIO\nTO,Palmas\n", IBGEFile: ibgeCSV}))
	assert.ErrorIs(t, err, ErrInvalidData)
	assert.Contains(t, err.Error(), "missing column ZONA")

	bad := strings.Replace(tseCSV, "TO,Palmas,29,5000", "TO,Palmas,29,cinco", 1)
	_, err = Load(writeDataset(t, map[string]string{ZonesFile: bad, IBGEFile: ibgeCSV}))
	assert.ErrorIs(t, err, ErrInvalidData)
	assert.Contains(t, err.Error(), "row 4")

	_, err = Load(writeDataset(t, map[string]string{ZonesFile: zonesHeaderLine(), IBGEFile: ibgeCSV}))
	assert.ErrorIs(t, err, ErrDataUnavailable)
}

func zonesHeaderLine() string { return strings.Join(ZonesHeader, ",") + "\n" }

func TestProvider(t *testing.T) {
	dir := writeDataset(t, map[string]string{ZonesFile: tseCSV, IBGEFile: ibgeCSV})
	p := NewProvider(dir, nil)

	first, err := p.Get()
	require.NoError(t, err)
	second, err := p.Get()
	require.NoError(t, err)
	assert.Same(t, first, second)

	p.Invalidate()
	third, err := p.Get()
	require.NoError(t, err)
	assert.NotSame(t, first, third)

	_, err = NewProvider(t.TempDir(), nil).Get()
	assert.ErrorIs(t, err, ErrDataUnavailable)
}
