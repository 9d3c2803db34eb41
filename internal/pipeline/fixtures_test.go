package pipeline

import (
	"archive/zip"
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

const sectionHeader = `"DT_GERACAO";"SG_UF";"NM_MUNICIPIO";"NR_ZONA";"NR_SECAO";"DS_GENERO";"DS_GRAU_ESCOLARIDADE";"DS_FAIXA_ETARIA";"QT_ELEITORES_PERFIL"`

// sectionRows has three valid rows, one row of another UF and one with zone 0.
var sectionRows = []string{
	`"01/10/2026";"TO";"ARAGUAÍNA";"34";"1";"FEMININO";"SUPERIOR COMPLETO";"25 a 29 anos";"10"`,
	`"01/10/2026";"TO";"ARAGUAÍNA";"34";"2";"MASCULINO";"ENSINO MÉDIO COMPLETO";"40 a 44 anos";"8"`,
	`"01/10/2026";"TO";"PALMAS";"29";"1";"NÃO INFORMADO";"ANALFABETO";"70 a 74 anos";"2"`,
	`"01/10/2026";"GO";"GOIÂNIA";"1";"1";"FEMININO";"SUPERIOR COMPLETO";"25 a 29 anos";"5"`,
	`"01/10/2026";"TO";"PALMAS";"0";"1";"FEMININO";"SUPERIOR COMPLETO";"25 a 29 anos";"3"`,
}

// latin1 encodes s the way TSE publishes its files.
func latin1(t *testing.T, s string) []byte {
	t.Helper()
	b, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(s))
	require.NoError(t, err)
	return b
}

func sectionCSV(t *testing.T) []byte {
	t.Helper()
	return latin1(t, sectionHeader+"\n"+strings.Join(sectionRows, "\n")+"\n")
}

func sectionZip(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	_, err := zw.Create("leiame.pdf")
	require.NoError(t, err)
	w, err := zw.Create("perfil_eleitor_secao_ATUAL_TO.csv")
	require.NoError(t, err)
	_, err = w.Write(sectionCSV(t))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// fakeSources serves the IBGE and TSE endpoints used by a dataset build.
type fakeSources struct {
	*httptest.Server
	zipFailures int
}

func newFakeSources(t *testing.T) *fakeSources {
	t.Helper()
	fs := &fakeSources{}
	archive := sectionZip(t)
	mux := http.NewServeMux()
	mux.HandleFunc("/municipios", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[
			{"id":1702109,"nome":"Araguaína","microrregiao":{"mesorregiao":{"UF":{"sigla":"TO"}}}},
			{"id":1721000,"nome":"Palmas","microrregiao":null,"regiao-imediata":{"regiao-intermediaria":{"UF":{"sigla":"TO"}}}},
			{"id":5208707,"nome":"Goiânia","microrregiao":{"mesorregiao":{"UF":{"sigla":"GO"}}}}
		]`)
	})
	mux.HandleFunc("/populacao", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"resultados":[{"series":[
			{"localidade":{"id":"1702109"},"serie":{"2022":"171301","2024":"..."}},
			{"localidade":{"id":"1721000"},"serie":{"2022":"302692","2024":"323625"}}
		]}]}]`)
	})
	mux.HandleFunc("/ckan", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"success":true,"result":{"results":[
			{"title":"Eleitorado 2024","resources":[]},
			{"title":"Eleitorado Atual","resources":[
				{"name":"TO - Perfil do eleitorado por seção eleitoral - Atual","url":"%[1]s/perfil_TO.zip"},
				{"name":"ZZ - Perfil do eleitorado por seção eleitoral - Atual","url":"%[1]s/perfil_ZZ.zip"},
				{"name":"TO - Eleitorado por local de votação","url":"%[1]s/local_TO.zip"}
			]}
		]}}`, fs.URL)
	})
	mux.HandleFunc("/perfil_TO.zip", func(w http.ResponseWriter, r *http.Request) {
		if fs.zipFailures > 0 {
			fs.zipFailures--
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write(archive)
	})
	fs.Server = httptest.NewServer(mux)
	t.Cleanup(fs.Close)
	return fs
}

func (fs *fakeSources) client() *SourceClient {
	c := NewSourceClient(Endpoints{
		IBGEMunicipalities: fs.URL + "/municipios",
		IBGEPopulation:     fs.URL + "/populacao",
		TSECatalog:         fs.URL + "/ckan",
	}, 5*time.Second, fastRetry, nil)
	c.HTTP = fs.Client()
	return c
}
