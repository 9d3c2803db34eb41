package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"instituto-amostral/internal/model"
)

// Endpoints are the remote sources of the dataset build.
type Endpoints struct {
	IBGEMunicipalities string
	IBGEPopulation     string
	TSECatalog         string
}

// SourceClient talks to the IBGE and TSE open-data services.
type SourceClient struct {
	HTTP      *http.Client
	Endpoints Endpoints
	Retry     model.RetryConfig
	Logger    *zap.Logger
}

// NewSourceClient builds a client with the given request timeout.
func NewSourceClient(endpoints Endpoints, timeout time.Duration, retry model.RetryConfig, logger *zap.Logger) *SourceClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SourceClient{
		HTTP:      &http.Client{Timeout: timeout},
		Endpoints: endpoints,
		Retry:     retry,
		Logger:    logger,
	}
}

// getJSON fetches url and decodes the body into v, retrying transient
// failures.
func (c *SourceClient) getJSON(ctx context.Context, url string, v interface{}) error {
	return WithRetry(ctx, c.Retry, c.Logger, "GET "+url, func(ctx context.Context, _ int) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return Permanent(err)
		}
		req.Header.Set("Accept", "application/json")
		resp, err := c.HTTP.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			_, _ = io.Copy(io.Discard, resp.Body)
			return &StatusError{URL: url, Code: resp.StatusCode}
		}
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			return Permanent(fmt.Errorf("decode %s: %w", url, err))
		}
		return nil
	})
}

type ibgeUF struct {
	Sigla string `json:"sigla"`
}

type ibgeMunicipality struct {
	ID           int    `json:"id"`
	Nome         string `json:"nome"`
	Microrregiao *struct {
		Mesorregiao *struct {
			UF *ibgeUF `json:"UF"`
		} `json:"mesorregiao"`
	} `json:"microrregiao"`
	RegiaoImediata *struct {
		RegiaoIntermediaria *struct {
			UF *ibgeUF `json:"UF"`
		} `json:"regiao-intermediaria"`
	} `json:"regiao-imediata"`
}

func (m ibgeMunicipality) uf() string {
	if m.Microrregiao != nil && m.Microrregiao.Mesorregiao != nil && m.Microrregiao.Mesorregiao.UF != nil {
		return m.Microrregiao.Mesorregiao.UF.Sigla
	}
	if m.RegiaoImediata != nil && m.RegiaoImediata.RegiaoIntermediaria != nil && m.RegiaoImediata.RegiaoIntermediaria.UF != nil {
		return m.RegiaoImediata.RegiaoIntermediaria.UF.Sigla
	}
	return ""
}

// FetchMunicipalities downloads the official municipality list.
func (c *SourceClient) FetchMunicipalities(ctx context.Context) ([]model.MunicipalityRecord, error) {
	var payload []ibgeMunicipality
	if err := c.getJSON(ctx, c.Endpoints.IBGEMunicipalities, &payload); err != nil {
		return nil, err
	}
	out := make([]model.MunicipalityRecord, 0, len(payload))
	for _, m := range payload {
		uf := m.uf()
		if uf == "" || m.ID == 0 {
			continue
		}
		out = append(out, model.MunicipalityRecord{UF: uf, Name: strings.TrimSpace(m.Nome), IBGEID: m.ID})
	}
	c.Logger.Info("IBGE municipalities loaded", zap.Int("count", len(out)))
	return out, nil
}

type ibgeAggregate struct {
	Resultados []struct {
		Series []struct {
			Localidade struct {
				ID string `json:"id"`
			} `json:"localidade"`
			Serie map[string]string `json:"serie"`
		} `json:"series"`
	} `json:"resultados"`
}

// FetchPopulation downloads the latest resident population estimate of every
// municipality, keyed by IBGE id, with the most recent reference year seen.
func (c *SourceClient) FetchPopulation(ctx context.Context) (map[int]int, int, error) {
	var payload []ibgeAggregate
	if err := c.getJSON(ctx, c.Endpoints.IBGEPopulation, &payload); err != nil {
		return nil, 0, err
	}
	if len(payload) == 0 || len(payload[0].Resultados) == 0 {
		return nil, 0, fmt.Errorf("unexpected IBGE population payload")
	}

	population := make(map[int]int)
	refYear := 0
	for _, item := range payload[0].Resultados[0].Series {
		id, err := strconv.Atoi(item.Localidade.ID)
		if err != nil {
			continue
		}
		year, value := latestValue(item.Serie)
		if year == 0 {
			continue
		}
		population[id] = value
		if year > refYear {
			refYear = year
		}
	}
	if refYear == 0 {
		refYear = time.Now().Year()
	}
	c.Logger.Info("IBGE population loaded", zap.Int("count", len(population)), zap.Int("reference_year", refYear))
	return population, refYear, nil
}

// latestValue picks the most recent year with a usable value. IBGE marks
// missing values with "...", "-" or blanks.
func latestValue(serie map[string]string) (int, int) {
	years := make([]int, 0, len(serie))
	for y, v := range serie {
		v = strings.TrimSpace(v)
		if v == "" || v == "..." || v == "-" {
			continue
		}
		if year, err := strconv.Atoi(y); err == nil {
			years = append(years, year)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	for _, year := range years {
		f, err := strconv.ParseFloat(strings.ReplaceAll(serie[strconv.Itoa(year)], ",", "."), 64)
		if err == nil {
			return year, int(f)
		}
	}
	return 0, 0
}

type ckanResponse struct {
	Success bool `json:"success"`
	Result  struct {
		Results []struct {
			Title     string `json:"title"`
			Resources []struct {
				Name string `json:"name"`
				URL  string `json:"url"`
			} `json:"resources"`
		} `json:"results"`
	} `json:"result"`
}

const (
	tseDatasetTitle   = "Eleitorado Atual"
	tseResourceMarker = "Perfil do eleitorado por seção eleitoral - Atual"
)

// FetchTSESources queries the TSE open-data catalog for the per-section
// profile file of every UF.
func (c *SourceClient) FetchTSESources(ctx context.Context) ([]model.Source, error) {
	var payload ckanResponse
	if err := c.getJSON(ctx, c.Endpoints.TSECatalog, &payload); err != nil {
		return nil, err
	}
	if !payload.Success {
		return nil, fmt.Errorf("TSE catalog query was not successful")
	}
	results := payload.Result.Results
	if len(results) == 0 {
		return nil, fmt.Errorf("TSE catalog returned no datasets")
	}
	pkg := results[0]
	for _, r := range results {
		if r.Title == tseDatasetTitle {
			pkg = r
			break
		}
	}

	byUF := make(map[string]string)
	for _, r := range pkg.Resources {
		name := strings.TrimSpace(r.Name)
		if r.URL == "" || !strings.Contains(name, tseResourceMarker) {
			continue
		}
		prefix := strings.ToUpper(strings.TrimSpace(strings.SplitN(name, " - ", 2)[0]))
		if len(prefix) == 2 && prefix != "ZZ" && isAlpha(prefix) {
			byUF[prefix] = r.URL
		}
	}
	if len(byUF) < 27 {
		c.Logger.Warn("TSE catalog is missing UFs", zap.Int("found", len(byUF)), zap.Int("expected", 27))
	}

	out := make([]model.Source, 0, len(byUF))
	for uf, url := range byUF {
		out = append(out, model.Source{UF: uf, Type: "zip", URL: url})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UF < out[j].UF })
	return out, nil
}

func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// download copies url (http or local path) into a temporary file.
func (c *SourceClient) download(ctx context.Context, url, pattern string) (string, error) {
	tmp, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", err
	}
	path := tmp.Name()
	tmp.Close()

	err = WithRetry(ctx, c.Retry, c.Logger, "download "+url, func(ctx context.Context, _ int) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return Permanent(err)
		}
		resp, err := c.HTTP.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return &StatusError{URL: url, Code: resp.StatusCode}
		}
		f, err := os.Create(path)
		if err != nil {
			return Permanent(err)
		}
		if _, err := io.Copy(f, resp.Body); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	})
	if err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}
