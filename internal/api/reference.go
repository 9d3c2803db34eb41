package api

import (
	"errors"
	"net/http"
	"strings"

	"instituto-amostral/internal/dataset"
	"instituto-amostral/internal/sampling"
)

// Health reports service liveness
// @Summary Health check
// @Tags system
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	_, err := h.Datasets.Get()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"service": "Instituto Amostral",
		"dataset": err == nil,
	})
}

// ListUFs lists the UFs present in the dataset
// @Summary List UFs
// @Tags dataset
// @Produce json
// @Success 200 {object} map[string][]string
// @Failure 503 {object} ErrorResponse "Dataset unavailable"
// @Router /ufs [get]
func (h *Handler) ListUFs(w http.ResponseWriter, r *http.Request) {
	ds, err := h.Datasets.Get()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"ufs": ds.UFs()})
}

// ListMunicipalities lists municipalities, optionally of one UF
// @Summary List municipalities
// @Tags dataset
// @Produce json
// @Param uf query string false "UF (e.g. TO)"
// @Success 200 {object} map[string][]dataset.MunicipalitySummary
// @Failure 503 {object} ErrorResponse "Dataset unavailable"
// @Router /municipios [get]
func (h *Handler) ListMunicipalities(w http.ResponseWriter, r *http.Request) {
	ds, err := h.Datasets.Get()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := ds.Municipalities(r.URL.Query().Get("uf"))
	if out == nil {
		out = []dataset.MunicipalitySummary{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"municipios": out})
}

// SizingResponse is the reply of /calcular-amostra.
type SizingResponse struct {
	UF                string                     `json:"uf"`
	Municipality      string                     `json:"municipio"`
	Electorate        int                        `json:"eleitores"`
	Zones             int                        `json:"zonas"`
	Recommended       int                        `json:"recomendado"`
	FieldTarget       int                        `json:"alvo_campo_sugerido"`
	MinimumCochran    int                        `json:"minimo_cochran"`
	ZoneFloor         int                        `json:"minimo_por_zona"`
	RealizedMarginPct float64                    `json:"margem_real_pct"`
	Scenarios         []sampling.Scenario        `json:"cenarios"`
	Justification     string                     `json:"justificativa"`
	Sizing            *sampling.SampleSizeResult `json:"calculo"`
}

// CalculateSample sizes the survey of a municipality without rendering files
// @Summary Recommended sample of a municipality
// @Description Cochran minimum, design effect, municipal and per-zone floors, field target and the scenario matrix.
// @Tags sampling
// @Produce json
// @Param uf query string true "UF"
// @Param municipio query string true "Municipality name"
// @Param confianca query number false "Confidence level (0.90, 0.95, 0.99)"
// @Param margem_erro query number false "Margin of error (0.05 = 5%)"
// @Success 200 {object} SizingResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse "Municipality not found"
// @Failure 503 {object} ErrorResponse "Dataset unavailable"
// @Router /calcular-amostra [get]
func (h *Handler) CalculateSample(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r)
	uf := q.required("uf")
	name := q.required("municipio")
	confidence := h.confidence(q)
	margin := q.float("margem_erro", h.Config.Sampling.Margin)
	if q.err != nil {
		h.writeError(w, r, badParam(q.err))
		return
	}

	ds, err := h.Datasets.Get()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	m, zones, err := ds.Municipality(uf, name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	electorate := 0
	for _, z := range zones {
		electorate += z.Total
	}
	res, err := sampling.ComputeSampleSize(sampling.SizingInput{Population: electorate, Zones: len(zones), Confidence: confidence, Margin: margin})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	scenarios, err := sampling.Scenarios(electorate, len(zones), confidence, margin)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SizingResponse{
		UF:                m.UF,
		Municipality:      m.Name,
		Electorate:        electorate,
		Zones:             len(zones),
		Recommended:       res.Recommended,
		FieldTarget:       res.FieldTarget,
		MinimumCochran:    res.MinimumCochran,
		ZoneFloor:         res.ZoneFloor,
		RealizedMarginPct: res.RealizedMargin * 100,
		Scenarios:         scenarios,
		Justification:     sampling.Justification(res),
		Sizing:            res,
	})
}

// universe reads populacao, zonas, confianca and margem_erro.
func (h *Handler) universe(r *http.Request) (sampling.SizingInput, error) {
	q := newQuery(r)
	population := q.int("populacao", true)
	zones := q.int("zonas", false)
	in := sampling.SizingInput{
		Confidence: h.confidence(q),
		Margin:     q.float("margem_erro", h.Config.Sampling.Margin),
	}
	if q.err != nil {
		return in, badParam(q.err)
	}
	in.Population = *population
	if zones != nil {
		in.Zones = *zones
	}
	return in, nil
}

// SampleSize runs the sizing policy on an arbitrary universe
// @Summary Sample size of a universe
// @Tags sampling
// @Produce json
// @Param populacao query int true "Universe size"
// @Param zonas query int false "Number of zones"
// @Param confianca query number false "Confidence level"
// @Param margem_erro query number false "Margin of error"
// @Success 200 {object} sampling.SampleSizeResult
// @Failure 400 {object} ErrorResponse
// @Router /sample-size [get]
func (h *Handler) SampleSize(w http.ResponseWriter, r *http.Request) {
	in, err := h.universe(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	res, err := sampling.ComputeSampleSize(in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ListScenarios evaluates the scenario matrix on a universe
// @Summary Scenario matrix
// @Tags sampling
// @Produce json
// @Param populacao query int true "Universe size"
// @Param zonas query int false "Number of zones"
// @Param confianca query number false "Selected confidence level"
// @Param margem_erro query number false "Selected margin of error"
// @Success 200 {array} sampling.Scenario
// @Failure 400 {object} ErrorResponse
// @Router /cenarios [get]
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	in, err := h.universe(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out, err := sampling.Scenarios(in.Population, in.Zones, in.Confidence, in.Margin)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// badParam tags query parsing failures as invalid parameters.
func badParam(err error) error {
	if errors.Is(err, sampling.ErrInvalidParameter) {
		return err
	}
	return &paramError{msg: strings.TrimSpace(err.Error())}
}

type paramError struct{ msg string }

func (e *paramError) Error() string { return e.msg }
func (e *paramError) Is(target error) bool {
	return target == sampling.ErrInvalidParameter
}
