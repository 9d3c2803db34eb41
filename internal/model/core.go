package model

// JobKind distinguishes the asynchronous jobs tracked in the store
type JobKind string

const (
	JobKindPlan    JobKind = "plan"
	JobKindDataset JobKind = "dataset"
)

// Job statuses written to the jobs table
const (
	StatusPending     = "pending"
	StatusRunning     = "running"
	StatusIngesting   = "ingesting"
	StatusValidating  = "validating"
	StatusAggregating = "aggregating"
	StatusExporting   = "exporting"
	StatusSizing      = "sizing"
	StatusRendering   = "rendering"
	StatusCompleted   = "completed"
	StatusFailed      = "failed"
)

// ValidationRules defines validation requirements for section rows
type ValidationRules struct {
	RequiredFields []string           `json:"requiredFields"` // fields that must be present
	MinValues      map[string]float64 `json:"minValues"`      // min allowed numeric values
	MaxValues      map[string]float64 `json:"maxValues"`      // optional max limits
	AllowedUFs     []string           `json:"allowedUFs"`     // empty means any
}

// Source is a TSE per-section electorate profile file for one UF
type Source struct {
	UF         string           `json:"uf"`
	Type       string           `json:"type"` // zip, csv
	URL        string           `json:"url"`  // http(s) URL or local path
	Validation *ValidationRules `json:"validation,omitempty"`
}

// DatasetJobSpec is the body of POST /api/v1/datasets
type DatasetJobSpec struct {
	UFs         []string          `json:"ufs"`               // empty means every UF in the catalog
	Sources     []Source          `json:"sources,omitempty"` // explicit files; the TSE catalog is queried when empty
	Concurrency ConcurrencyConfig `json:"concurrency"`
	Logging     bool              `json:"logging"` // persist per-stage logs
}

// PlanJobSpec is the body of POST /api/v1/plans and the query of GET /api/v1/plano
type PlanJobSpec struct {
	UF           string  `json:"uf"`
	Municipality string  `json:"municipio"`
	SampleSize   *int    `json:"amostra,omitempty"` // nil means use the recommended size
	Format       string  `json:"formato"`
	Confidence   float64 `json:"confianca"`
	Margin       float64 `json:"margem_erro"`
}
