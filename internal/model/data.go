package model

import "time"

// MunicipalityRecord is a row of ibge.csv
type MunicipalityRecord struct {
	UF           string   `json:"uf"`
	Name         string   `json:"municipio"`
	IBGEID       int      `json:"id_ibge"`
	Population   int      `json:"populacao_total"`
	HDI          *float64 `json:"idh,omitempty"`
	GDPPerCapita *float64 `json:"pib_per_capita,omitempty"`
}

// ZoneRecord is a row of tse.csv
type ZoneRecord struct {
	UF           string `json:"uf"`
	Municipality string `json:"municipio"`
	Zone         int    `json:"zona"`
	Total        int    `json:"eleitores_total"`
	Female       int    `json:"eleitores_feminino"`
	Male         int    `json:"eleitores_masculino"`
	Sections     int    `json:"secoes"`
}

// ProfileRecord is a row of tse_perfil.csv
type ProfileRecord struct {
	UF           string `json:"uf"`
	Municipality string `json:"municipio"`
	Dimension    string `json:"dimensao"`
	Category     string `json:"categoria"`
	Voters       int    `json:"qt_eleitores"`
}

// SectionRecord is one row of a TSE per-section electorate profile file
type SectionRecord struct {
	UF           string `json:"uf"`
	Municipality string `json:"municipio"`
	Zone         int    `json:"zona"`
	Section      int    `json:"secao"`
	Gender       string `json:"genero"`
	Education    string `json:"instrucao"`
	AgeBracket   string `json:"faixa_etaria"`
	Voters       int    `json:"qt_eleitores"`
	GeneratedAt  string `json:"dt_geracao,omitempty"`
	SourceURL    string `json:"source_url"`
	Line         int    `json:"line"`
}

// SourceMeta is persisted as meta_fontes.json next to the tables
type SourceMeta struct {
	GeneratedAt time.Time `json:"gerado_em"`
	IBGE        struct {
		Source        string `json:"fonte"`
		URL           string `json:"url"`
		ReferenceYear int    `json:"ano_referencia"`
	} `json:"ibge"`
	TSE struct {
		Source          string   `json:"fonte"`
		CatalogURL      string   `json:"catalogo_url"`
		GenerationDates []string `json:"datas_geracao_detectadas"`
	} `json:"tse"`
}

// ExportResult represents the result of an export operation
type ExportResult struct {
	Type        string    `json:"type"` // "csv", "json", "markdown", "excel", "database"
	Path        string    `json:"path"` // file path or table name
	RecordCount int       `json:"record_count"`
	Success     bool      `json:"success"`
	Error       string    `json:"error,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}
