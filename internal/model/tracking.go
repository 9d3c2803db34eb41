package model

import "time"

// StageMetrics represents metrics for a specific pipeline stage
type StageMetrics struct {
	StageName        string        `json:"stage_name"`
	Status           string        `json:"status"` // "started", "completed", "failed"
	StartTime        time.Time     `json:"start_time"`
	EndTime          *time.Time    `json:"end_time,omitempty"`
	Duration         time.Duration `json:"duration"`
	RecordsProcessed int64         `json:"records_processed"`
	ErrorCount       int64         `json:"error_count"`
	ThroughputRPS    float64       `json:"throughput_rps"`
}

// SourceMetrics represents metrics for a specific data source
type SourceMetrics struct {
	SourceURL       string        `json:"source_url"`
	UF              string        `json:"uf"`
	RecordsIngested int64         `json:"records_ingested"`
	RecordsInvalid  int64         `json:"records_invalid"`
	IngestionTime   time.Duration `json:"ingestion_time"`
	Attempts        int           `json:"attempts"`
}

// ErrorDetail represents a detailed error with context
type ErrorDetail struct {
	Stage     string    `json:"stage"`
	Message   string    `json:"message"`
	SourceURL string    `json:"source_url,omitempty"`
	Line      int       `json:"line,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// JobMetrics summarises a dataset build
type JobMetrics struct {
	JobID          string                   `json:"job_id"`
	StartTime      time.Time                `json:"start_time"`
	EndTime        time.Time                `json:"end_time"`
	TotalRecords   int64                    `json:"total_records"`
	ValidRecords   int64                    `json:"valid_records"`
	InvalidRecords int64                    `json:"invalid_records"`
	Zones          int                      `json:"zones"`
	Municipalities int                      `json:"municipalities"`
	ProfileRows    int                      `json:"profile_rows"`
	Stages         map[string]StageMetrics  `json:"stages"`
	Sources        map[string]SourceMetrics `json:"sources"`
	Errors         []ErrorDetail            `json:"errors"`
}
