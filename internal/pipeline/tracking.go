package pipeline

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"instituto-amostral/internal/model"
	"instituto-amostral/internal/store"
)

// maxPersistedErrors caps job_errors rows per job; the rest are only counted.
const maxPersistedErrors = 200

// Tracker records job metrics and mirrors stage events into the store.
type Tracker struct {
	jobID       string
	logger      *zap.Logger
	persistLogs bool

	mu        sync.Mutex
	metrics   model.JobMetrics
	persisted int
}

// NewTracker starts tracking a job.
func NewTracker(jobID string, logger *zap.Logger, persistLogs bool) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{
		jobID:       jobID,
		logger:      logger.With(zap.String("job_id", jobID)),
		persistLogs: persistLogs,
		metrics: model.JobMetrics{
			JobID:     jobID,
			StartTime: time.Now(),
			Stages:    make(map[string]model.StageMetrics),
			Sources:   make(map[string]model.SourceMetrics),
			Errors:    make([]model.ErrorDetail, 0),
		},
	}
}

// persist reports store failures without failing the job. A process running
// without a database skips persistence silently.
func (t *Tracker) persist(err error) {
	if err != nil && !errors.Is(err, store.ErrNotInitialized) {
		t.logger.Warn("store write failed", zap.Error(err))
	}
}

// SetStatus updates the job status.
func (t *Tracker) SetStatus(status string) {
	t.persist(store.UpdateJobStatus(t.jobID, status))
}

// Log writes a job log line to zap and, when enabled, to the store.
func (t *Tracker) Log(stage, level, message string, details map[string]interface{}) {
	fields := []zap.Field{zap.String("stage", stage)}
	for k, v := range details {
		fields = append(fields, zap.Any(k, v))
	}
	switch level {
	case "error":
		t.logger.Error(message, fields...)
	case "warning":
		t.logger.Warn(message, fields...)
	case "debug":
		t.logger.Debug(message, fields...)
	default:
		t.logger.Info(message, fields...)
	}
	if t.persistLogs {
		t.persist(store.SavePipelineLog(t.jobID, stage, level, message, details))
	}
}

// StartStage marks the start of a pipeline stage.
func (t *Tracker) StartStage(stage, status string, details map[string]interface{}) {
	now := time.Now()
	t.mu.Lock()
	t.metrics.Stages[stage] = model.StageMetrics{StageName: stage, Status: "started", StartTime: now}
	t.mu.Unlock()

	if status != "" {
		t.SetStatus(status)
	}
	t.persist(store.SaveStageProgress(t.jobID, stage, "started", &now, nil, 0, 0))
	t.Log(stage, "info", fmt.Sprintf("Starting %s stage", stage), details)
}

// EndStage marks the end of a pipeline stage.
func (t *Tracker) EndStage(stage string, records, errorCount int64, details map[string]interface{}) {
	now := time.Now()
	t.mu.Lock()
	m := t.metrics.Stages[stage]
	m.StageName = stage
	m.Status = "completed"
	m.EndTime = &now
	m.Duration = now.Sub(m.StartTime)
	m.RecordsProcessed = records
	m.ErrorCount = errorCount
	if secs := m.Duration.Seconds(); secs > 0 {
		m.ThroughputRPS = float64(records) / secs
	}
	t.metrics.Stages[stage] = m
	start := m.StartTime
	t.mu.Unlock()

	t.persist(store.SaveStageProgress(t.jobID, stage, "completed", &start, &now, records, errorCount))
	if details == nil {
		details = map[string]interface{}{}
	}
	details["records"] = records
	details["duration_ms"] = m.Duration.Milliseconds()
	t.Log(stage, "info", fmt.Sprintf("%s stage completed", stage), details)
}

// FailStage marks a stage as failed.
func (t *Tracker) FailStage(stage string, err error) {
	now := time.Now()
	t.mu.Lock()
	m := t.metrics.Stages[stage]
	m.StageName = stage
	m.Status = "failed"
	m.EndTime = &now
	t.metrics.Stages[stage] = m
	start := m.StartTime
	t.mu.Unlock()

	t.persist(store.SaveStageProgress(t.jobID, stage, "failed", &start, &now, m.RecordsProcessed, m.ErrorCount+1))
	t.Log(stage, "error", fmt.Sprintf("%s stage failed", stage), map[string]interface{}{"error": err.Error()})
}

// RecordError keeps an error detail and persists the first ones.
func (t *Tracker) RecordError(d model.ErrorDetail) {
	if d.Timestamp.IsZero() {
		d.Timestamp = time.Now()
	}
	t.mu.Lock()
	keep := len(t.metrics.Errors) < maxPersistedErrors
	if keep {
		t.metrics.Errors = append(t.metrics.Errors, d)
	}
	t.mu.Unlock()

	if keep {
		t.persist(store.SaveJobError(t.jobID, fmt.Errorf("[%s] %s", d.Stage, d.Message)))
	}
}

// ConsumeErrors records every error from errs until it is closed.
func (t *Tracker) ConsumeErrors(errs <-chan model.ErrorDetail) {
	for d := range errs {
		t.RecordError(d)
	}
}

// AddSource stores the ingestion metrics of one source.
func (t *Tracker) AddSource(m model.SourceMetrics) {
	t.mu.Lock()
	t.metrics.Sources[m.SourceURL] = m
	t.mu.Unlock()
}

// Update applies fn to the metrics under the tracker lock.
func (t *Tracker) Update(fn func(*model.JobMetrics)) {
	t.mu.Lock()
	fn(&t.metrics)
	t.mu.Unlock()
}

// Metrics returns a snapshot of the job metrics.
func (t *Tracker) Metrics() model.JobMetrics {
	t.mu.Lock()
	defer t.mu.Unlock()
	m := t.metrics
	m.Stages = make(map[string]model.StageMetrics, len(t.metrics.Stages))
	for k, v := range t.metrics.Stages {
		m.Stages[k] = v
	}
	m.Sources = make(map[string]model.SourceMetrics, len(t.metrics.Sources))
	for k, v := range t.metrics.Sources {
		m.Sources[k] = v
	}
	m.Errors = append([]model.ErrorDetail(nil), t.metrics.Errors...)
	return m
}
