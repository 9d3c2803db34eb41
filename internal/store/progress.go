package store

import (
	"database/sql"
	"encoding/json"
	"time"
)

// StageProgress is the latest state of one stage of a job.
type StageProgress struct {
	Stage            string     `json:"stage"`
	Status           string     `json:"status"`
	StartedAt        *time.Time `json:"startedAt,omitempty"`
	FinishedAt       *time.Time `json:"finishedAt,omitempty"`
	RecordsProcessed int64      `json:"recordsProcessed"`
	ErrorCount       int64      `json:"errorCount"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// SaveStageProgress upserts the progress of a stage.
func SaveStageProgress(jobID, stage, status string, startedAt, finishedAt *time.Time, records, errorCount int64) error {
	return exec(`INSERT INTO stage_progress (job_id, stage, status, started_at, finished_at, records_processed, error_count, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (job_id, stage) DO UPDATE SET
			status = excluded.status,
			started_at = COALESCE(excluded.started_at, stage_progress.started_at),
			finished_at = excluded.finished_at,
			records_processed = excluded.records_processed,
			error_count = excluded.error_count,
			updated_at = excluded.updated_at`,
		jobID, stage, status, nullTime(startedAt), nullTime(finishedAt), records, errorCount, time.Now().UTC())
}

// GetStageProgress returns the stages of a job in the order they started.
func GetStageProgress(jobID string) ([]StageProgress, error) {
	rows, err := query(`SELECT stage, status, started_at, finished_at, records_processed, error_count, updated_at
		FROM stage_progress WHERE job_id = ? ORDER BY started_at, stage`, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []StageProgress{}
	for rows.Next() {
		var p StageProgress
		var started, finished sql.NullTime
		if err := rows.Scan(&p.Stage, &p.Status, &started, &finished, &p.RecordsProcessed, &p.ErrorCount, &p.UpdatedAt); err != nil {
			return nil, err
		}
		if started.Valid {
			p.StartedAt = &started.Time
		}
		if finished.Valid {
			p.FinishedAt = &finished.Time
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// PipelineLog is a persisted log line of a job.
type PipelineLog struct {
	Stage     string                 `json:"stage"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	CreatedAt time.Time              `json:"createdAt"`
}

// SavePipelineLog appends a log line for a job.
func SavePipelineLog(jobID, stage, level, message string, details map[string]interface{}) error {
	var detailsJSON []byte
	if len(details) > 0 {
		var err error
		if detailsJSON, err = json.Marshal(details); err != nil {
			return err
		}
	}
	return exec(`INSERT INTO pipeline_logs (job_id, stage, level, message, details, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		jobID, stage, level, message, string(detailsJSON), time.Now().UTC())
}

// GetPipelineLogs returns the most recent log lines of a job, oldest first.
// limit <= 0 returns everything.
func GetPipelineLogs(jobID string, limit int) ([]PipelineLog, error) {
	q := `SELECT stage, level, message, details, created_at FROM pipeline_logs WHERE job_id = ? ORDER BY id DESC`
	args := []interface{}{jobID}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []PipelineLog{}
	for rows.Next() {
		var l PipelineLog
		var details sql.NullString
		if err := rows.Scan(&l.Stage, &l.Level, &l.Message, &details, &l.CreatedAt); err != nil {
			return nil, err
		}
		if details.Valid && details.String != "" {
			if err := json.Unmarshal([]byte(details.String), &l.Details); err != nil {
				return nil, err
			}
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
