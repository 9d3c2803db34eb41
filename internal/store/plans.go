package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// PlanRecord is a generated plan as persisted.
type PlanRecord struct {
	ID           string          `json:"id"`
	JobID        string          `json:"jobId,omitempty"`
	UF           string          `json:"uf"`
	Municipality string          `json:"municipio"`
	SampleSize   int             `json:"amostra"`
	Mode         string          `json:"modo"`
	Confidence   int             `json:"confianca"`
	Margin       float64         `json:"margem_erro"`
	Plan         json.RawMessage `json:"plan,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// PlanFile is a rendered file of a plan.
type PlanFile struct {
	PlanID    string    `json:"planId"`
	Format    string    `json:"format"`
	Path      string    `json:"path"`
	SizeBytes int64     `json:"sizeBytes"`
	CreatedAt time.Time `json:"createdAt"`
}

// SavePlan stores a plan. Plan holds the JSON document of the plan.
func SavePlan(rec PlanRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	return exec(`INSERT INTO plans (id, job_id, uf, municipality, sample_size, mode, confidence, margin, plan, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.JobID, rec.UF, rec.Municipality, rec.SampleSize, rec.Mode, rec.Confidence, rec.Margin, string(rec.Plan), rec.CreatedAt)
}

// GetPlan fetches a plan with its document.
func GetPlan(id string) (*PlanRecord, error) {
	row, err := queryRow(`SELECT job_id, uf, municipality, sample_size, mode, confidence, margin, plan, created_at FROM plans WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	rec := PlanRecord{ID: id}
	var jobID sql.NullString
	var doc string
	if err := row.Scan(&jobID, &rec.UF, &rec.Municipality, &rec.SampleSize, &rec.Mode, &rec.Confidence, &rec.Margin, &doc, &rec.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("plan %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	rec.JobID = jobID.String
	rec.Plan = json.RawMessage(doc)
	return &rec, nil
}

// ListPlans returns plan summaries newest first, optionally filtered by UF.
func ListPlans(uf string, limit int) ([]PlanRecord, error) {
	q := `SELECT id, job_id, uf, municipality, sample_size, mode, confidence, margin, created_at FROM plans`
	var args []interface{}
	if uf != "" {
		q += ` WHERE uf = ?`
		args = append(args, strings.ToUpper(uf))
	}
	q += ` ORDER BY created_at DESC`
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []PlanRecord{}
	for rows.Next() {
		var rec PlanRecord
		var jobID sql.NullString
		if err := rows.Scan(&rec.ID, &jobID, &rec.UF, &rec.Municipality, &rec.SampleSize, &rec.Mode, &rec.Confidence, &rec.Margin, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.JobID = jobID.String
		out = append(out, rec)
	}
	return out, rows.Err()
}

// SavePlanFile records a rendered file of a plan.
func SavePlanFile(f PlanFile) error {
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}
	return exec(`INSERT INTO plan_files (plan_id, format, path, size_bytes, created_at) VALUES (?, ?, ?, ?, ?)`,
		f.PlanID, f.Format, f.Path, f.SizeBytes, f.CreatedAt)
}

// GetPlanFiles lists the files of a plan.
func GetPlanFiles(planID string) ([]PlanFile, error) {
	rows, err := query(`SELECT format, path, size_bytes, created_at FROM plan_files WHERE plan_id = ? ORDER BY id`, planID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []PlanFile{}
	for rows.Next() {
		f := PlanFile{PlanID: planID}
		if err := rows.Scan(&f.Format, &f.Path, &f.SizeBytes, &f.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
