package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"instituto-amostral/internal/model"
)

var (
	ErrNotInitialized = errors.New("store not initialized")
	ErrNotFound       = errors.New("not found")
)

var (
	db     *sql.DB
	driver string
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS jobs (
		id TEXT PRIMARY KEY,
		kind TEXT,
		spec TEXT,
		status TEXT,
		created_at TIMESTAMP,
		updated_at TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS job_errors (
		id {{serial}},
		job_id TEXT,
		error_message TEXT,
		created_at TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS stage_progress (
		job_id TEXT,
		stage TEXT,
		status TEXT,
		started_at TIMESTAMP,
		finished_at TIMESTAMP,
		records_processed BIGINT,
		error_count BIGINT,
		updated_at TIMESTAMP,
		PRIMARY KEY (job_id, stage)
	)`,
	`CREATE TABLE IF NOT EXISTS pipeline_logs (
		id {{serial}},
		job_id TEXT,
		stage TEXT,
		level TEXT,
		message TEXT,
		details TEXT,
		created_at TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS plans (
		id TEXT PRIMARY KEY,
		job_id TEXT,
		uf TEXT,
		municipality TEXT,
		sample_size INTEGER,
		mode TEXT,
		confidence INTEGER,
		margin DOUBLE PRECISION,
		plan TEXT,
		created_at TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS plan_files (
		id {{serial}},
		plan_id TEXT,
		format TEXT,
		path TEXT,
		size_bytes BIGINT,
		created_at TIMESTAMP
	)`,
}

// InitDB opens the database and creates the tables. driver is "sqlite3" or
// "postgres".
func InitDB(driverName, dsn string) error {
	conn, err := sql.Open(driverName, dsn)
	if err != nil {
		return err
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return fmt.Errorf("failed to connect to %s: %w", driverName, err)
	}
	serial := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if driverName == "postgres" {
		serial = "SERIAL PRIMARY KEY"
	} else {
		// sqlite serialises writers; one connection avoids "database is locked"
		conn.SetMaxOpenConns(1)
	}
	for _, ddl := range schema {
		if _, err := conn.Exec(strings.ReplaceAll(ddl, "{{serial}}", serial)); err != nil {
			conn.Close()
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	db, driver = conn, driverName
	return nil
}

// Close releases the database.
func Close() error {
	if db == nil {
		return nil
	}
	err := db.Close()
	db, driver = nil, ""
	return err
}

// Ready reports whether InitDB succeeded.
func Ready() bool { return db != nil }

// rebind rewrites ? placeholders as $n for postgres.
func rebind(query string) string {
	if driver != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func exec(query string, args ...interface{}) error {
	if db == nil {
		return ErrNotInitialized
	}
	_, err := db.Exec(rebind(query), args...)
	return err
}

func query(q string, args ...interface{}) (*sql.Rows, error) {
	if db == nil {
		return nil, ErrNotInitialized
	}
	return db.Query(rebind(q), args...)
}

func queryRow(q string, args ...interface{}) (*sql.Row, error) {
	if db == nil {
		return nil, ErrNotInitialized
	}
	return db.QueryRow(rebind(q), args...), nil
}

// Job is a row of the jobs table.
type Job struct {
	ID        string          `json:"id"`
	Kind      model.JobKind   `json:"kind"`
	Spec      json.RawMessage `json:"spec,omitempty"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// SaveJob stores a new job in pending state.
func SaveJob(jobID string, kind model.JobKind, spec interface{}) error {
	specJSON, err := json.Marshal(spec)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	return exec(`INSERT INTO jobs (id, kind, spec, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		jobID, string(kind), string(specJSON), model.StatusPending, now, now)
}

// UpdateJobStatus updates job status
func UpdateJobStatus(jobID string, status string) error {
	now := time.Now().UTC()
	return exec(`UPDATE jobs SET status = ?, updated_at = ? WHERE id = ?`, status, now, jobID)
}

// ListJobs returns jobs newest first. An empty kind lists every job.
func ListJobs(kind model.JobKind) ([]Job, error) {
	q := `SELECT id, kind, status, created_at, updated_at FROM jobs`
	var args []interface{}
	if kind != "" {
		q += ` WHERE kind = ?`
		args = append(args, string(kind))
	}
	rows, err := query(q+` ORDER BY created_at DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	jobs := []Job{}
	for rows.Next() {
		var j Job
		var k string
		if err := rows.Scan(&j.ID, &k, &j.Status, &j.CreatedAt, &j.UpdatedAt); err != nil {
			return nil, err
		}
		j.Kind = model.JobKind(k)
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// GetJob fetches full job spec and status
func GetJob(jobID string) (*Job, error) {
	row, err := queryRow(`SELECT kind, spec, status, created_at, updated_at FROM jobs WHERE id = ?`, jobID)
	if err != nil {
		return nil, err
	}
	j := Job{ID: jobID}
	var kind, spec string
	if err := row.Scan(&kind, &spec, &j.Status, &j.CreatedAt, &j.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("job %s: %w", jobID, ErrNotFound)
		}
		return nil, err
	}
	j.Kind = model.JobKind(kind)
	j.Spec = json.RawMessage(spec)
	return &j, nil
}

// JobError is a row of job_errors.
type JobError struct {
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// SaveJobError records an error for a job
func SaveJobError(jobID string, err error) error {
	if err == nil {
		return nil
	}
	return exec(`INSERT INTO job_errors (job_id, error_message, created_at) VALUES (?, ?, ?)`,
		jobID, err.Error(), time.Now().UTC())
}

// GetJobErrors returns the errors of a job in insertion order.
func GetJobErrors(jobID string) ([]JobError, error) {
	rows, err := query(`SELECT error_message, created_at FROM job_errors WHERE job_id = ? ORDER BY id`, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []JobError{}
	for rows.Next() {
		var e JobError
		if err := rows.Scan(&e.Message, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
