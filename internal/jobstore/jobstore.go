// Package jobstore is the operational job-status ledger for the queue
// front-ends: a PostgreSQL table tracking a submitted batch job's status,
// progress and result summary. It is not a content index — it never stores
// extracted text or tables — so it does not conflict with the "no persistent
// index" non-goal; it only tracks "is job X done yet".
package jobstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Status is a job's lifecycle state.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Store wraps a PostgreSQL connection pool scoped to the
// kreuzberg_jobs.extraction_jobs table.
type Store struct {
	db *sql.DB
}

// Update is one status transition recorded against a job.
type Update struct {
	JobID         string
	Status        Status
	Progress      int // 0..=100
	ErrorCode     string
	ErrorMessage  string
	ResultSummary map[string]interface{} // e.g. {"mime_type":..., "chunk_count":..., "quality_score":...}
}

// New opens a bounded connection pool against databaseURL and verifies
// connectivity before returning.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error { return s.db.Close() }

// Migrate creates the extraction_jobs table and schema if they do not exist
// yet, so a fresh deployment doesn't require a separate migration step.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE SCHEMA IF NOT EXISTS kreuzberg_jobs;
		CREATE TABLE IF NOT EXISTS kreuzberg_jobs.extraction_jobs (
			id              UUID PRIMARY KEY,
			status          TEXT NOT NULL,
			progress        INTEGER NOT NULL DEFAULT 0,
			error_code      TEXT,
			error_message   TEXT,
			result_summary  JSONB NOT NULL DEFAULT '{}'::jsonb,
			created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`)
	return err
}

// Upsert inserts a new job row or updates an existing one, so the worker can
// create the job record on first status update even if nothing pre-created
// it.
func (s *Store) Upsert(ctx context.Context, u Update) error {
	if u.JobID == "" {
		return fmt.Errorf("job ID is required")
	}
	if u.Status == "" {
		return fmt.Errorf("status is required")
	}
	summaryJSON, err := json.Marshal(u.ResultSummary)
	if err != nil {
		return fmt.Errorf("failed to marshal result summary: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO kreuzberg_jobs.extraction_jobs (
			id, status, progress, error_code, error_message, result_summary, created_at, updated_at
		) VALUES ($1::uuid, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6::jsonb, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET
			status         = EXCLUDED.status,
			progress       = EXCLUDED.progress,
			error_code     = EXCLUDED.error_code,
			error_message  = EXCLUDED.error_message,
			result_summary = EXCLUDED.result_summary,
			updated_at     = NOW()
	`, u.JobID, string(u.Status), u.Progress, u.ErrorCode, u.ErrorMessage, summaryJSON)
	if err != nil {
		return fmt.Errorf("failed to upsert job status: %w", err)
	}
	return nil
}

// Job is one row read back from the ledger.
type Job struct {
	ID            string
	Status        Status
	Progress      int
	ErrorCode     string
	ErrorMessage  string
	ResultSummary map[string]interface{}
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Get reads a single job's current state.
func (s *Store) Get(ctx context.Context, jobID string) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, status, progress, COALESCE(error_code, ''), COALESCE(error_message, ''),
		       result_summary, created_at, updated_at
		FROM kreuzberg_jobs.extraction_jobs WHERE id = $1::uuid
	`, jobID)

	var j Job
	var summaryJSON []byte
	if err := row.Scan(&j.ID, &j.Status, &j.Progress, &j.ErrorCode, &j.ErrorMessage,
		&summaryJSON, &j.CreatedAt, &j.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(summaryJSON, &j.ResultSummary); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result summary: %w", err)
	}
	return &j, nil
}
