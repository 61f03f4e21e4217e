package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"fluxbridge/core"
	"fluxbridge/logging"
)

// Job kinds recorded in the journal.
const (
	KindDownload = "download"
	KindGenerate = "generate"
)

// JobRecord is one row in the jobs table.
type JobRecord struct {
	ID            string    // UUID of the invocation
	Kind          string    // "download" or "generate"
	Model         string    // model identifier requested
	Outcome       string    // "success", "failure", "timeout"
	Detail        string    // failure reason or "" on success
	BytesObserved int64     // last sampled cache byte total (downloads only)
	DurationMS    int64     // wall-clock job duration in milliseconds
	CreatedAt     time.Time // when the record was written
}

// Store is the sqlite-backed job journal. It implements core.Journal.
type Store struct {
	db     *sql.DB
	logger *logging.Logger
}

// Open opens (or creates) the journal at path and applies pending schema
// migrations. The logger receives journaling diagnostics; journal errors are
// logged, never returned to job code.
func Open(path string, logger *logging.Logger) (*Store, error) {
	db, err := newConnection(DefaultConnectionConfig(path))
	if err != nil {
		return nil, err
	}
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, logger: logger.Named("history")}, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Insert writes one job record.
func (s *Store) Insert(ctx context.Context, rec JobRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("history: record ID is required")
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO jobs (id, kind, model, outcome, detail, bytes_observed, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Kind, rec.Model, rec.Outcome, rec.Detail,
		rec.BytesObserved, rec.DurationMS, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("history: failed to insert job record: %w", err)
	}
	return nil
}

// RecentJobs returns up to limit records, newest first.
func (s *Store) RecentJobs(ctx context.Context, limit int) ([]JobRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, model, outcome, detail, bytes_observed, duration_ms, created_at
		FROM jobs ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: failed to query jobs: %w", err)
	}
	defer rows.Close()

	var records []JobRecord
	for rows.Next() {
		var rec JobRecord
		if err := rows.Scan(&rec.ID, &rec.Kind, &rec.Model, &rec.Outcome,
			&rec.Detail, &rec.BytesObserved, &rec.DurationMS, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("history: failed to scan job record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// RecordDownload implements core.Journal. Failures are logged and swallowed:
// the journal has the same non-fatal policy as progress sampling.
func (s *Store) RecordDownload(job core.DownloadJob, outcome core.Outcome) {
	rec := JobRecord{
		ID:            job.ID.String(),
		Kind:          KindDownload,
		Model:         job.Model,
		Outcome:       outcome.Kind.String(),
		BytesObserved: outcome.BytesObserved,
		DurationMS:    outcome.Duration.Milliseconds(),
		CreatedAt:     job.StartedAt.UTC(),
	}
	if outcome.Err != nil {
		rec.Detail = outcome.Err.Error()
	}
	s.record(rec)
}

// RecordGeneration journals one image generation run.
func (s *Store) RecordGeneration(id, model string, success bool, detail string, duration time.Duration) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	s.record(JobRecord{
		ID:         id,
		Kind:       KindGenerate,
		Model:      model,
		Outcome:    outcome,
		Detail:     detail,
		DurationMS: duration.Milliseconds(),
	})
}

func (s *Store) record(rec JobRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Insert(ctx, rec); err != nil {
		s.logger.Warn("failed to journal job",
			zap.String("job_id", rec.ID),
			zap.String("kind", rec.Kind),
			zap.Error(err))
	}
}
