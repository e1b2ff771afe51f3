// Package queue implements the durable, table-backed FIFO job queue.
//
// Two instances with identical semantics back the pipeline: the submission
// judge queue and the ad-hoc run queue. Correctness under concurrent
// claimants, including claimants in separate OS processes, rests solely on
// the conditional UPDATE in ClaimNext: only the caller whose update affects
// one row owns the job.
package queue

import (
	"context"
	"fmt"
	"time"

	"minoj/internal/common/db"
	appErr "minoj/pkg/errors"
)

// Table names for the two queue instances.
const (
	JudgeJobsTable = "judge_jobs"
	RunJobsTable   = "run_jobs"
)

// Status is the lifecycle state of a queue job.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusRunning   Status = "RUNNING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

// Job is one row of a queue table.
type Job struct {
	ID         int64
	OwnerID    string
	Payload    string
	Status     Status
	Attempts   int
	LastError  string
	CreatedAt  time.Time
	StartedAt  *time.Time
	FinishedAt *time.Time
}

// Stats holds per-status row counts for one queue table.
type Stats struct {
	Pending   int64 `json:"pending"`
	Running   int64 `json:"running"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
}

// Store is a durable FIFO queue over one MySQL table.
type Store struct {
	db    db.Database
	table string
}

// NewStore creates a queue store bound to the given table.
func NewStore(database db.Database, table string) *Store {
	return &Store{db: database, table: table}
}

// Migrate creates the queue table when it does not exist. Run once at
// startup, never lazily per call.
func (s *Store) Migrate(ctx context.Context) error {
	stmt := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
			owner_id VARCHAR(64) NOT NULL,
			payload MEDIUMTEXT NOT NULL,
			status VARCHAR(16) NOT NULL DEFAULT 'PENDING',
			attempts INT NOT NULL DEFAULT 0,
			last_error TEXT NULL,
			created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
			started_at DATETIME(3) NULL,
			finished_at DATETIME(3) NULL,
			PRIMARY KEY (id),
			UNIQUE KEY uniq_owner (owner_id),
			KEY idx_status_created (status, created_at)
		)`, s.table)
	if _, err := s.db.Exec(ctx, stmt); err != nil {
		return appErr.Wrapf(err, appErr.QueueError, "migrate %s failed", s.table)
	}
	return nil
}

// Enqueue inserts a job for ownerID, or resets the existing row to PENDING.
// The unique key on owner_id guarantees at most one row per owner, so an
// in-flight or finished job is reset in place (this is how rejudge works).
// Attempts are preserved across re-enqueues.
func (s *Store) Enqueue(ctx context.Context, ownerID, payload string) error {
	if ownerID == "" {
		return appErr.ValidationError("owner_id", "required")
	}
	stmt := fmt.Sprintf(`
		INSERT INTO %s (owner_id, payload, status)
		VALUES (?, ?, 'PENDING')
		ON DUPLICATE KEY UPDATE
			payload = VALUES(payload),
			status = 'PENDING',
			last_error = NULL,
			started_at = NULL,
			finished_at = NULL`, s.table)
	if _, err := s.db.Exec(ctx, stmt, ownerID, payload); err != nil {
		return appErr.Wrapf(err, appErr.QueueError, "enqueue into %s failed", s.table)
	}
	return nil
}

// ClaimNext picks the oldest PENDING job and atomically flips it to RUNNING.
// Returns (nil, nil) when the queue is empty or another claimant won the
// race; the caller's next poll tick picks up the next candidate.
func (s *Store) ClaimNext(ctx context.Context) (*Job, error) {
	query := fmt.Sprintf(`
		SELECT id, owner_id, payload, attempts, created_at
		FROM %s
		WHERE status = 'PENDING'
		ORDER BY created_at ASC, id ASC
		LIMIT 1`, s.table)

	job := &Job{}
	row := s.db.QueryRow(ctx, query)
	if err := row.Scan(&job.ID, &job.OwnerID, &job.Payload, &job.Attempts, &job.CreatedAt); err != nil {
		if db.IsNoRows(err) {
			return nil, nil
		}
		return nil, appErr.Wrapf(err, appErr.QueueError, "select pending from %s failed", s.table)
	}

	// The affected-row count of this conditional update is the only
	// cross-process claim guarantee.
	claim := fmt.Sprintf(`
		UPDATE %s
		SET status = 'RUNNING', attempts = attempts + 1, started_at = NOW(3)
		WHERE id = ? AND status = 'PENDING'`, s.table)
	res, err := s.db.Exec(ctx, claim, job.ID)
	if err != nil {
		return nil, appErr.Wrapf(err, appErr.QueueError, "claim job %d failed", job.ID)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, appErr.Wrapf(err, appErr.QueueError, "claim job %d failed", job.ID)
	}
	if affected == 0 {
		// Lost the race to another claimant.
		return nil, nil
	}

	job.Status = StatusRunning
	job.Attempts++
	return job, nil
}

// Complete marks a job COMPLETED.
func (s *Store) Complete(ctx context.Context, id int64) error {
	return s.finish(ctx, id, StatusCompleted, "")
}

// Fail marks a job FAILED and records the error. Failed jobs are not
// retried automatically; re-enqueue is the recovery path.
func (s *Store) Fail(ctx context.Context, id int64, errorMessage string) error {
	return s.finish(ctx, id, StatusFailed, errorMessage)
}

func (s *Store) finish(ctx context.Context, id int64, status Status, errorMessage string) error {
	stmt := fmt.Sprintf(`
		UPDATE %s
		SET status = ?, last_error = ?, finished_at = NOW(3)
		WHERE id = ?`, s.table)
	var lastError interface{}
	if errorMessage != "" {
		lastError = errorMessage
	}
	res, err := s.db.Exec(ctx, stmt, string(status), lastError, id)
	if err != nil {
		return appErr.Wrapf(err, appErr.QueueError, "finish job %d failed", id)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return appErr.Wrapf(err, appErr.QueueError, "finish job %d failed", id)
	}
	if affected == 0 {
		return appErr.Newf(appErr.JobNotFound, "job %d not found in %s", id, s.table)
	}
	return nil
}

// GetByOwner returns the job row for ownerID, or nil when absent.
func (s *Store) GetByOwner(ctx context.Context, ownerID string) (*Job, error) {
	query := fmt.Sprintf(`
		SELECT id, owner_id, payload, status, attempts, last_error, created_at, started_at, finished_at
		FROM %s
		WHERE owner_id = ?
		LIMIT 1`, s.table)
	job := &Job{}
	var lastError *string
	row := s.db.QueryRow(ctx, query, ownerID)
	if err := row.Scan(
		&job.ID,
		&job.OwnerID,
		&job.Payload,
		&job.Status,
		&job.Attempts,
		&lastError,
		&job.CreatedAt,
		&job.StartedAt,
		&job.FinishedAt,
	); err != nil {
		if db.IsNoRows(err) {
			return nil, nil
		}
		return nil, appErr.Wrapf(err, appErr.QueueError, "select from %s failed", s.table)
	}
	if lastError != nil {
		job.LastError = *lastError
	}
	return job, nil
}

// Stats returns per-status counts. A missing table yields zero counts
// rather than an error so operational endpoints work before migration.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	query := fmt.Sprintf(`SELECT status, COUNT(*) FROM %s GROUP BY status`, s.table)
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		if db.IsMissingTable(err) {
			return Stats{}, nil
		}
		return Stats{}, appErr.Wrapf(err, appErr.QueueError, "stats for %s failed", s.table)
	}
	defer func() {
		_ = rows.Close()
	}()

	var stats Stats
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return Stats{}, appErr.Wrapf(err, appErr.QueueError, "stats for %s failed", s.table)
		}
		switch Status(status) {
		case StatusPending:
			stats.Pending = count
		case StatusRunning:
			stats.Running = count
		case StatusCompleted:
			stats.Completed = count
		case StatusFailed:
			stats.Failed = count
		}
	}
	if err := rows.Err(); err != nil {
		return Stats{}, appErr.Wrapf(err, appErr.QueueError, "stats for %s failed", s.table)
	}
	return stats, nil
}
