package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/gitvec-labs/gitvec-core/internal/core/domain"
	"github.com/gitvec-labs/gitvec-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.JobStore = (*JobStore)(nil)

// JobStore implements driven.JobStore using PostgreSQL. Terminality is
// enforced in the UPDATE itself, so a racing writer can never overwrite
// a finished job.
type JobStore struct {
	db *DB
}

// NewJobStore creates a new JobStore
func NewJobStore(db *DB) *JobStore {
	return &JobStore{db: db}
}

// Create persists a new job record
func (s *JobStore) Create(ctx context.Context, job *domain.Job) error {
	query := `
		INSERT INTO jobs (id, tenant_id, repo_url, revision, status, progress, error, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.db.ExecContext(ctx, query,
		job.ID,
		job.TenantID,
		job.RepoURL,
		job.Revision,
		string(job.Status),
		job.Progress,
		job.Error,
		job.CreatedAt,
		job.UpdatedAt,
	)
	return err
}

// Get retrieves a job by ID
func (s *JobStore) Get(ctx context.Context, jobID string) (*domain.Job, error) {
	query := `
		SELECT id, tenant_id, repo_url, revision, status, progress, error, created_at, updated_at
		FROM jobs
		WHERE id = $1
	`

	var job domain.Job
	err := s.db.QueryRowContext(ctx, query, jobID).Scan(
		&job.ID,
		&job.TenantID,
		&job.RepoURL,
		&job.Revision,
		&job.Status,
		&job.Progress,
		&job.Error,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// UpdateStatus sets status, progress, and error in one write. The WHERE
// clause skips jobs already in a terminal state.
func (s *JobStore) UpdateStatus(ctx context.Context, jobID string, status domain.JobStatus, progress int, errMsg string) (*domain.Job, error) {
	query := `
		UPDATE jobs
		SET status = $1, progress = $2, error = $3, updated_at = $4
		WHERE id = $5 AND status NOT IN ('succeeded', 'failed')
		RETURNING id, tenant_id, repo_url, revision, status, progress, error, created_at, updated_at
	`

	var job domain.Job
	err := s.db.QueryRowContext(ctx, query,
		string(status),
		progress,
		errMsg,
		time.Now(),
		jobID,
	).Scan(
		&job.ID,
		&job.TenantID,
		&job.RepoURL,
		&job.Revision,
		&job.Status,
		&job.Progress,
		&job.Error,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		// Either the job does not exist or it is already terminal
		if _, getErr := s.Get(ctx, jobID); getErr != nil {
			return nil, getErr
		}
		return nil, domain.ErrJobTerminal
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// ListByTenant retrieves a tenant's jobs, newest first
func (s *JobStore) ListByTenant(ctx context.Context, tenantID string, limit int) ([]*domain.Job, error) {
	query := `
		SELECT id, tenant_id, repo_url, revision, status, progress, error, created_at, updated_at
		FROM jobs
		WHERE tenant_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, query, tenantID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*domain.Job
	for rows.Next() {
		var job domain.Job
		err := rows.Scan(
			&job.ID,
			&job.TenantID,
			&job.RepoURL,
			&job.Revision,
			&job.Status,
			&job.Progress,
			&job.Error,
			&job.CreatedAt,
			&job.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, &job)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return jobs, nil
}

// Ping checks if the database is reachable
func (s *JobStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}
