package driven

import (
	"context"

	"github.com/gitvec-labs/gitvec-core/internal/core/domain"
)

// JobStore persists job records keyed by job identifier.
// Implementations can use Postgres (preferred) or Redis.
type JobStore interface {
	// Create persists a new job record
	Create(ctx context.Context, job *domain.Job) error

	// Get retrieves a job by ID. Returns domain.ErrNotFound if absent.
	Get(ctx context.Context, jobID string) (*domain.Job, error)

	// UpdateStatus sets status, progress, and error message in one write.
	// Updates against a job already in a terminal state return
	// domain.ErrJobTerminal and leave the record untouched.
	UpdateStatus(ctx context.Context, jobID string, status domain.JobStatus, progress int, errMsg string) (*domain.Job, error)

	// ListByTenant retrieves a tenant's jobs, newest first
	ListByTenant(ctx context.Context, tenantID string, limit int) ([]*domain.Job, error)

	// Ping checks if the store backend is healthy
	Ping(ctx context.Context) error
}
