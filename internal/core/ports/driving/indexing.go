package driving

import (
	"context"

	"github.com/gitvec-labs/gitvec-core/internal/core/domain"
)

// IndexingService is the application surface for embedding jobs
type IndexingService interface {
	// StartJob accepts a repository for ingestion, creates the job record
	// in queued state, enqueues the pipeline task, and returns immediately
	StartJob(ctx context.Context, tenantID, repoURL, revision string) (*domain.Job, error)

	// GetJob retrieves a job's public record by ID
	GetJob(ctx context.Context, tenantID, jobID string) (*domain.Job, error)

	// ListJobs retrieves a tenant's jobs, newest first
	ListJobs(ctx context.Context, tenantID string, limit int) ([]*domain.Job, error)

	// Search embeds the query text and runs a similarity query scoped to
	// the tenant's namespace
	Search(ctx context.Context, tenantID, queryText string, opts domain.SearchOptions) ([]domain.ScoredVector, error)

	// PurgeTenant irreversibly deletes all of a tenant's vectors
	PurgeTenant(ctx context.Context, tenantID string) error
}

// JobRunner executes one pipeline run to its terminal state
type JobRunner interface {
	// Run processes the job identified by jobID. The returned error mirrors
	// the failure already recorded on the job record; callers use it for
	// logging, not for retry decisions.
	Run(ctx context.Context, jobID string) error
}

// HealthChecker reports composite readiness of the system's backends
type HealthChecker interface {
	// Health returns per-component readiness keyed by component name
	Health(ctx context.Context) map[string]bool
}
