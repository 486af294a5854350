package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gitvec-labs/gitvec-core/internal/core/domain"
	"github.com/gitvec-labs/gitvec-core/internal/core/ports/driven"
	"github.com/gitvec-labs/gitvec-core/internal/core/ports/driving"
)

// Ensure IndexingService implements the driving ports
var (
	_ driving.IndexingService = (*Indexing)(nil)
	_ driving.HealthChecker   = (*Indexing)(nil)
)

const defaultSearchTopK = 10

// Indexing is the application service behind the HTTP surface. It owns
// job creation and enqueueing; the pipeline itself runs in a worker.
type Indexing struct {
	jobStore  driven.JobStore
	queue     driven.TaskQueue
	embedder  driven.EmbeddingService
	vectors   driven.VectorStore
	workspace driven.WorkspaceManager
	logger    *slog.Logger
}

// IndexingConfig holds dependencies for Indexing.
type IndexingConfig struct {
	JobStore  driven.JobStore
	Queue     driven.TaskQueue
	Embedder  driven.EmbeddingService
	Vectors   driven.VectorStore
	Workspace driven.WorkspaceManager
	Logger    *slog.Logger
}

// NewIndexing creates a new indexing service.
func NewIndexing(cfg IndexingConfig) *Indexing {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Indexing{
		jobStore:  cfg.JobStore,
		queue:     cfg.Queue,
		embedder:  cfg.Embedder,
		vectors:   cfg.Vectors,
		workspace: cfg.Workspace,
		logger:    logger,
	}
}

// StartJob accepts a repository for ingestion and returns immediately.
// The job record is created in queued state and a pipeline task is
// enqueued for the worker pool.
func (s *Indexing) StartJob(ctx context.Context, tenantID, repoURL, revision string) (*domain.Job, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenant id is required", domain.ErrInvalidInput)
	}
	if !s.workspace.LooksLikeRepositoryURL(repoURL) {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidRepositoryURL, repoURL)
	}

	job := domain.NewJob(tenantID, repoURL, revision)
	if err := s.jobStore.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	task := domain.NewEmbedRepoTask(tenantID, job.ID)
	if err := s.queue.Enqueue(ctx, task); err != nil {
		// The record exists but will never run; fail it so pollers are
		// not left watching a queued job forever
		if _, uerr := s.jobStore.UpdateStatus(ctx, job.ID, domain.JobStatusFailed, 0, "failed to enqueue job"); uerr != nil {
			s.logger.Error("failed to mark unenqueued job failed", "job_id", job.ID, "error", uerr)
		}
		return nil, fmt.Errorf("failed to enqueue job %s: %w", job.ID, err)
	}

	s.logger.Info("job accepted", "job_id", job.ID, "tenant_id", tenantID, "repo_url", repoURL)
	return job, nil
}

// GetJob retrieves a job's record. Jobs belonging to other tenants are
// reported as not found rather than forbidden.
func (s *Indexing) GetJob(ctx context.Context, tenantID, jobID string) (*domain.Job, error) {
	job, err := s.jobStore.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.TenantID != tenantID {
		return nil, domain.ErrNotFound
	}
	return job, nil
}

// ListJobs retrieves a tenant's jobs, newest first.
func (s *Indexing) ListJobs(ctx context.Context, tenantID string, limit int) ([]*domain.Job, error) {
	return s.jobStore.ListByTenant(ctx, tenantID, limit)
}

// Search embeds the query text and runs a similarity query scoped to the
// tenant's namespace.
func (s *Indexing) Search(ctx context.Context, tenantID, queryText string, opts domain.SearchOptions) ([]domain.ScoredVector, error) {
	if queryText == "" {
		return nil, fmt.Errorf("%w: query text is required", domain.ErrInvalidInput)
	}
	if opts.TopK <= 0 {
		opts.TopK = defaultSearchTopK
	}

	vector, err := s.embedder.EmbedQuery(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	return s.vectors.Search(ctx, tenantID, vector, opts)
}

// PurgeTenant irreversibly deletes all of a tenant's vectors.
func (s *Indexing) PurgeTenant(ctx context.Context, tenantID string) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenant id is required", domain.ErrInvalidInput)
	}
	s.logger.Info("purging tenant namespace", "tenant_id", tenantID)
	return s.vectors.DeleteAllForTenant(ctx, tenantID)
}

// Health reports per-component readiness.
func (s *Indexing) Health(ctx context.Context) map[string]bool {
	health := map[string]bool{
		"job_store":    s.jobStore.Ping(ctx) == nil,
		"task_queue":   s.queue.Ping(ctx) == nil,
		"vector_index": s.vectors.HealthCheck(ctx),
	}
	health["embedding"] = s.embedder.HealthCheck(ctx) == nil
	return health
}
