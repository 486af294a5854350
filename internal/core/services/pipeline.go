package services

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/gitvec-labs/gitvec-core/internal/chunker"
	"github.com/gitvec-labs/gitvec-core/internal/core/domain"
	"github.com/gitvec-labs/gitvec-core/internal/core/ports/driven"
	"github.com/gitvec-labs/gitvec-core/internal/core/ports/driving"
)

// Ensure Pipeline implements JobRunner
var _ driving.JobRunner = (*Pipeline)(nil)

// Progress checkpoints reported to the job store. Embedding progress is
// interpolated linearly between the chunked and embedded checkpoints.
const (
	progressInitial  = 10
	progressChunked  = 30
	progressEmbedded = 90
)

// embedBatchSize is the number of chunks embedded concurrently per batch
const embedBatchSize = 50

// Pipeline runs one embedding job to its terminal state:
//  1. Mark the job running
//  2. Acquire a working copy of the repository
//  3. Chunk the tree (zero chunks is early success)
//  4. Embed chunks in concurrent fixed-size batches
//  5. Upsert all vectors into the tenant's namespace
//  6. Mark the job succeeded, or failed on any stage error
//
// The working copy is always released, whatever the outcome.
type Pipeline struct {
	jobStore  driven.JobStore
	embedder  driven.EmbeddingService
	vectors   driven.VectorStore
	workspace driven.WorkspaceManager
	chunker   *chunker.Chunker
	logger    *slog.Logger
}

// PipelineConfig holds dependencies for Pipeline.
type PipelineConfig struct {
	JobStore  driven.JobStore
	Embedder  driven.EmbeddingService
	Vectors   driven.VectorStore
	Workspace driven.WorkspaceManager
	Chunker   *chunker.Chunker
	Logger    *slog.Logger
}

// NewPipeline creates a new embedding pipeline.
func NewPipeline(cfg PipelineConfig) *Pipeline {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Pipeline{
		jobStore:  cfg.JobStore,
		embedder:  cfg.Embedder,
		vectors:   cfg.Vectors,
		workspace: cfg.Workspace,
		chunker:   cfg.Chunker,
		logger:    logger,
	}
}

// Run processes the job identified by jobID.
func (p *Pipeline) Run(ctx context.Context, jobID string) error {
	job, err := p.jobStore.Get(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to load job %s: %w", jobID, err)
	}
	if job.IsTerminal() {
		p.logger.Warn("job already finished, skipping", "job_id", jobID, "status", job.Status)
		return nil
	}

	p.logger.Info("starting embedding job",
		"job_id", job.ID, "tenant_id", job.TenantID, "repo_url", job.RepoURL)

	// Step 1: mark running
	if _, err := p.jobStore.UpdateStatus(ctx, job.ID, domain.JobStatusRunning, 0, ""); err != nil {
		return fmt.Errorf("failed to mark job %s running: %w", job.ID, err)
	}

	// Step 2: acquire working copy
	workDir, err := p.workspace.Acquire(ctx, job.RepoURL, job.ID, job.Revision)
	if err != nil {
		return p.failJob(ctx, job, "acquire", err)
	}
	// Cleanup never changes the job's already-determined outcome
	defer p.workspace.Release(workDir)

	p.setProgress(ctx, job.ID, progressInitial)

	// Step 3: chunk the tree
	chunks, err := p.chunker.WalkAndChunk(workDir)
	if err != nil {
		return p.failJob(ctx, job, "chunk", err)
	}
	if len(chunks) == 0 {
		// A repository with nothing to embed still succeeds
		p.logger.Info("no chunks produced, finishing early", "job_id", job.ID)
		if _, err := p.jobStore.UpdateStatus(ctx, job.ID, domain.JobStatusSucceeded, 100, ""); err != nil {
			return fmt.Errorf("failed to mark job %s succeeded: %w", job.ID, err)
		}
		return nil
	}
	p.setProgress(ctx, job.ID, progressChunked)

	p.logger.Info("chunking complete", "job_id", job.ID, "chunks", len(chunks))

	// Step 4: embed in concurrent batches
	records, err := p.embedChunks(ctx, job, chunks)
	if err != nil {
		return p.failJob(ctx, job, "embed", err)
	}

	// Step 5: upsert all vectors in one call
	if err := p.vectors.Upsert(ctx, records); err != nil {
		return p.failJob(ctx, job, "upsert", err)
	}

	// Step 6: done
	if _, err := p.jobStore.UpdateStatus(ctx, job.ID, domain.JobStatusSucceeded, 100, ""); err != nil {
		return fmt.Errorf("failed to mark job %s succeeded: %w", job.ID, err)
	}

	p.logger.Info("embedding job succeeded", "job_id", job.ID, "vectors", len(records))
	return nil
}

// embedChunks processes chunks in batches of embedBatchSize. Calls within
// a batch run concurrently; the batch boundary is a barrier. One failed
// embedding aborts the whole job.
func (p *Pipeline) embedChunks(ctx context.Context, job *domain.Job, chunks []domain.Chunk) ([]domain.VectorRecord, error) {
	records := make([]domain.VectorRecord, len(chunks))

	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}

		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			chunk := chunks[i]
			idx := i
			g.Go(func() error {
				values, err := p.embedder.Embed(gctx, chunk.Content)
				if err != nil {
					return err
				}
				records[idx] = domain.NewVectorRecord(values, domain.VectorMetadata{
					TenantID:   job.TenantID,
					RepoURL:    job.RepoURL,
					FilePath:   chunk.FilePath,
					ChunkIndex: chunk.Index,
					Commit:     job.Revision,
					StartLine:  chunk.StartLine,
					EndLine:    chunk.EndLine,
					Content:    chunk.Content,
				})
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		progress := progressChunked + (progressEmbedded-progressChunked)*end/len(chunks)
		p.setProgress(ctx, job.ID, progress)
	}

	return records, nil
}

// setProgress reports a milestone; a store failure here is logged, not
// fatal, so transient ledger blips cannot kill an otherwise healthy run
func (p *Pipeline) setProgress(ctx context.Context, jobID string, progress int) {
	if _, err := p.jobStore.UpdateStatus(ctx, jobID, domain.JobStatusRunning, progress, ""); err != nil {
		p.logger.Warn("failed to update job progress", "job_id", jobID, "progress", progress, "error", err)
	}
}

// failJob records the terminal failure and returns the original error
func (p *Pipeline) failJob(ctx context.Context, job *domain.Job, stage string, cause error) error {
	p.logger.Error("embedding job failed",
		"job_id", job.ID, "repo_url", job.RepoURL, "stage", stage, "error", cause)

	if _, err := p.jobStore.UpdateStatus(ctx, job.ID, domain.JobStatusFailed, 0, cause.Error()); err != nil {
		p.logger.Error("failed to record job failure", "job_id", job.ID, "error", err)
	}
	return fmt.Errorf("%s stage failed for job %s: %w", stage, job.ID, cause)
}
