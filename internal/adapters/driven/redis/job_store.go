package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gitvec-labs/gitvec-core/internal/core/domain"
	"github.com/gitvec-labs/gitvec-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.JobStore = (*JobStore)(nil)

const (
	// Key prefixes for Redis
	jobPrefix       = "gitvec:job:"
	jobTenantPrefix = "gitvec:jobs:tenant:"
)

// JobStore implements driven.JobStore using Redis.
// Job records are stored as JSON values keyed by ID, with a per-tenant
// sorted set (scored by creation time) for newest-first listing.
type JobStore struct {
	client *redis.Client
}

// NewJobStore creates a new Redis-backed JobStore.
func NewJobStore(client *redis.Client) *JobStore {
	return &JobStore{client: client}
}

// Create persists a new job record.
func (s *JobStore) Create(ctx context.Context, job *domain.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	// Use pipeline for atomic operations
	pipe := s.client.Pipeline()

	// Store job by ID
	pipe.Set(ctx, jobPrefix+job.ID, data, 0)

	// Add to tenant's job set, scored by creation time
	pipe.ZAdd(ctx, jobTenantPrefix+job.TenantID, redis.Z{
		Score:  float64(job.CreatedAt.UnixNano()),
		Member: job.ID,
	})

	_, err = pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}

	return nil
}

// Get retrieves a job by ID.
func (s *JobStore) Get(ctx context.Context, jobID string) (*domain.Job, error) {
	data, err := s.client.Get(ctx, jobPrefix+jobID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	var job domain.Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}

	return &job, nil
}

// UpdateStatus applies a status transition to a job record.
// Records already in a terminal state are never modified.
func (s *JobStore) UpdateStatus(ctx context.Context, jobID string, status domain.JobStatus, progress int, errMsg string) (*domain.Job, error) {
	job, err := s.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if job.IsTerminal() {
		return nil, domain.ErrJobTerminal
	}

	job.Status = status
	job.Progress = progress
	job.Error = errMsg
	job.UpdatedAt = time.Now()

	data, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal job: %w", err)
	}

	if err := s.client.Set(ctx, jobPrefix+jobID, data, 0).Err(); err != nil {
		return nil, fmt.Errorf("failed to update job: %w", err)
	}

	return job, nil
}

// ListByTenant returns the tenant's jobs, newest first.
func (s *JobStore) ListByTenant(ctx context.Context, tenantID string, limit int) ([]*domain.Job, error) {
	if limit <= 0 {
		limit = 100
	}

	// Newest first: highest creation score down
	jobIDs, err := s.client.ZRevRange(ctx, jobTenantPrefix+tenantID, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list tenant jobs: %w", err)
	}

	jobs := make([]*domain.Job, 0, len(jobIDs))
	var orphanedIDs []string

	for _, jobID := range jobIDs {
		job, err := s.Get(ctx, jobID)
		if errors.Is(err, domain.ErrNotFound) {
			// Record gone, track index entry for cleanup
			orphanedIDs = append(orphanedIDs, jobID)
			continue
		}
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}

	if len(orphanedIDs) > 0 {
		s.client.ZRem(ctx, jobTenantPrefix+tenantID, orphanedIDs)
	}

	return jobs, nil
}

// Ping checks store connectivity.
func (s *JobStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
