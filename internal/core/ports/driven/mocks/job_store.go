package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/gitvec-labs/gitvec-core/internal/core/domain"
)

// MockJobStore is a mock implementation of JobStore for testing. It also
// records every progress value written, in order, so tests can assert the
// monotone progress contract.
type MockJobStore struct {
	mu       sync.RWMutex
	jobs     map[string]*domain.Job
	progress map[string][]int
	failNext bool
}

// NewMockJobStore creates a new MockJobStore
func NewMockJobStore() *MockJobStore {
	return &MockJobStore{
		jobs:     make(map[string]*domain.Job),
		progress: make(map[string][]int),
	}
}

func (m *MockJobStore) Create(ctx context.Context, job *domain.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext {
		m.failNext = false
		return domain.ErrServiceUnavailable
	}
	if _, ok := m.jobs[job.ID]; ok {
		return domain.ErrAlreadyExists
	}
	copied := *job
	m.jobs[job.ID] = &copied
	return nil
}

func (m *MockJobStore) Get(ctx context.Context, jobID string) (*domain.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *job
	return &copied, nil
}

func (m *MockJobStore) UpdateStatus(ctx context.Context, jobID string, status domain.JobStatus, progress int, errMsg string) (*domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext {
		m.failNext = false
		return nil, domain.ErrServiceUnavailable
	}
	job, ok := m.jobs[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if job.IsTerminal() {
		return nil, domain.ErrJobTerminal
	}
	job.Status = status
	job.Progress = progress
	job.Error = errMsg
	m.progress[jobID] = append(m.progress[jobID], progress)
	copied := *job
	return &copied, nil
}

func (m *MockJobStore) ListByTenant(ctx context.Context, tenantID string, limit int) ([]*domain.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Job
	for _, job := range m.jobs {
		if job.TenantID == tenantID {
			copied := *job
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *MockJobStore) Ping(ctx context.Context) error {
	return nil
}

// Helper methods for testing

func (m *MockJobStore) SetFailNext(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = fail
}

// ProgressHistory returns every progress value written for a job, in order
func (m *MockJobStore) ProgressHistory(jobID string) []int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]int(nil), m.progress[jobID]...)
}

func (m *MockJobStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.jobs)
}
