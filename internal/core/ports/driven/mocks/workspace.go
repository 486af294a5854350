package mocks

import (
	"context"
	"strings"
	"sync"

	"github.com/gitvec-labs/gitvec-core/internal/core/domain"
)

// MockWorkspaceManager is a mock implementation of WorkspaceManager for
// testing. Acquire hands out a pre-configured directory instead of
// cloning anything.
type MockWorkspaceManager struct {
	mu       sync.Mutex
	dir      string
	failNext bool
	acquired []string
	released []string
}

// NewMockWorkspaceManager creates a mock that serves dir as every
// job's working copy
func NewMockWorkspaceManager(dir string) *MockWorkspaceManager {
	return &MockWorkspaceManager{dir: dir}
}

func (m *MockWorkspaceManager) Acquire(ctx context.Context, repoURL, jobID, revision string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext {
		m.failNext = false
		return "", &domain.WorkingCopyError{RepoURL: repoURL, Stage: "clone", Err: domain.ErrServiceUnavailable}
	}
	m.acquired = append(m.acquired, jobID)
	return m.dir, nil
}

func (m *MockWorkspaceManager) Release(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.released = append(m.released, path)
}

func (m *MockWorkspaceManager) LooksLikeRepositoryURL(url string) bool {
	return strings.HasSuffix(url, ".git")
}

// Helper methods for testing

func (m *MockWorkspaceManager) SetFailNext(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = fail
}

// Released returns every path handed to Release, in order
func (m *MockWorkspaceManager) Released() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.released...)
}

// AcquiredJobs returns the job IDs that acquired a working copy
func (m *MockWorkspaceManager) AcquiredJobs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.acquired...)
}
