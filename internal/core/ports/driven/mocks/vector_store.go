package mocks

import (
	"context"
	"sync"

	"github.com/gitvec-labs/gitvec-core/internal/core/domain"
)

// MockVectorStore is a mock implementation of VectorStore for testing.
// Vectors are held in per-namespace maps so tests can assert tenant
// isolation directly.
type MockVectorStore struct {
	mu          sync.RWMutex
	namespaces  map[string][]domain.VectorRecord
	upsertCalls int
	failUpsert  bool
	failReady   bool
}

// NewMockVectorStore creates a new MockVectorStore
func NewMockVectorStore() *MockVectorStore {
	return &MockVectorStore{
		namespaces: make(map[string][]domain.VectorRecord),
	}
}

func (m *MockVectorStore) EnsureReady(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.failReady {
		return &domain.IndexProvisioningError{IndexName: "mock-index", Attempts: 12}
	}
	return nil
}

func (m *MockVectorStore) Upsert(ctx context.Context, vectors []domain.VectorRecord) error {
	if len(vectors) == 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upsertCalls++
	if m.failReady {
		return &domain.IndexProvisioningError{IndexName: "mock-index", Attempts: 12}
	}
	if m.failUpsert {
		return &domain.VectorUpsertError{Namespace: domain.NamespaceForTenant(vectors[0].Metadata.TenantID), Message: "mock upsert failure"}
	}
	for _, v := range vectors {
		ns := domain.NamespaceForTenant(v.Metadata.TenantID)
		m.namespaces[ns] = append(m.namespaces[ns], v)
	}
	return nil
}

func (m *MockVectorStore) Search(ctx context.Context, tenantID string, vector []float32, opts domain.SearchOptions) ([]domain.ScoredVector, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ns := domain.NamespaceForTenant(tenantID)
	var result []domain.ScoredVector
	for _, v := range m.namespaces[ns] {
		sv := domain.ScoredVector{ID: v.ID, Score: 1.0, Metadata: v.Metadata}
		if opts.IncludeValues {
			sv.Values = v.Values
		}
		result = append(result, sv)
		if opts.TopK > 0 && len(result) >= opts.TopK {
			break
		}
	}
	return result, nil
}

func (m *MockVectorStore) DeleteAllForTenant(ctx context.Context, tenantID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.namespaces, domain.NamespaceForTenant(tenantID))
	return nil
}

func (m *MockVectorStore) HealthCheck(ctx context.Context) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return !m.failReady
}

// Helper methods for testing

func (m *MockVectorStore) SetFailUpsert(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failUpsert = fail
}

func (m *MockVectorStore) SetFailReady(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failReady = fail
}

// VectorsInNamespace returns the vectors stored for a tenant
func (m *MockVectorStore) VectorsInNamespace(tenantID string) []domain.VectorRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ns := domain.NamespaceForTenant(tenantID)
	return append([]domain.VectorRecord(nil), m.namespaces[ns]...)
}

// UpsertCalls returns how many non-empty Upsert calls were made
func (m *MockVectorStore) UpsertCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.upsertCalls
}
