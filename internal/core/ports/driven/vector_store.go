package driven

import (
	"context"

	"github.com/gitvec-labs/gitvec-core/internal/core/domain"
)

// VectorStore owns a lazily-provisioned remote vector index and exposes
// namespace-scoped operations. All reads and writes are partitioned by
// tenant; a vector is never visible outside its tenant's namespace.
type VectorStore interface {
	// EnsureReady provisions the index if absent and waits for readiness.
	// Idempotent and safe for concurrent callers; every operation below
	// invokes it lazily when the store is not yet ready.
	EnsureReady(ctx context.Context) error

	// Upsert writes vector records, grouped by tenant and split into
	// fixed-size batches per namespace. An empty input is a no-op that
	// never contacts the remote store. A batch failure aborts the
	// remaining batches of the call; earlier batches stay committed.
	Upsert(ctx context.Context, vectors []domain.VectorRecord) error

	// Search runs a similarity query against the tenant's namespace only
	Search(ctx context.Context, tenantID string, vector []float32, opts domain.SearchOptions) ([]domain.ScoredVector, error)

	// DeleteAllForTenant irreversibly empties the tenant's namespace
	DeleteAllForTenant(ctx context.Context, tenantID string) error

	// HealthCheck reports whether the index is reachable and ready.
	// Observability only; underlying errors are never propagated.
	HealthCheck(ctx context.Context) bool
}
