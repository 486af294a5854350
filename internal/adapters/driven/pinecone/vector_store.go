package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/gitvec-labs/gitvec-core/internal/core/domain"
	"github.com/gitvec-labs/gitvec-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.VectorStore = (*VectorStore)(nil)

const (
	defaultControlPlaneURL = "https://api.pinecone.io"

	// upsertBatchSize is the number of vectors written per request
	upsertBatchSize = 40

	// maxTopK bounds similarity queries
	maxTopK = 10000

	defaultReadinessAttempts = 12
	defaultReadinessInterval = 5 * time.Second
)

// VectorStore implements driven.VectorStore against a Pinecone-style
// serverless index. The index is provisioned lazily: the first operation
// lists indexes, creates the configured one if absent, and waits for it
// to become ready. The resolved data-plane host is cached for the
// process lifetime.
type VectorStore struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger

	mu    sync.Mutex
	host  string
	ready bool
}

// Config holds Pinecone connection and index configuration
type Config struct {
	// APIKey authenticates both control and data plane calls
	APIKey string

	// IndexName is the index this process provisions and writes to
	IndexName string

	// Dimension is the embedding dimensionality the index must carry
	Dimension int

	// Metric is the distance metric used at creation time (e.g. cosine)
	Metric string

	// Cloud/Region place a newly created serverless index
	Cloud  string
	Region string

	// ControlPlaneURL overrides the Pinecone API endpoint (tests)
	ControlPlaneURL string

	// ReadinessAttempts and ReadinessInterval bound the provisioning
	// poll; zero values take the defaults (12 attempts, 5s apart)
	ReadinessAttempts int
	ReadinessInterval time.Duration

	Timeout time.Duration

	Logger *slog.Logger
}

// NewVectorStore creates a Pinecone-backed VectorStore. No remote call is
// made until the first operation needs the index.
func NewVectorStore(cfg Config) (*VectorStore, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Pinecone API key is required")
	}
	if cfg.IndexName == "" {
		return nil, fmt.Errorf("Pinecone index name is required")
	}
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("Pinecone index dimension must be positive")
	}
	if cfg.Metric == "" {
		cfg.Metric = "cosine"
	}
	if cfg.Cloud == "" {
		cfg.Cloud = "aws"
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	if cfg.ControlPlaneURL == "" {
		cfg.ControlPlaneURL = defaultControlPlaneURL
	}
	cfg.ControlPlaneURL = strings.TrimSuffix(cfg.ControlPlaneURL, "/")
	if cfg.ReadinessAttempts <= 0 {
		cfg.ReadinessAttempts = defaultReadinessAttempts
	}
	if cfg.ReadinessInterval <= 0 {
		cfg.ReadinessInterval = defaultReadinessInterval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &VectorStore{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     cfg.Logger,
	}, nil
}

// Control plane payloads

type indexList struct {
	Indexes []indexDescription `json:"indexes"`
}

type indexDescription struct {
	Name      string `json:"name"`
	Dimension int    `json:"dimension"`
	Metric    string `json:"metric"`
	Host      string `json:"host"`
	Status    struct {
		Ready bool   `json:"ready"`
		State string `json:"state"`
	} `json:"status"`
}

type createIndexRequest struct {
	Name      string    `json:"name"`
	Dimension int       `json:"dimension"`
	Metric    string    `json:"metric"`
	Spec      indexSpec `json:"spec"`
}

type indexSpec struct {
	Serverless serverlessSpec `json:"serverless"`
}

type serverlessSpec struct {
	Cloud  string `json:"cloud"`
	Region string `json:"region"`
}

// Data plane payloads

type upsertRequest struct {
	Vectors   []pineconeVector `json:"vectors"`
	Namespace string           `json:"namespace"`
}

type pineconeVector struct {
	ID       string                `json:"id"`
	Values   []float32             `json:"values"`
	Metadata domain.VectorMetadata `json:"metadata"`
}

type queryRequest struct {
	Namespace       string         `json:"namespace"`
	Vector          []float32      `json:"vector"`
	TopK            int            `json:"topK"`
	IncludeMetadata bool           `json:"includeMetadata"`
	IncludeValues   bool           `json:"includeValues"`
	Filter          map[string]any `json:"filter,omitempty"`
}

type queryResponse struct {
	Matches []struct {
		ID       string                `json:"id"`
		Score    float32               `json:"score"`
		Values   []float32             `json:"values,omitempty"`
		Metadata domain.VectorMetadata `json:"metadata"`
	} `json:"matches"`
	Namespace string `json:"namespace"`
}

type deleteRequest struct {
	DeleteAll bool   `json:"deleteAll"`
	Namespace string `json:"namespace"`
}

// EnsureReady provisions the index if absent and waits for readiness.
// Safe to call redundantly from concurrent jobs; only the first caller
// pays the provisioning cost.
func (v *VectorStore) EnsureReady(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.ready {
		return nil
	}

	desc, err := v.findIndex(ctx)
	if err != nil {
		return err
	}

	if desc == nil {
		v.logger.Info("creating vector index",
			"index", v.cfg.IndexName, "dimension", v.cfg.Dimension, "metric", v.cfg.Metric)
		if err := v.createIndex(ctx); err != nil {
			return err
		}
	}

	desc, err = v.waitForReady(ctx)
	if err != nil {
		return err
	}

	// An existing index must carry the configured dimension exactly.
	// A metric mismatch still works, just with different ranking.
	if desc.Dimension != v.cfg.Dimension {
		return &domain.IndexConfigMismatchError{
			IndexName: v.cfg.IndexName,
			Want:      v.cfg.Dimension,
			Got:       desc.Dimension,
		}
	}
	if desc.Metric != "" && desc.Metric != v.cfg.Metric {
		v.logger.Warn("vector index metric differs from configuration",
			"index", v.cfg.IndexName, "configured", v.cfg.Metric, "actual", desc.Metric)
	}

	v.host = dataPlaneURL(desc.Host)
	v.ready = true
	v.logger.Info("vector index ready", "index", v.cfg.IndexName, "host", v.host)
	return nil
}

// Upsert writes vectors grouped by tenant in fixed-size batches
func (v *VectorStore) Upsert(ctx context.Context, vectors []domain.VectorRecord) error {
	if len(vectors) == 0 {
		return nil
	}
	if err := v.EnsureReady(ctx); err != nil {
		return err
	}

	// Group by tenant, preserving first-seen tenant order and the
	// caller's vector order within each tenant
	var tenants []string
	grouped := make(map[string][]pineconeVector)
	for _, rec := range vectors {
		tenantID := rec.Metadata.TenantID
		if _, seen := grouped[tenantID]; !seen {
			tenants = append(tenants, tenantID)
		}
		grouped[tenantID] = append(grouped[tenantID], pineconeVector{
			ID:       rec.ID,
			Values:   rec.Values,
			Metadata: rec.Metadata,
		})
	}

	for _, tenantID := range tenants {
		namespace := domain.NamespaceForTenant(tenantID)
		group := grouped[tenantID]
		for start := 0; start < len(group); start += upsertBatchSize {
			end := start + upsertBatchSize
			if end > len(group) {
				end = len(group)
			}
			if err := v.upsertBatch(ctx, namespace, group[start:end]); err != nil {
				return err
			}
		}
	}
	return nil
}

func (v *VectorStore) upsertBatch(ctx context.Context, namespace string, batch []pineconeVector) error {
	body, status, err := v.doJSON(ctx, http.MethodPost, v.host+"/vectors/upsert", upsertRequest{
		Vectors:   batch,
		Namespace: namespace,
	})
	if err != nil {
		return &domain.VectorUpsertError{Namespace: namespace, Message: err.Error()}
	}
	if status != http.StatusOK {
		return &domain.VectorUpsertError{
			Namespace: namespace,
			Message:   fmt.Sprintf("status %d: %s", status, strings.TrimSpace(string(body))),
		}
	}
	return nil
}

// Search runs a similarity query against the tenant's namespace only
func (v *VectorStore) Search(ctx context.Context, tenantID string, vector []float32, opts domain.SearchOptions) ([]domain.ScoredVector, error) {
	if opts.TopK <= 0 || opts.TopK > maxTopK {
		return nil, fmt.Errorf("%w: topK must be in 1..%d", domain.ErrInvalidInput, maxTopK)
	}
	if err := v.EnsureReady(ctx); err != nil {
		return nil, err
	}

	body, status, err := v.doJSON(ctx, http.MethodPost, v.host+"/query", queryRequest{
		Namespace:       domain.NamespaceForTenant(tenantID),
		Vector:          vector,
		TopK:            opts.TopK,
		IncludeMetadata: opts.IncludeMetadata,
		IncludeValues:   opts.IncludeValues,
		Filter:          opts.Filter,
	})
	if err != nil {
		return nil, fmt.Errorf("vector query failed: %w", err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("vector query returned status %d: %s", status, strings.TrimSpace(string(body)))
	}

	var resp queryResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse query response: %w", err)
	}

	results := make([]domain.ScoredVector, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		results = append(results, domain.ScoredVector{
			ID:       m.ID,
			Score:    m.Score,
			Values:   m.Values,
			Metadata: m.Metadata,
		})
	}
	return results, nil
}

// DeleteAllForTenant irreversibly empties the tenant's namespace
func (v *VectorStore) DeleteAllForTenant(ctx context.Context, tenantID string) error {
	if err := v.EnsureReady(ctx); err != nil {
		return err
	}

	namespace := domain.NamespaceForTenant(tenantID)
	body, status, err := v.doJSON(ctx, http.MethodPost, v.host+"/vectors/delete", deleteRequest{
		DeleteAll: true,
		Namespace: namespace,
	})
	if err != nil {
		return fmt.Errorf("failed to delete namespace %s: %w", namespace, err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("delete for namespace %s returned status %d: %s", namespace, status, strings.TrimSpace(string(body)))
	}

	v.logger.Info("deleted tenant namespace", "namespace", namespace)
	return nil
}

// HealthCheck reports reachability; underlying errors are logged only
func (v *VectorStore) HealthCheck(ctx context.Context) bool {
	if err := v.EnsureReady(ctx); err != nil {
		v.logger.Warn("vector index not ready", "error", err)
		return false
	}

	_, status, err := v.doJSON(ctx, http.MethodPost, v.host+"/describe_index_stats", struct{}{})
	if err != nil {
		v.logger.Warn("vector index stats request failed", "error", err)
		return false
	}
	return status == http.StatusOK
}

// findIndex returns the configured index's description, or nil when the
// index does not exist yet
func (v *VectorStore) findIndex(ctx context.Context) (*indexDescription, error) {
	body, status, err := v.doJSON(ctx, http.MethodGet, v.cfg.ControlPlaneURL+"/indexes", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list indexes: %w", err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("list indexes returned status %d: %s", status, strings.TrimSpace(string(body)))
	}

	var list indexList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("failed to parse index list: %w", err)
	}
	for i := range list.Indexes {
		if list.Indexes[i].Name == v.cfg.IndexName {
			return &list.Indexes[i], nil
		}
	}
	return nil, nil
}

func (v *VectorStore) createIndex(ctx context.Context) error {
	body, status, err := v.doJSON(ctx, http.MethodPost, v.cfg.ControlPlaneURL+"/indexes", createIndexRequest{
		Name:      v.cfg.IndexName,
		Dimension: v.cfg.Dimension,
		Metric:    v.cfg.Metric,
		Spec: indexSpec{
			Serverless: serverlessSpec{Cloud: v.cfg.Cloud, Region: v.cfg.Region},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create index %s: %w", v.cfg.IndexName, err)
	}
	// 409 means another process won the creation race
	if status != http.StatusCreated && status != http.StatusOK && status != http.StatusConflict {
		return fmt.Errorf("create index %s returned status %d: %s", v.cfg.IndexName, status, strings.TrimSpace(string(body)))
	}
	return nil
}

// waitForReady polls the index description at a fixed interval until it
// reports ready, a dimension mismatch (unrecoverable), or the attempt
// budget is exhausted.
func (v *VectorStore) waitForReady(ctx context.Context) (*indexDescription, error) {
	var desc *indexDescription

	err := retry.Do(
		func() error {
			d, err := v.describeIndex(ctx)
			if err != nil {
				// 404 means still provisioning; anything else is
				// logged and retried
				if !isNotFound(err) {
					v.logger.Warn("index describe failed, retrying", "index", v.cfg.IndexName, "error", err)
				}
				return err
			}
			if !d.Status.Ready {
				return fmt.Errorf("index %s state %s", v.cfg.IndexName, d.Status.State)
			}
			desc = d
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(v.cfg.ReadinessAttempts)),
		retry.Delay(v.cfg.ReadinessInterval),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &domain.IndexProvisioningError{
			IndexName: v.cfg.IndexName,
			Attempts:  v.cfg.ReadinessAttempts,
		}
	}
	return desc, nil
}

type notFoundError struct{ name string }

func (e *notFoundError) Error() string { return fmt.Sprintf("index %s not found", e.name) }

func isNotFound(err error) bool {
	_, ok := err.(*notFoundError)
	return ok
}

func (v *VectorStore) describeIndex(ctx context.Context) (*indexDescription, error) {
	body, status, err := v.doJSON(ctx, http.MethodGet, v.cfg.ControlPlaneURL+"/indexes/"+v.cfg.IndexName, nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, &notFoundError{name: v.cfg.IndexName}
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("describe index returned status %d: %s", status, strings.TrimSpace(string(body)))
	}

	var desc indexDescription
	if err := json.Unmarshal(body, &desc); err != nil {
		return nil, fmt.Errorf("failed to parse index description: %w", err)
	}
	return &desc, nil
}

// doJSON issues one authenticated JSON request and returns the raw body
// with the status code
func (v *VectorStore) doJSON(ctx context.Context, method, url string, payload any) ([]byte, int, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Api-Key", v.cfg.APIKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}
	return body, resp.StatusCode, nil
}

// dataPlaneURL turns the host from an index description into a base URL.
// Pinecone returns a bare hostname; a host that already carries a scheme
// is used as-is.
func dataPlaneURL(host string) string {
	if strings.Contains(host, "://") {
		return strings.TrimSuffix(host, "/")
	}
	return "https://" + host
}
