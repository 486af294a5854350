package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gitvec-labs/gitvec-core/internal/core/domain"
)

// fakeIndexingService implements driving.IndexingService for handler tests
type fakeIndexingService struct {
	jobs          map[string]*domain.Job
	startErr      error
	searchErr     error
	searchResults []domain.ScoredVector
	purgedTenants []string
}

func newFakeIndexingService() *fakeIndexingService {
	return &fakeIndexingService{jobs: make(map[string]*domain.Job)}
}

func (f *fakeIndexingService) StartJob(ctx context.Context, tenantID, repoURL, revision string) (*domain.Job, error) {
	if f.startErr != nil {
		return nil, f.startErr
	}
	job := domain.NewJob(tenantID, repoURL, revision)
	f.jobs[job.ID] = job
	return job, nil
}

func (f *fakeIndexingService) GetJob(ctx context.Context, tenantID, jobID string) (*domain.Job, error) {
	job, ok := f.jobs[jobID]
	if !ok || job.TenantID != tenantID {
		return nil, domain.ErrNotFound
	}
	return job, nil
}

func (f *fakeIndexingService) ListJobs(ctx context.Context, tenantID string, limit int) ([]*domain.Job, error) {
	var jobs []*domain.Job
	for _, job := range f.jobs {
		if job.TenantID == tenantID {
			jobs = append(jobs, job)
		}
	}
	return jobs, nil
}

func (f *fakeIndexingService) Search(ctx context.Context, tenantID, queryText string, opts domain.SearchOptions) ([]domain.ScoredVector, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if queryText == "" {
		return nil, domain.ErrInvalidInput
	}
	return f.searchResults, nil
}

func (f *fakeIndexingService) PurgeTenant(ctx context.Context, tenantID string) error {
	f.purgedTenants = append(f.purgedTenants, tenantID)
	return nil
}

// fakeHealthChecker implements driving.HealthChecker
type fakeHealthChecker struct {
	components map[string]bool
}

func (f *fakeHealthChecker) Health(ctx context.Context) map[string]bool {
	return f.components
}

func testAuthAdapter() *stubAuthAdapter {
	return &stubAuthAdapter{
		parseFn: func(token string) (*domain.TokenClaims, error) {
			switch token {
			case "member-token":
				return &domain.TokenClaims{TenantID: "tenant-1", Subject: "dev", Role: domain.RoleMember}, nil
			case "admin-token":
				return &domain.TokenClaims{TenantID: "tenant-1", Subject: "ops", Role: domain.RoleAdmin}, nil
			default:
				return nil, domain.ErrTokenInvalid
			}
		},
	}
}

func newTestServer(svc *fakeIndexingService, health *fakeHealthChecker) *Server {
	if health == nil {
		health = &fakeHealthChecker{components: map[string]bool{"job_store": true}}
	}
	return NewServer(DefaultConfig(), svc, health, testAuthAdapter())
}

func doRequest(s *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	return rr
}

func TestHandleHealth_AllHealthy(t *testing.T) {
	health := &fakeHealthChecker{components: map[string]bool{
		"job_store":    true,
		"task_queue":   true,
		"vector_index": true,
	}}
	s := newTestServer(newFakeIndexingService(), health)

	rr := doRequest(s, "GET", "/health", "", nil)
	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}

	var components map[string]bool
	if err := json.NewDecoder(rr.Body).Decode(&components); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !components["vector_index"] {
		t.Error("expected vector_index to be healthy")
	}
}

func TestHandleHealth_Degraded(t *testing.T) {
	health := &fakeHealthChecker{components: map[string]bool{
		"job_store":    true,
		"vector_index": false,
	}}
	s := newTestServer(newFakeIndexingService(), health)

	rr := doRequest(s, "GET", "/health", "", nil)
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", rr.Code)
	}
}

func TestHandleVersion(t *testing.T) {
	s := newTestServer(newFakeIndexingService(), nil)

	rr := doRequest(s, "GET", "/version", "", nil)
	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}
}

func TestHandleCreateJob(t *testing.T) {
	svc := newFakeIndexingService()
	s := newTestServer(svc, nil)

	rr := doRequest(s, "POST", "/api/v1/jobs", "member-token", CreateJobRequest{
		RepoURL:  "https://github.com/acme/widgets.git",
		Revision: "main",
	})

	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected status 202, got %d: %s", rr.Code, rr.Body.String())
	}

	var job domain.Job
	if err := json.NewDecoder(rr.Body).Decode(&job); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if job.ID == "" {
		t.Error("expected job ID to be set")
	}
	if job.TenantID != "tenant-1" {
		t.Errorf("expected tenant from token, got %s", job.TenantID)
	}
	if job.Status != domain.JobStatusQueued {
		t.Errorf("expected queued status, got %s", job.Status)
	}
}

func TestHandleCreateJob_InvalidURL(t *testing.T) {
	svc := newFakeIndexingService()
	svc.startErr = domain.ErrInvalidRepositoryURL
	s := newTestServer(svc, nil)

	rr := doRequest(s, "POST", "/api/v1/jobs", "member-token", CreateJobRequest{
		RepoURL: "ftp://example.com/repo",
	})

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}
}

func TestHandleCreateJob_Unauthenticated(t *testing.T) {
	s := newTestServer(newFakeIndexingService(), nil)

	rr := doRequest(s, "POST", "/api/v1/jobs", "", CreateJobRequest{
		RepoURL: "https://github.com/acme/widgets.git",
	})

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", rr.Code)
	}
}

func TestHandleGetJob(t *testing.T) {
	svc := newFakeIndexingService()
	job := domain.NewJob("tenant-1", "https://github.com/acme/widgets.git", "")
	svc.jobs[job.ID] = job
	s := newTestServer(svc, nil)

	rr := doRequest(s, "GET", "/api/v1/jobs/"+job.ID, "member-token", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var got domain.Job
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.ID != job.ID {
		t.Errorf("expected job %s, got %s", job.ID, got.ID)
	}
}

func TestHandleGetJob_NotFound(t *testing.T) {
	s := newTestServer(newFakeIndexingService(), nil)

	rr := doRequest(s, "GET", "/api/v1/jobs/nonexistent", "member-token", nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rr.Code)
	}
}

func TestHandleGetJob_CrossTenant(t *testing.T) {
	svc := newFakeIndexingService()
	job := domain.NewJob("tenant-other", "https://github.com/acme/widgets.git", "")
	svc.jobs[job.ID] = job
	s := newTestServer(svc, nil)

	// Another tenant's job reads as not found
	rr := doRequest(s, "GET", "/api/v1/jobs/"+job.ID, "member-token", nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rr.Code)
	}
}

func TestHandleListJobs_EmptyIsArray(t *testing.T) {
	s := newTestServer(newFakeIndexingService(), nil)

	rr := doRequest(s, "GET", "/api/v1/jobs", "member-token", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if body := rr.Body.String(); body == "null\n" {
		t.Error("expected empty array, got null")
	}
}

func TestHandleListJobs_BadLimit(t *testing.T) {
	s := newTestServer(newFakeIndexingService(), nil)

	rr := doRequest(s, "GET", "/api/v1/jobs?limit=abc", "member-token", nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}
}

func TestHandleSearch(t *testing.T) {
	svc := newFakeIndexingService()
	svc.searchResults = []domain.ScoredVector{
		{ID: "vec-1", Score: 0.92},
	}
	s := newTestServer(svc, nil)

	rr := doRequest(s, "POST", "/api/v1/search", "member-token", SearchRequest{
		Query: "retry logic",
		TopK:  5,
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var results []domain.ScoredVector
	if err := json.NewDecoder(rr.Body).Decode(&results); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(results) != 1 || results[0].ID != "vec-1" {
		t.Errorf("unexpected results: %+v", results)
	}
}

func TestHandleSearch_EmptyQuery(t *testing.T) {
	s := newTestServer(newFakeIndexingService(), nil)

	rr := doRequest(s, "POST", "/api/v1/search", "member-token", SearchRequest{Query: ""})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}
}

func TestHandlePurgeVectors_AdminOnly(t *testing.T) {
	svc := newFakeIndexingService()
	s := newTestServer(svc, nil)

	// Member is rejected
	rr := doRequest(s, "DELETE", "/api/v1/vectors", "member-token", nil)
	if rr.Code != http.StatusForbidden {
		t.Errorf("expected status 403 for member, got %d", rr.Code)
	}
	if len(svc.purgedTenants) != 0 {
		t.Error("expected no purge for member")
	}

	// Admin succeeds
	rr = doRequest(s, "DELETE", "/api/v1/vectors", "admin-token", nil)
	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200 for admin, got %d", rr.Code)
	}
	if len(svc.purgedTenants) != 1 || svc.purgedTenants[0] != "tenant-1" {
		t.Errorf("expected tenant-1 purged, got %v", svc.purgedTenants)
	}
}
