package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gitvec-labs/gitvec-core/internal/core/domain"
)

// ErrorResponse represents an API error response
// @Description API error response
type ErrorResponse struct {
	Error string `json:"error" example:"invalid request body"`
}

// StatusResponse represents a simple status response
// @Description Simple status response
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

// VersionResponse represents the API version response
// @Description API version response
type VersionResponse struct {
	Version string `json:"version" example:"1.0.0"`
}

// CreateJobRequest is the payload for starting an embedding job
// @Description Request to index a git repository
type CreateJobRequest struct {
	RepoURL  string `json:"repo_url" example:"https://github.com/acme/widgets.git"`
	Revision string `json:"revision,omitempty" example:"main"`
}

// SearchRequest is the payload for a similarity query
// @Description Semantic search over the caller's indexed repositories
type SearchRequest struct {
	Query         string         `json:"query" example:"where is the retry logic"`
	TopK          int            `json:"top_k,omitempty" example:"10"`
	IncludeValues bool           `json:"include_values,omitempty"`
	Filter        map[string]any `json:"filter,omitempty"`
}

// Health endpoints

// handleHealth godoc
// @Summary      Health check
// @Description  Returns per-component readiness of the system's backends
// @Tags         Health
// @Produce      json
// @Success      200  {object}  map[string]bool
// @Failure      503  {object}  map[string]bool
// @Router       /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	components := s.healthChecker.Health(r.Context())

	status := http.StatusOK
	for _, healthy := range components {
		if !healthy {
			status = http.StatusServiceUnavailable
			break
		}
	}

	writeJSON(w, status, components)
}

// handleReady godoc
// @Summary      Readiness check
// @Description  Returns whether the API is accepting requests
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Router       /ready [get]
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleVersion godoc
// @Summary      Get API version
// @Description  Returns the current API version
// @Tags         Health
// @Produce      json
// @Success      200  {object}  VersionResponse
// @Router       /version [get]
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}

// Job endpoints

// handleCreateJob godoc
// @Summary      Start an embedding job
// @Description  Accepts a repository URL for ingestion and returns the queued job record immediately
// @Tags         Jobs
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      CreateJobRequest  true  "Repository to index"
// @Success      202      {object}  domain.Job
// @Failure      400      {object}  ErrorResponse  "Invalid request body or repository URL"
// @Failure      401      {object}  ErrorResponse  "Unauthorized"
// @Failure      500      {object}  ErrorResponse  "Internal server error"
// @Router       /jobs [post]
func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CreateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	job, err := s.indexingService.StartJob(r.Context(), authCtx.TenantID, req.RepoURL, req.Revision)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidRepositoryURL):
			writeError(w, http.StatusBadRequest, "invalid repository url")
		case errors.Is(err, domain.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, "repo_url is required")
		default:
			writeError(w, http.StatusInternalServerError, "failed to start job")
		}
		return
	}

	writeJSON(w, http.StatusAccepted, job)
}

// handleGetJob godoc
// @Summary      Get a job
// @Description  Fetch a single job record; callers only see their own tenant's jobs
// @Tags         Jobs
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Job ID"
// @Success      200  {object}  domain.Job
// @Failure      401  {object}  ErrorResponse  "Unauthorized"
// @Failure      404  {object}  ErrorResponse  "Job not found"
// @Router       /jobs/{id} [get]
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	job, err := s.indexingService.GetJob(r.Context(), authCtx.TenantID, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get job")
		return
	}

	writeJSON(w, http.StatusOK, job)
}

// handleListJobs godoc
// @Summary      List jobs
// @Description  Lists the caller's jobs, newest first
// @Tags         Jobs
// @Produce      json
// @Security     BearerAuth
// @Param        limit  query     int  false  "Maximum number of jobs to return"
// @Success      200    {array}   domain.Job
// @Failure      401    {object}  ErrorResponse  "Unauthorized"
// @Router       /jobs [get]
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	jobs, err := s.indexingService.ListJobs(r.Context(), authCtx.TenantID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list jobs")
		return
	}

	if jobs == nil {
		jobs = []*domain.Job{}
	}
	writeJSON(w, http.StatusOK, jobs)
}

// Search endpoint

// handleSearch godoc
// @Summary      Semantic search
// @Description  Embeds the query text and runs a similarity query scoped to the caller's tenant
// @Tags         Search
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      SearchRequest  true  "Search query"
// @Success      200      {array}   domain.ScoredVector
// @Failure      400      {object}  ErrorResponse  "Invalid query or top_k out of range"
// @Failure      401      {object}  ErrorResponse  "Unauthorized"
// @Failure      500      {object}  ErrorResponse  "Search failed"
// @Router       /search [post]
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	opts := domain.SearchOptions{
		TopK:            req.TopK,
		IncludeMetadata: true,
		IncludeValues:   req.IncludeValues,
		Filter:          req.Filter,
	}

	results, err := s.indexingService.Search(r.Context(), authCtx.TenantID, req.Query, opts)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, "invalid search request")
			return
		}
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}

	if results == nil {
		results = []domain.ScoredVector{}
	}
	writeJSON(w, http.StatusOK, results)
}

// Admin endpoints

// handlePurgeVectors godoc
// @Summary      Purge tenant vectors
// @Description  Irreversibly deletes all of the caller's vectors (admin only)
// @Tags         Admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  StatusResponse
// @Failure      401  {object}  ErrorResponse  "Unauthorized"
// @Failure      403  {object}  ErrorResponse  "Admin access required"
// @Failure      500  {object}  ErrorResponse  "Purge failed"
// @Router       /vectors [delete]
func (s *Server) handlePurgeVectors(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := s.indexingService.PurgeTenant(r.Context(), authCtx.TenantID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to purge vectors")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Response helpers

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
