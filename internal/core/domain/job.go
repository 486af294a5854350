package domain

import "time"

// JobStatus represents the current state of an embedding job
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusSucceeded JobStatus = "succeeded"
	JobStatusFailed    JobStatus = "failed"
)

// Job tracks one asynchronous embedding run for a repository/tenant pair.
// Progress is a monotone integer 0-100 while the job is running; once the
// status reaches succeeded or failed the record is terminal and immutable.
type Job struct {
	// ID is the unique identifier for this job
	ID string `json:"id"`

	// TenantID is the tenant that owns the job and its vectors
	TenantID string `json:"tenant_id"`

	// RepoURL is the source repository to ingest
	RepoURL string `json:"repo_url"`

	// Revision optionally pins a specific revision to check out
	Revision string `json:"revision,omitempty"`

	// Status is the current lifecycle state of the job
	Status JobStatus `json:"status"`

	// Progress is the completion percentage (0-100)
	Progress int `json:"progress"`

	// Error contains the failure message; set if and only if Status is failed
	Error string `json:"error,omitempty"`

	// CreatedAt is when the job was accepted
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the record was last modified
	UpdatedAt time.Time `json:"updated_at"`
}

// NewJob creates a job in the queued state
func NewJob(tenantID, repoURL, revision string) *Job {
	now := time.Now()
	return &Job{
		ID:        GenerateID(),
		TenantID:  tenantID,
		RepoURL:   repoURL,
		Revision:  revision,
		Status:    JobStatusQueued,
		Progress:  0,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsTerminal returns true once the job has reached a final state
func (j *Job) IsTerminal() bool {
	return j.Status == JobStatusSucceeded || j.Status == JobStatusFailed
}

// MarkRunning transitions the job to running
func (j *Job) MarkRunning() {
	j.Status = JobStatusRunning
	j.Progress = 0
	j.Error = ""
	j.UpdatedAt = time.Now()
}

// SetProgress advances progress while running; regressions are ignored
func (j *Job) SetProgress(progress int) {
	if j.IsTerminal() {
		return
	}
	if progress > j.Progress {
		j.Progress = progress
		j.UpdatedAt = time.Now()
	}
}

// MarkSucceeded transitions the job to its successful terminal state
func (j *Job) MarkSucceeded() {
	j.Status = JobStatusSucceeded
	j.Progress = 100
	j.Error = ""
	j.UpdatedAt = time.Now()
}

// MarkFailed transitions the job to its failed terminal state
func (j *Job) MarkFailed(errMsg string) {
	j.Status = JobStatusFailed
	j.Progress = 0
	j.Error = errMsg
	j.UpdatedAt = time.Now()
}
