package domain

import (
	"errors"
	"fmt"
)

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates the resource already exists
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates authentication failed or missing
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the caller lacks permission for this action
	ErrForbidden = errors.New("forbidden")

	// ErrJobTerminal indicates an update was attempted on a finished job
	ErrJobTerminal = errors.New("job already in terminal state")

	// ErrTokenExpired indicates the auth token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid indicates the auth token is malformed or invalid
	ErrTokenInvalid = errors.New("token invalid")

	// ErrInvalidRepositoryURL indicates the URL does not look like a git remote
	ErrInvalidRepositoryURL = errors.New("invalid repository url")

	// ErrServiceUnavailable indicates a remote service could not be reached
	ErrServiceUnavailable = errors.New("service unavailable")
)

// EmbeddingServiceError reports a failed call to the remote embedding
// service. StatusCode is zero when the failure happened before a response
// was received.
type EmbeddingServiceError struct {
	StatusCode int
	Message    string
}

func (e *EmbeddingServiceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("embedding service error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("embedding service error: %s", e.Message)
}

// VectorUpsertError reports a failed write to the vector index. Earlier
// batches of the same call may already be committed.
type VectorUpsertError struct {
	Namespace string
	Message   string
}

func (e *VectorUpsertError) Error() string {
	return fmt.Sprintf("vector upsert to namespace %q failed: %s", e.Namespace, e.Message)
}

// IndexProvisioningError indicates the vector index never became ready
// within the bounded readiness wait.
type IndexProvisioningError struct {
	IndexName string
	Attempts  int
}

func (e *IndexProvisioningError) Error() string {
	return fmt.Sprintf("index %q not ready after %d readiness checks", e.IndexName, e.Attempts)
}

// IndexConfigMismatchError indicates an existing index does not match the
// configured dimension. This is fatal; the index cannot be used.
type IndexConfigMismatchError struct {
	IndexName string
	Want      int
	Got       int
}

func (e *IndexConfigMismatchError) Error() string {
	return fmt.Sprintf("index %q dimension mismatch: configured %d, found %d", e.IndexName, e.Want, e.Got)
}

// WorkingCopyError reports a failed clone or checkout. The partially
// created directory has already been removed by the time it is returned.
type WorkingCopyError struct {
	RepoURL string
	Stage   string
	Err     error
}

func (e *WorkingCopyError) Error() string {
	return fmt.Sprintf("working copy %s failed for %s: %v", e.Stage, e.RepoURL, e.Err)
}

func (e *WorkingCopyError) Unwrap() error {
	return e.Err
}

// ChunkingIOError reports a file that could not be read as text. It is
// absorbed per file; one unreadable file never aborts a job.
type ChunkingIOError struct {
	Path string
	Err  error
}

func (e *ChunkingIOError) Error() string {
	return fmt.Sprintf("cannot chunk %s: %v", e.Path, e.Err)
}

func (e *ChunkingIOError) Unwrap() error {
	return e.Err
}
