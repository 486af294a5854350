package driven

import "context"

// WorkspaceManager acquires and releases job-scoped working copies of
// remote repositories.
type WorkspaceManager interface {
	// Acquire clones repoURL into a directory named by jobID under the
	// configured temp root and checks out revision when non-empty.
	// On any clone/checkout failure the partial directory is removed
	// before the error is returned.
	Acquire(ctx context.Context, repoURL, jobID, revision string) (string, error)

	// Release removes the directory recursively. Failures are logged,
	// never returned; cleanup must not mask an earlier job failure.
	Release(path string)

	// LooksLikeRepositoryURL is a cheap pre-flight check before
	// committing to a clone attempt.
	LooksLikeRepositoryURL(url string) bool
}
