package git

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/gitvec-labs/gitvec-core/internal/core/domain"
	"github.com/gitvec-labs/gitvec-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.WorkspaceManager = (*Workspace)(nil)

// repoURLPrefixes are the transport prefixes accepted for clone attempts
var repoURLPrefixes = []string{"https://", "http://", "git@", "ssh://", "git://"}

// Workspace manages job-scoped working copies using the git CLI. Each
// job clones into its own directory under the temp root; the directory
// name is derived from the job ID, so jobs never share a working copy.
type Workspace struct {
	tempRoot string
	logger   *slog.Logger
}

// Config holds Workspace settings
type Config struct {
	// TempRoot is the directory working copies are created under;
	// os.TempDir() when empty
	TempRoot string
	Logger   *slog.Logger
}

// NewWorkspace creates a working-copy manager
func NewWorkspace(cfg Config) *Workspace {
	root := cfg.TempRoot
	if root == "" {
		root = filepath.Join(os.TempDir(), "gitvec")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Workspace{tempRoot: root, logger: logger}
}

// Acquire clones repoURL into a job-scoped directory and checks out
// revision when non-empty. Any clone/checkout failure removes the
// partial directory before the error is returned.
func (w *Workspace) Acquire(ctx context.Context, repoURL, jobID, revision string) (string, error) {
	if !w.LooksLikeRepositoryURL(repoURL) {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidRepositoryURL, repoURL)
	}

	dir := filepath.Join(w.tempRoot, jobID)
	if err := os.MkdirAll(w.tempRoot, 0o755); err != nil {
		return "", &domain.WorkingCopyError{RepoURL: repoURL, Stage: "prepare", Err: err}
	}

	w.logger.Info("cloning repository", "repo_url", repoURL, "job_id", jobID, "dir", dir)

	if out, err := w.run(ctx, "", "clone", "--depth", "1", "--no-single-branch", repoURL, dir); err != nil {
		w.cleanup(dir)
		return "", &domain.WorkingCopyError{
			RepoURL: repoURL,
			Stage:   "clone",
			Err:     fmt.Errorf("%w: %s", err, out),
		}
	}

	if revision != "" {
		if out, err := w.run(ctx, dir, "checkout", revision); err != nil {
			// Shallow clones may not carry the revision; fetch it once
			if fout, ferr := w.run(ctx, dir, "fetch", "--depth", "1", "origin", revision); ferr != nil {
				w.cleanup(dir)
				return "", &domain.WorkingCopyError{
					RepoURL: repoURL,
					Stage:   "checkout",
					Err:     fmt.Errorf("checkout: %s, fetch: %s", out, fout),
				}
			}
			if out, err = w.run(ctx, dir, "checkout", revision); err != nil {
				w.cleanup(dir)
				return "", &domain.WorkingCopyError{
					RepoURL: repoURL,
					Stage:   "checkout",
					Err:     fmt.Errorf("%w: %s", err, out),
				}
			}
		}
	}

	return dir, nil
}

// Release removes the working copy. Failures are logged only; cleanup
// must never mask the job's outcome.
func (w *Workspace) Release(path string) {
	if path == "" {
		return
	}
	if err := os.RemoveAll(path); err != nil {
		w.logger.Warn("failed to remove working copy", "path", path, "error", err)
		return
	}
	w.logger.Debug("removed working copy", "path", path)
}

// LooksLikeRepositoryURL reports whether url has a recognized transport
// prefix and the conventional .git suffix
func (w *Workspace) LooksLikeRepositoryURL(url string) bool {
	hasPrefix := false
	for _, prefix := range repoURLPrefixes {
		if strings.HasPrefix(url, prefix) {
			hasPrefix = true
			break
		}
	}
	return hasPrefix && strings.HasSuffix(url, ".git")
}

// run executes one git command, optionally inside dir, and returns its
// combined output for error reporting
func (w *Workspace) run(ctx context.Context, dir string, args ...string) (string, error) {
	if dir != "" {
		args = append([]string{"-C", dir}, args...)
	}
	cmd := exec.CommandContext(ctx, "git", args...)
	out, err := cmd.CombinedOutput()
	return strings.TrimSpace(string(out)), err
}

func (w *Workspace) cleanup(dir string) {
	if err := os.RemoveAll(dir); err != nil {
		w.logger.Warn("failed to remove partial clone", "dir", dir, "error", err)
	}
}
