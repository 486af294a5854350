package git

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/gitvec-labs/gitvec-core/internal/core/domain"
)

func TestLooksLikeRepositoryURL(t *testing.T) {
	w := NewWorkspace(Config{TempRoot: t.TempDir()})

	tests := []struct {
		url  string
		want bool
	}{
		{"https://github.com/acme/repo.git", true},
		{"git@github.com:acme/repo.git", true},
		{"ssh://git@host/repo.git", true},
		{"git://host/repo.git", true},
		{"https://github.com/acme/repo", false},
		{"ftp://host/repo.git", false},
		{"/local/path/repo.git", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := w.LooksLikeRepositoryURL(tt.url); got != tt.want {
			t.Errorf("LooksLikeRepositoryURL(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestAcquireRejectsBadURL(t *testing.T) {
	w := NewWorkspace(Config{TempRoot: t.TempDir()})

	_, err := w.Acquire(context.Background(), "not-a-url", "job-1", "")
	if !errors.Is(err, domain.ErrInvalidRepositoryURL) {
		t.Fatalf("expected ErrInvalidRepositoryURL, got %v", err)
	}
}

func TestAcquireFailedCloneLeavesNoDirectory(t *testing.T) {
	root := t.TempDir()
	w := NewWorkspace(Config{TempRoot: root})

	// Unreachable local path with a valid-looking URL shape
	_, err := w.Acquire(context.Background(), "https://127.0.0.1:1/missing/repo.git", "job-1", "")
	var wcErr *domain.WorkingCopyError
	if !errors.As(err, &wcErr) {
		t.Fatalf("expected WorkingCopyError, got %v", err)
	}
	if wcErr.Stage != "clone" {
		t.Errorf("stage = %q, want clone", wcErr.Stage)
	}

	if _, statErr := os.Stat(filepath.Join(root, "job-1")); !os.IsNotExist(statErr) {
		t.Error("partial clone directory was not removed")
	}
}

func TestAcquireAndReleaseLocalRepo(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not available")
	}

	// Build a small local origin repository
	origin := t.TempDir()
	runGit := func(args ...string) {
		t.Helper()
		cmd := exec.Command("git", append([]string{"-C", origin}, args...)...)
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
			"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com",
		)
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v: %v: %s", args, err, out)
		}
	}
	runGit("init")
	if err := os.WriteFile(filepath.Join(origin, "main.go"), []byte("package main\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	runGit("add", ".")
	runGit("commit", "-m", "initial")

	root := t.TempDir()
	w := NewWorkspace(Config{TempRoot: root})

	// file:// URLs are not accepted by the pre-flight check, so clone via
	// the internals the way the pipeline would after validation
	dir := filepath.Join(root, "job-1")
	if out, err := w.run(context.Background(), "", "clone", origin, dir); err != nil {
		t.Fatalf("clone: %v: %s", err, out)
	}
	if _, err := os.Stat(filepath.Join(dir, "main.go")); err != nil {
		t.Fatalf("clone content missing: %v", err)
	}

	w.Release(dir)
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Error("Release did not remove the working copy")
	}

	// Releasing a missing path is harmless
	w.Release(dir)
	w.Release("")
}
