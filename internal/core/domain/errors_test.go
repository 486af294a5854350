package domain

import (
	"errors"
	"testing"
)

func TestErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		msg  string
	}{
		{"ErrNotFound", ErrNotFound, "not found"},
		{"ErrAlreadyExists", ErrAlreadyExists, "already exists"},
		{"ErrInvalidInput", ErrInvalidInput, "invalid input"},
		{"ErrUnauthorized", ErrUnauthorized, "unauthorized"},
		{"ErrForbidden", ErrForbidden, "forbidden"},
		{"ErrJobTerminal", ErrJobTerminal, "job already in terminal state"},
		{"ErrTokenExpired", ErrTokenExpired, "token expired"},
		{"ErrTokenInvalid", ErrTokenInvalid, "token invalid"},
		{"ErrInvalidRepositoryURL", ErrInvalidRepositoryURL, "invalid repository url"},
		{"ErrServiceUnavailable", ErrServiceUnavailable, "service unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.msg {
				t.Errorf("expected %q, got %q", tt.msg, tt.err.Error())
			}
		})
	}
}

func TestErrorsAreDistinct(t *testing.T) {
	allErrors := []error{
		ErrNotFound,
		ErrAlreadyExists,
		ErrInvalidInput,
		ErrUnauthorized,
		ErrForbidden,
		ErrJobTerminal,
		ErrTokenExpired,
		ErrTokenInvalid,
		ErrInvalidRepositoryURL,
		ErrServiceUnavailable,
	}

	for i, err1 := range allErrors {
		for j, err2 := range allErrors {
			if i != j && errors.Is(err1, err2) {
				t.Errorf("errors should be distinct: %v and %v", err1, err2)
			}
		}
	}
}

func TestEmbeddingServiceError(t *testing.T) {
	withStatus := &EmbeddingServiceError{StatusCode: 429, Message: "rate limited"}
	if withStatus.Error() != `embedding service error (status 429): rate limited` {
		t.Errorf("unexpected message: %s", withStatus.Error())
	}

	noStatus := &EmbeddingServiceError{Message: "connection refused"}
	if noStatus.Error() != "embedding service error: connection refused" {
		t.Errorf("unexpected message: %s", noStatus.Error())
	}
}

func TestIndexConfigMismatchError(t *testing.T) {
	err := &IndexConfigMismatchError{IndexName: "gitvec", Want: 1536, Got: 768}
	want := `index "gitvec" dimension mismatch: configured 1536, found 768`
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}
}

func TestWorkingCopyErrorUnwrap(t *testing.T) {
	cause := errors.New("exit status 128")
	err := &WorkingCopyError{RepoURL: "https://github.com/acme/repo.git", Stage: "clone", Err: cause}

	if !errors.Is(err, cause) {
		t.Error("WorkingCopyError should unwrap to its cause")
	}
}

func TestChunkingIOErrorUnwrap(t *testing.T) {
	cause := errors.New("permission denied")
	err := &ChunkingIOError{Path: "src/main.go", Err: cause}

	if !errors.Is(err, cause) {
		t.Error("ChunkingIOError should unwrap to its cause")
	}
}
