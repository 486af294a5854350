package domain

import "testing"

func TestNewVectorRecord(t *testing.T) {
	values := []float32{0.1, 0.2, 0.3}
	meta := VectorMetadata{
		TenantID:   "tenant-123",
		RepoURL:    "https://github.com/acme/repo.git",
		FilePath:   "src/main.go",
		ChunkIndex: 2,
		StartLine:  1001,
		EndLine:    1500,
	}

	rec1 := NewVectorRecord(values, meta)
	rec2 := NewVectorRecord(values, meta)

	if rec1.ID == "" {
		t.Error("expected non-empty ID")
	}
	if rec1.ID == rec2.ID {
		t.Error("expected unique IDs per record")
	}
	if len(rec1.Values) != 3 {
		t.Errorf("expected 3 values, got %d", len(rec1.Values))
	}
	if rec1.Metadata.FilePath != "src/main.go" {
		t.Errorf("unexpected metadata file path %s", rec1.Metadata.FilePath)
	}
}

func TestNamespaceForTenant(t *testing.T) {
	tests := []struct {
		tenantID string
		expected string
	}{
		{"abc123", "user_abc123"},
		{"tenant-1", "user_tenant-1"},
		{"", "user_"},
	}

	for _, tt := range tests {
		t.Run(tt.tenantID, func(t *testing.T) {
			if got := NamespaceForTenant(tt.tenantID); got != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}
