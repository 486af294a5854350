package domain

import "github.com/google/uuid"

// Chunk is a contiguous slice of one file's lines, the unit of embedding.
// Chunks from the same file carry strictly increasing indices and
// non-overlapping 1-based line ranges that cover the whole file.
type Chunk struct {
	// FilePath is relative to the repository root
	FilePath string `json:"file_path"`

	// Index is the zero-based sequence number within the file
	Index int `json:"index"`

	// StartLine is the 1-based inclusive first line of the chunk
	StartLine int `json:"start_line"`

	// EndLine is the 1-based inclusive last line of the chunk
	EndLine int `json:"end_line"`

	// Content is the raw chunk text
	Content string `json:"content"`
}

// VectorMetadata is stored alongside each embedding. Every declared field
// must be present and non-null in the underlying store, so Commit is
// serialized even when empty.
type VectorMetadata struct {
	TenantID   string `json:"tenant_id"`
	RepoURL    string `json:"repo_url"`
	FilePath   string `json:"file_path"`
	ChunkIndex int    `json:"chunk_index"`
	Commit     string `json:"commit"`
	StartLine  int    `json:"start_line"`
	EndLine    int    `json:"end_line"`
	Content    string `json:"content,omitempty"`
}

// VectorRecord is the persisted tuple of identifier, embedding, and metadata
type VectorRecord struct {
	ID       string         `json:"id"`
	Values   []float32      `json:"values"`
	Metadata VectorMetadata `json:"metadata"`
}

// NewVectorRecord assigns a fresh identifier, independent of chunk identity
func NewVectorRecord(values []float32, meta VectorMetadata) VectorRecord {
	return VectorRecord{
		ID:       uuid.NewString(),
		Values:   values,
		Metadata: meta,
	}
}

// NamespaceForTenant derives the vector-index namespace for a tenant.
// All reads and writes are scoped to this namespace to enforce isolation.
func NamespaceForTenant(tenantID string) string {
	return "user_" + tenantID
}

// SearchOptions controls a namespace-scoped similarity query
type SearchOptions struct {
	TopK            int            `json:"top_k"`
	IncludeMetadata bool           `json:"include_metadata"`
	IncludeValues   bool           `json:"include_values"`
	Filter          map[string]any `json:"filter,omitempty"`
}

// ScoredVector is one similarity-query match
type ScoredVector struct {
	ID       string         `json:"id"`
	Score    float32        `json:"score"`
	Values   []float32      `json:"values,omitempty"`
	Metadata VectorMetadata `json:"metadata"`
}
