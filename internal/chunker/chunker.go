package chunker

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"

	"github.com/gitvec-labs/gitvec-core/internal/core/domain"
)

// DefaultChunkSize is the number of lines per chunk
const DefaultChunkSize = 500

// includedExtensions is the allow-list of source/code/markup extensions,
// matched case-insensitively
var includedExtensions = map[string]struct{}{
	".go":    {},
	".py":    {},
	".js":    {},
	".jsx":   {},
	".ts":    {},
	".tsx":   {},
	".java":  {},
	".kt":    {},
	".rb":    {},
	".rs":    {},
	".c":     {},
	".h":     {},
	".cpp":   {},
	".hpp":   {},
	".cc":    {},
	".cs":    {},
	".php":   {},
	".swift": {},
	".scala": {},
	".sh":    {},
	".sql":   {},
	".proto": {},
	".html":  {},
	".css":   {},
	".scss":  {},
	".md":    {},
	".rst":   {},
	".txt":   {},
	".json":  {},
	".yaml":  {},
	".yml":   {},
	".toml":  {},
	".xml":   {},
}

// ignoredDirs are directory names never descended into: VCS metadata,
// dependency trees, build output, IDE state
var ignoredDirs = map[string]struct{}{
	".git":         {},
	".hg":          {},
	".svn":         {},
	"node_modules": {},
	"vendor":       {},
	"bower_components": {},
	"dist":         {},
	"build":        {},
	"target":       {},
	"out":          {},
	"bin":          {},
	"obj":          {},
	"__pycache__":  {},
	".idea":        {},
	".vscode":      {},
}

// Chunker walks a repository tree and splits matching files into
// fixed-size line-count chunks. It is pure apart from reading files.
type Chunker struct {
	chunkSize int
	logger    *slog.Logger
}

// Config holds Chunker settings
type Config struct {
	// ChunkSize is the number of lines per chunk; DefaultChunkSize when zero
	ChunkSize int
	Logger    *slog.Logger
}

// New creates a Chunker
func New(cfg Config) *Chunker {
	size := cfg.ChunkSize
	if size <= 0 {
		size = DefaultChunkSize
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Chunker{chunkSize: size, logger: logger}
}

// ShouldInclude reports whether relPath is eligible for chunking: the
// extension is in the allow-list (case-insensitive) and no path segment
// is an ignored directory or starts with a dot.
func (c *Chunker) ShouldInclude(relPath string) bool {
	ext := strings.ToLower(filepath.Ext(relPath))
	if _, ok := includedExtensions[ext]; !ok {
		return false
	}

	dir := filepath.Dir(relPath)
	if dir == "." {
		return true
	}
	for _, segment := range strings.Split(filepath.ToSlash(dir), "/") {
		if segment == "" || segment == "." {
			continue
		}
		if strings.HasPrefix(segment, ".") {
			return false
		}
		if _, ignored := ignoredDirs[segment]; ignored {
			return false
		}
	}
	return true
}

// ChunkFile reads the file at absPath and splits it into chunks of at
// most chunkSize lines. relPath is recorded on each chunk. A file that
// cannot be read as text yields a *domain.ChunkingIOError; an empty file
// yields zero chunks with no error.
func (c *Chunker) ChunkFile(absPath, relPath string) ([]domain.Chunk, error) {
	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, &domain.ChunkingIOError{Path: relPath, Err: err}
	}
	if bytes.IndexByte(data, 0) >= 0 {
		return nil, &domain.ChunkingIOError{Path: relPath, Err: fmt.Errorf("binary content")}
	}
	if len(data) == 0 {
		return nil, nil
	}

	lines := splitLines(string(data))
	if len(lines) == 0 {
		return nil, nil
	}

	var chunks []domain.Chunk
	for start := 0; start < len(lines); start += c.chunkSize {
		end := start + c.chunkSize
		if end > len(lines) {
			end = len(lines)
		}
		chunks = append(chunks, domain.Chunk{
			FilePath:  relPath,
			Index:     len(chunks),
			StartLine: start + 1,
			EndLine:   end,
			Content:   strings.Join(lines[start:end], "\n"),
		})
	}
	return chunks, nil
}

// WalkAndChunk applies ShouldInclude and ChunkFile across the whole tree
// rooted at rootDir. Per-file read errors are logged and absorbed;
// traversal errors on one subdirectory do not abort the walk of siblings.
// An empty result is a valid outcome, not an error.
func (c *Chunker) WalkAndChunk(rootDir string) ([]domain.Chunk, error) {
	matcher := c.loadGitignore(rootDir)

	var chunks []domain.Chunk
	err := filepath.WalkDir(rootDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			c.logger.Warn("skipping unreadable path", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(rootDir, path)
		if relErr != nil {
			return nil
		}
		if rel == "." {
			return nil
		}

		if d.IsDir() {
			name := d.Name()
			if strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			if _, ignored := ignoredDirs[name]; ignored {
				return filepath.SkipDir
			}
			if matcher != nil && matcher.MatchesPath(rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}

		if !c.ShouldInclude(rel) {
			return nil
		}
		if matcher != nil && matcher.MatchesPath(rel) {
			return nil
		}

		fileChunks, chunkErr := c.ChunkFile(path, rel)
		if chunkErr != nil {
			c.logger.Warn("skipping file", "path", rel, "error", chunkErr)
			return nil
		}
		chunks = append(chunks, fileChunks...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", rootDir, err)
	}
	return chunks, nil
}

// loadGitignore compiles the repository's top-level .gitignore when
// present. A missing or malformed file just disables extra filtering.
func (c *Chunker) loadGitignore(rootDir string) *gitignore.GitIgnore {
	data, err := os.ReadFile(filepath.Join(rootDir, ".gitignore"))
	if err != nil {
		return nil
	}
	return gitignore.CompileIgnoreLines(strings.Split(string(data), "\n")...)
}

// splitLines splits on line boundaries without counting a trailing
// newline as an extra empty line
func splitLines(content string) []string {
	content = strings.TrimSuffix(content, "\n")
	if content == "" {
		return nil
	}
	return strings.Split(content, "\n")
}
