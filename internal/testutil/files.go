// Package testutil provides deterministic fixtures shared by tests:
// an in-memory file tree standing in for the OS filesystem, and a
// discarding logger.
package testutil

import (
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
)

// MemFiles is an in-memory file tree keyed by cleaned path. It implements
// the interpreter's FileResolver, so script and database fixtures live
// inline in the test instead of testdata sprawl.
type MemFiles map[string]string

// ReadFile returns the file content or fs.ErrNotExist.
func (m MemFiles) ReadFile(path string) ([]byte, error) {
	if content, ok := m[filepath.Clean(path)]; ok {
		return []byte(content), nil
	}
	return nil, fmt.Errorf("testutil: %s: %w", path, fs.ErrNotExist)
}

// DiscardLogger returns a logger that drops everything, keeping test output
// clean.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
