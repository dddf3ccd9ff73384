package store

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
)

// ReadFileFunc reads one input file; the interpreter's FileResolver
// satisfies it.
type ReadFileFunc func(path string) ([]byte, error)

// Fingerprint computes the cache key for a set of input files: a SHA-256
// over every (path, content) pair in sorted path order. Any byte changed in
// any script or database file changes the fingerprint and invalidates the
// cached snapshot.
func Fingerprint(paths []string, read ReadFileFunc) (string, error) {
	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)

	h := sha256.New()
	for _, path := range sorted {
		content, err := read(path)
		if err != nil {
			return "", fmt.Errorf("fingerprint %s: %w", path, err)
		}
		fmt.Fprintf(h, "%s\x00%d\x00", path, len(content))
		h.Write(content)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
