// Package storage reads, writes and lists flowchart sources.
//
// # Backends
//
//   - fs: a directory on disk, the default for the CLI
//   - memory: a map, for tests and throwaway sessions
//   - redis: one string key per file
//   - mongo: one document per file
//   - sqlite: one row per file, in a single database file
//
// [Open] picks the backend named by [Config.Backend].
//
// # Paths
//
// Paths are slash-separated and relative to the store root on every
// backend. Absolute paths, backslashes and ".." segments are rejected
// before any backend is touched, so a store never reads or writes outside
// its root.
//
// # Listing
//
// [Store.List] returns every file below a directory, not only flowcharts.
// Callers that populate a flowchart picker filter with [FilterFlowcharts].
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"slices"
	"strings"

	ferrors "github.com/matzehuels/flowdesk/pkg/errors"
)

// ErrNotFound is returned by Read and Delete when the file does not exist.
var ErrNotFound = errors.New("file not found")

// ErrUnknownBackend is returned by [Open] for unrecognized backend names.
var ErrUnknownBackend = errors.New("unknown storage backend")

// Store is the file collaborator of the editor.
type Store interface {
	// Read returns the content of the file at path.
	Read(ctx context.Context, path string) (string, error)

	// Write replaces the content of the file at path, creating it if needed.
	Write(ctx context.Context, path, content string) error

	// List returns the paths of all files below dir in sorted order. An
	// empty dir lists the whole store.
	List(ctx context.Context, dir string) ([]string, error)

	// Delete removes the file at path.
	Delete(ctx context.Context, path string) error

	// Close releases the backend.
	Close() error
}

// Flowchart file extensions.
var flowchartExts = []string{".mmd", ".mermaid"}

// IsFlowchart reports whether name has a flowchart extension.
func IsFlowchart(name string) bool {
	return slices.Contains(flowchartExts, strings.ToLower(path.Ext(name)))
}

// Extensions returns the flowchart file extensions without the leading dot.
func Extensions() []string {
	out := make([]string, len(flowchartExts))
	for i, ext := range flowchartExts {
		out[i] = strings.TrimPrefix(ext, ".")
	}
	return out
}

// FilterFlowcharts returns the flowchart paths of names, keeping order.
func FilterFlowcharts(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if IsFlowchart(n) {
			out = append(out, n)
		}
	}
	return out
}

// cleanPath validates p and returns its canonical form.
func cleanPath(p string) (string, error) {
	return ferrors.CleanPath(p)
}

// cleanDir validates a listing prefix and returns it with a trailing slash,
// or "" for the root.
func cleanDir(dir string) (string, error) {
	if err := ferrors.ValidateDir(dir); err != nil {
		return "", err
	}
	d := strings.Trim(path.Clean("/"+dir), "/")
	if d == "" {
		return "", nil
	}
	return d + "/", nil
}

func notFound(p string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, p)
}
