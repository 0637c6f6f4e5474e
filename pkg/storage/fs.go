package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

// FSStore keeps files in a directory on disk.
type FSStore struct {
	mu   sync.RWMutex
	root string
}

// NewFSStore creates a store rooted at root. The directory must exist.
func NewFSStore(root string) (*FSStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("open root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open root: %s is not a directory", abs)
	}
	return &FSStore{root: abs}, nil
}

// Root returns the absolute root directory.
func (s *FSStore) Root() string { return s.root }

func (s *FSStore) abs(p string) string {
	return filepath.Join(s.root, filepath.FromSlash(p))
}

func (s *FSStore) Read(_ context.Context, p string) (string, error) {
	clean, err := cleanPath(p)
	if err != nil {
		return "", err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.abs(clean))
	if errors.Is(err, fs.ErrNotExist) {
		return "", notFound(clean)
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", clean, err)
	}
	return string(data), nil
}

// Write replaces the file through a temporary file and rename, so readers
// never see a half-written flowchart.
func (s *FSStore) Write(_ context.Context, p, content string) error {
	clean, err := cleanPath(p)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	target := s.abs(clean)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("write %s: %w", clean, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(target), "."+filepath.Base(target)+".*")
	if err != nil {
		return fmt.Errorf("write %s: %w", clean, err)
	}
	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", clean, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", clean, err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", clean, err)
	}
	return nil
}

// List walks dir and returns regular files. Hidden files and directories
// are skipped.
func (s *FSStore) List(_ context.Context, dir string) ([]string, error) {
	prefix, err := cleanDir(dir)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	start := s.abs(strings.TrimSuffix(prefix, "/"))
	var out []string
	err = filepath.WalkDir(start, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == start && errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return err
		}
		if p != start && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		out = append(out, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	slices.Sort(out)
	return out, nil
}

func (s *FSStore) Delete(_ context.Context, p string) error {
	clean, err := cleanPath(p)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	err = os.Remove(s.abs(clean))
	if errors.Is(err, fs.ErrNotExist) {
		return notFound(clean)
	}
	if err != nil {
		return fmt.Errorf("delete %s: %w", clean, err)
	}
	return nil
}

// Close does nothing for the file system store.
func (s *FSStore) Close() error { return nil }

var _ Store = (*FSStore)(nil)
