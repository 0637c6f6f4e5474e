package storage

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
)

// MemoryStore keeps files in a map. It is safe for concurrent use.
type MemoryStore struct {
	mu    sync.RWMutex
	files map[string]string
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{files: make(map[string]string)}
}

func (s *MemoryStore) Read(_ context.Context, p string) (string, error) {
	clean, err := cleanPath(p)
	if err != nil {
		return "", err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	content, ok := s.files[clean]
	if !ok {
		return "", notFound(clean)
	}
	return content, nil
}

func (s *MemoryStore) Write(_ context.Context, p, content string) error {
	clean, err := cleanPath(p)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[clean] = content
	return nil
}

func (s *MemoryStore) List(_ context.Context, dir string) ([]string, error) {
	prefix, err := cleanDir(dir)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for _, p := range slices.Sorted(maps.Keys(s.files)) {
		if strings.HasPrefix(p, prefix) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *MemoryStore) Delete(_ context.Context, p string) error {
	clean, err := cleanPath(p)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.files[clean]; !ok {
		return notFound(clean)
	}
	delete(s.files, clean)
	return nil
}

// Close does nothing.
func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
