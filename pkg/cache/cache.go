// Package cache stores computed layouts and rendered artifacts so repeated
// work on an unchanged flowchart is skipped.
//
// # Backends
//
//   - [FileCache]: one JSON file per entry under a directory, for the CLI
//   - [RedisCache]: a shared Redis instance, for the HTTP server
//   - [NullCache]: never stores anything, for tests and --no-cache
//
// # Keys
//
// A [Keyer] turns content hashes plus the options that influence the
// result into cache keys. Layout keys are derived from the serialized
// topology of a graph, so moving a node or editing a label that does not
// change the Mermaid text hits the same entry. [ScopedKeyer] adds a prefix
// when several tenants share one backend.
package cache

import (
	"context"
	"time"
)

// Default time-to-live values per entry type.
const (
	TTLLayout   = 7 * 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
)

// Cache is a byte-oriented key/value store with optional expiry.
type Cache interface {
	// Get returns the stored value. A missing or expired entry is reported
	// as a miss (false) with a nil error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the backend.
	Close() error
}

// NullCache stores nothing; every Get is a miss. The CLI uses it for
// --no-cache and the "none" backend.
type NullCache struct{}

// NewNullCache creates a null cache.
func NewNullCache() *NullCache { return &NullCache{} }

func (*NullCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (*NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (*NullCache) Delete(context.Context, string) error { return nil }
func (*NullCache) Close() error { return nil }

var _ Cache = (*NullCache)(nil)
