// Package cache provides byte caching for fetched STAC documents.
//
// Remote catalogs are walked link by link, and the same document is often
// fetched many times across runs (describe, validate, viz, browse all start
// from the root). A Cache sits between the storage reader and the network,
// keyed by hashed href.
//
// Backends:
//   - FileCache: JSON entries under a directory, for CLI usage
//   - RedisCache: shared cache for multi-process deployments
//   - BadgerCache: embedded persistent store, no external service
//   - NullCache: disables caching
//
// Implementations are safe for concurrent use where their backing store is;
// FileCache relies on the filesystem's atomic file replacement.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte payloads under string keys with per-entry TTL.
// A zero TTL means the entry never expires.
type Cache interface {
	// Get returns the cached payload and whether it was present and fresh.
	// Expired entries count as absent. The error reports backend failures
	// only, never misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of 0 keeps the entry until evicted
	// or deleted.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes the entry if present. Deleting a missing key is not an
	// error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Namespaced returns a view of c that prefixes every key, isolating one
// consumer's entries from another's (for example "doc:" for fetched
// documents).
func Namespaced(c Cache, prefix string) Cache {
	return &namespaced{inner: c, prefix: prefix}
}

type namespaced struct {
	inner  Cache
	prefix string
}

func (n *namespaced) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return n.inner.Get(ctx, n.prefix+key)
}

func (n *namespaced) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return n.inner.Set(ctx, n.prefix+key, data, ttl)
}

func (n *namespaced) Delete(ctx context.Context, key string) error {
	return n.inner.Delete(ctx, n.prefix+key)
}

func (n *namespaced) Close() error { return n.inner.Close() }
