// Package cache stores rendered images keyed by the DOT text they were
// rendered from.
//
// Rendering large plan trees with Graphviz takes seconds, while the same dump
// is often converted again with unchanged options. The pipeline therefore
// looks up [ArtifactKey] before invoking a renderer and stores the result
// afterwards.
//
// Three implementations are provided:
//
//   - [FileCache]: one file per entry under a directory, for the CLI
//   - [RedisCache]: a shared cache for server deployments
//   - [NullCache]: stores nothing, used with --no-cache
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with optional expiry.
type Cache interface {
	// Get returns the value for key. A missing or expired entry is reported
	// as a miss, not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// DefaultTTL is how long rendered images are kept unless configured otherwise.
const DefaultTTL = 7 * 24 * time.Hour
