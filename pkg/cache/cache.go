// Package cache provides the process-local byte cache used by the image
// recompression engine.
//
// Revisiting a (format, quality) setting for the same source image is common
// when a user drags a quality slider back and forth. The engine keys encoded
// outputs by the source hash and the encode parameters so such revisits skip
// the encoder entirely.
//
// Nothing in this package touches the file system or the network: cached
// data lives only as long as the process.
//
// # Implementations
//
//   - [MemoryCache]: bounded, TTL-aware, oldest-first eviction
//   - [NullCache]: never stores anything (caching disabled)
//
// # Keys
//
// Keys are built by a [Keyer] so callers never assemble key strings by hand:
//
//	keyer := cache.NewDefaultKeyer()
//	key := keyer.EncodeKey(cache.Hash(src), cache.EncodeKeyOpts{Format: "jpeg", Quality: 80})
package cache

import (
	"context"
	"time"
)

// TTLEncoded is the default lifetime of an encoded image.
const TTLEncoded = 10 * time.Minute

// Cache stores opaque byte slices under string keys.
//
// Implementations must be safe for concurrent use. A ttl of zero means the
// entry does not expire on its own (it may still be evicted).
type Cache interface {
	// Get returns the data stored under key and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases all entries.
	Close() error
}

// EncodeKeyOpts are the encode parameters that distinguish cached outputs of
// the same source.
type EncodeKeyOpts struct {
	Format  string `json:"format"`
	Quality int    `json:"quality"`
}

// Keyer builds cache keys.
type Keyer interface {
	// EncodeKey identifies the encoded output of a source image.
	EncodeKey(sourceHash string, opts EncodeKeyOpts) string
}

// DefaultKeyer hashes key components with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// EncodeKey implements Keyer.
func (DefaultKeyer) EncodeKey(sourceHash string, opts EncodeKeyOpts) string {
	return hashKey("encode", sourceHash, opts)
}
