// Package cache stores rendered artifacts and snapshot listings so repeated
// requests for the same dump skip decoding.
//
// Every backend implements [Cache]. The CLI uses [FileCache] under the XDG
// cache directory, the HTTP server uses [LRUCache] in memory or [RedisCache]
// when several instances share work, and [NullCache] disables caching.
//
// Keys are built by a [Keyer] from a content hash of the dump, so editing a
// dump in place never serves a stale artifact:
//
//	keyer := cache.NewDefaultKeyer()
//	key := keyer.ArtifactKey(fileHash, cache.ArtifactKeyOpts{Index: 2, Format: "svg"})
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry expiry.
type Cache interface {
	// Get returns the value stored under key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases the backend.
	Close() error
}

// Default time-to-live values per entry type.
const (
	TTLList     = 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
)

// Keyer builds cache keys. Implementations must be deterministic.
type Keyer interface {
	// ListKey is the key of the snapshot listing of a dump.
	ListKey(fileHash string) string
	// ArtifactKey is the key of one rendered snapshot.
	ArtifactKey(fileHash string, opts ArtifactKeyOpts) string
}

// ArtifactKeyOpts are the render inputs that change an artifact's bytes.
type ArtifactKeyOpts struct {
	Index     int     `json:"index"`
	Options   string  `json:"options"`
	Spotlight []int   `json:"spotlight,omitempty"`
	Format    string  `json:"format"`
	Scale     float64 `json:"scale,omitempty"`
	ShowIDs   bool    `json:"show_ids,omitempty"`
	Title     bool    `json:"title,omitempty"`
}

// DefaultKeyer hashes key components into "<kind>:<sha256>" strings.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// ListKey implements [Keyer].
func (DefaultKeyer) ListKey(fileHash string) string {
	return hashKey("list", fileHash)
}

// ArtifactKey implements [Keyer].
func (DefaultKeyer) ArtifactKey(fileHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", fileHash, opts)
}

// ScopedKeyer prefixes every key of an inner keyer. The server scopes keys
// by serving root so instances sharing a Redis database do not collide.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner keyer means
// [DefaultKeyer].
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// ListKey implements [Keyer].
func (k *ScopedKeyer) ListKey(fileHash string) string {
	return k.prefix + k.inner.ListKey(fileHash)
}

// ArtifactKey implements [Keyer].
func (k *ScopedKeyer) ArtifactKey(fileHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(fileHash, opts)
}
