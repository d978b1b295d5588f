// Package lrucache implements the two bounded, thread-safe in-process
// LRU caches spec.md §3 requires: the query-expansion cache (keyed by
// SHA-256 of the normalized query) and the embedding-router
// classification cache (keyed by SHA-256 of the first 500 chars of
// text). Both default to 1024 entries.
//
// Grounded on github.com/hashicorp/golang-lru/v2 (used by
// Aman-CERP-amanmcp in the reference pack) for the eviction policy, and
// on the teacher's go-enhanced-rag-service/pkg/cache.KeyHash for the
// SHA-256 keying convention.
package lrucache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCapacity is the default bound for both caches spec.md §3 names.
const DefaultCapacity = 1024

// KeyHash returns the stable SHA-256 hex digest of s, used as a cache
// key for both the query-expansion cache and the router classification
// cache.
func KeyHash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

type entry[V any] struct {
	value     V
	expiresAt time.Time
	hasTTL    bool
}

// TTLCache is a bounded, thread-safe LRU cache with optional per-entry
// TTL. One writer lock guards the whole cache, matching spec.md §5
// ("single writer lock per cache with LRU eviction").
type TTLCache[V any] struct {
	mu    sync.Mutex
	inner *lru.Cache[string, entry[V]]
}

// New creates a TTLCache bounded at capacity entries. capacity <= 0
// falls back to DefaultCapacity.
func New[V any](capacity int) *TTLCache[V] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	inner, err := lru.New[string, entry[V]](capacity)
	if err != nil {
		// lru.New only errors on capacity <= 0, already guarded above.
		panic(err)
	}
	return &TTLCache[V]{inner: inner}
}

// Get looks up key, returning (value, true) on a live hit. An expired
// entry is treated as a miss and evicted.
func (c *TTLCache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.inner.Get(key)
	var zero V
	if !ok {
		return zero, false
	}
	if e.hasTTL && time.Now().After(e.expiresAt) {
		c.inner.Remove(key)
		return zero, false
	}
	return e.value, true
}

// Set inserts or replaces key with value. ttl <= 0 means no expiry.
func (c *TTLCache[V]) Set(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := entry[V]{value: value}
	if ttl > 0 {
		e.expiresAt = time.Now().Add(ttl)
		e.hasTTL = true
	}
	c.inner.Add(key, e)
}

// Len returns the number of entries currently held (including any not
// yet lazily expired).
func (c *TTLCache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inner.Len()
}

// Purge clears the cache entirely.
func (c *TTLCache[V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inner.Purge()
}
