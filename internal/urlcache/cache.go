// Package urlcache keeps recently issued asset-access URLs in memory so the
// object store is not asked to sign the same key twice within its validity
// window. It is a performance layer only: entries vanish on restart and the
// cache is never a source of truth.
package urlcache

import (
	"sort"
	"sync"
	"time"
)

// DefaultMaxEntries bounds the cache when no explicit limit is configured.
const DefaultMaxEntries = 256

// Entry is a cached access URL and the moment it stops being served.
type Entry struct {
	URL       string
	ExpiresAt time.Time
}

// Cache maps object-store keys to time-limited access URLs. All mutation
// goes through a single mutex; callers are expected to own the write path
// for a given key (only the issue/regeneration path writes it).
type Cache struct {
	mu         sync.Mutex
	maxEntries int
	entries    map[string]Entry

	now func() time.Time // swapped out in tests
}

// NewCache creates a cache bounded at maxEntries; non-positive values fall
// back to DefaultMaxEntries.
func NewCache(maxEntries int) *Cache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Cache{
		maxEntries: maxEntries,
		entries:    make(map[string]Entry),
		now:        time.Now,
	}
}

// Get returns the entry for key if present and not yet expired. Expiry is
// checked lazily here; an expired entry is dropped and reported as a miss.
func (c *Cache) Get(key string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return Entry{}, false
	}
	if !c.now().Before(e.ExpiresAt) {
		delete(c.entries, key)
		return Entry{}, false
	}
	return e, true
}

// Put stores a URL for key, expiring after ttl. Repeated calls with the
// same key overwrite the previous entry. When the insert pushes the cache
// past its bound the oldest entries by expiry are pruned; insertion stays
// O(1) in the common case because pruning only runs once the bound is
// actually exceeded.
func (c *Cache) Put(key, url string, ttl time.Duration) Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := Entry{URL: url, ExpiresAt: c.now().Add(ttl)}
	c.entries[key] = e

	if len(c.entries) > c.maxEntries {
		c.prune()
	}
	return e
}

// Invalidate removes the entries for the given keys, if present.
func (c *Cache) Invalidate(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, key := range keys {
		delete(c.entries, key)
	}
}

// PurgeExpired removes every entry at or past its expiry and returns how
// many were dropped. The lazy check in Get already guarantees expired URLs
// are never served; this just reclaims memory on a schedule.
func (c *Cache) PurgeExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	purged := 0
	for key, e := range c.entries {
		if !now.Before(e.ExpiresAt) {
			delete(c.entries, key)
			purged++
		}
	}
	return purged
}

// Len returns the number of cached entries, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// prune drops the entries with the earliest expiry until the bound holds.
// Expiry approximates recency for this workload: freshly issued URLs are
// both newest and longest-lived, so no per-read access bookkeeping is
// needed. Caller must hold c.mu.
func (c *Cache) prune() {
	type keyed struct {
		key       string
		expiresAt time.Time
	}

	all := make([]keyed, 0, len(c.entries))
	for key, e := range c.entries {
		all = append(all, keyed{key: key, expiresAt: e.ExpiresAt})
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].expiresAt.Before(all[j].expiresAt)
	})

	for _, k := range all[:len(all)-c.maxEntries] {
		delete(c.entries, k.key)
	}
}
