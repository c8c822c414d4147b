// Package symcache implements the optional in-process symbol cache of
// spec.md §4.G: a name -> bounded candidate-SymbolID list, refreshed
// lazily from the store with a short TTL. Correctness of any caller
// never depends on this cache; it only shortens hot lookups during
// resolution and by the tool service.
package symcache

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/standardbeagle/codanna-go/internal/ids"
)

// MaxCandidates bounds how many SymbolIDs one cache entry holds; Put
// keeps only the first MaxCandidates of a longer list, so an entry
// never grows unboundedly for a very common name.
const MaxCandidates = 32

// DefaultTTL is how long an entry is trusted before the next lookup
// refreshes it from the store, per spec.md §4.G's "short TTL".
const DefaultTTL = 30 * time.Second

// Cache is a name -> []SymbolID accelerator backed by an expirable
// LRU so both staleness (TTL) and memory growth (size cap) are
// bounded.
type Cache struct {
	lru *lru.LRU[string, []ids.SymbolID]
}

// New builds a Cache holding up to capacity distinct names, each
// entry expiring after ttl (DefaultTTL if ttl <= 0).
func New(capacity int, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if capacity <= 0 {
		capacity = 4096
	}
	return &Cache{lru: lru.NewLRU[string, []ids.SymbolID](capacity, nil, ttl)}
}

// Get returns the cached candidate list for name, if present and not
// expired.
func (c *Cache) Get(name string) ([]ids.SymbolID, bool) {
	return c.lru.Get(name)
}

// Put stores (or replaces) the candidate list for name, truncated to
// MaxCandidates.
func (c *Cache) Put(name string, candidates []ids.SymbolID) {
	if len(candidates) > MaxCandidates {
		candidates = candidates[:MaxCandidates]
	}
	c.lru.Add(name, candidates)
}

// Invalidate drops any cached entry for name, called when a reindex
// changes that name's candidate set.
func (c *Cache) Invalidate(name string) {
	c.lru.Remove(name)
}

// Purge clears every entry, used after a full index reload
// (IndexReloaded) since the whole candidate universe may have shifted.
func (c *Cache) Purge() {
	c.lru.Purge()
}

// Len reports the number of names currently cached.
func (c *Cache) Len() int { return c.lru.Len() }
