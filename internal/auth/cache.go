package auth

import (
	"sync"
	"time"
)

// DefaultCacheTTL is how long a cached permission map stays valid. It is
// a compile-time constant on purpose: the freshness window is part of the
// permission contract, not an operator tunable.
const DefaultCacheTTL = 5 * time.Minute

type cacheEntry struct {
	perms     PermissionMap
	fetchedAt time.Time
}

// Cache memoizes per-admin permission maps so a navigation burst does not
// hit the store on every check. Entries expire lazily on read after the
// TTL; there are no background sweeps. The cache never does I/O and its
// operations never fail.
//
// Each actor additionally carries a monotonically increasing fetch
// sequence. A store fetch reserves a sequence number before it starts and
// a completion older than the last applied one is discarded, so a slow
// response can not overwrite a newer map.
type Cache struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	entries  map[string]cacheEntry
	issued   map[string]uint64 // last fetch sequence handed out per actor
	applied  map[string]uint64 // last fetch sequence applied per actor
	inflight map[string]int    // fetches begun but not yet completed or abandoned
}

// NewCache creates a permission cache with the default TTL.
func NewCache() *Cache {
	return &Cache{
		ttl:      DefaultCacheTTL,
		now:      time.Now,
		entries:  make(map[string]cacheEntry),
		issued:   make(map[string]uint64),
		applied:  make(map[string]uint64),
		inflight: make(map[string]int),
	}
}

// Get returns the cached permission map for the actor if a fresh entry
// exists. The second return value reports a hit; on a miss the caller
// must fetch from the store and complete the fetch. Callers must not
// mutate the returned map.
func (c *Cache) Get(actorID string) (PermissionMap, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[actorID]
	if !ok {
		return nil, false
	}

	if c.now().Sub(e.fetchedAt) >= c.ttl {
		delete(c.entries, actorID)
		return nil, false
	}

	return e.perms, true
}

// Put stores the permission map for the actor unconditionally with
// fetchedAt = now. It also advances the actor's fetch sequence so any
// fetch still in flight is discarded when it completes.
func (c *Cache) Put(actorID string, perms PermissionMap) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inflight[actorID] > 0 {
		c.issued[actorID]++
		c.applied[actorID] = c.issued[actorID]
	}
	c.entries[actorID] = cacheEntry{perms: perms, fetchedAt: c.now()}
}

// BeginFetch reserves a sequence number for a store fetch about to
// start. Every BeginFetch must be paired with CompleteFetch or
// AbandonFetch, or the actor's sequence bookkeeping is never released.
func (c *Cache) BeginFetch(actorID string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.inflight[actorID]++
	c.issued[actorID]++

	return c.issued[actorID]
}

// CompleteFetch applies the result of a fetch started with BeginFetch.
// It reports whether the result was applied; a fetch that is older than
// the last applied one, or that started before an invalidation, is
// discarded.
func (c *Cache) CompleteFetch(actorID string, seq uint64, perms PermissionMap) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	applied := seq > c.applied[actorID]
	if applied {
		c.applied[actorID] = seq
		c.entries[actorID] = cacheEntry{perms: perms, fetchedAt: c.now()}
	}

	c.finishFetch(actorID)

	return applied
}

// AbandonFetch releases a sequence reserved with BeginFetch when the
// fetch failed and has no result to apply.
func (c *Cache) AbandonFetch(actorID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.finishFetch(actorID)
}

// finishFetch retires one in-flight fetch. Once the last one for an
// actor is done no completion with an old number can arrive anymore, so
// the sequence maps drop the actor instead of growing with every actor
// ever seen. Callers must hold the mutex.
func (c *Cache) finishFetch(actorID string) {
	if c.inflight[actorID] > 1 {
		c.inflight[actorID]--
		return
	}

	delete(c.inflight, actorID)
	delete(c.issued, actorID)
	delete(c.applied, actorID)
}

// Invalidate removes the actor's entry immediately. Every code path that
// changes an actor's stored permissions must call this before returning
// control to the UI, or a stale grant or denial stays visible for up to
// the TTL. Fetches already in flight for the actor are discarded on
// completion.
func (c *Cache) Invalidate(actorID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, actorID)
	if c.inflight[actorID] > 0 {
		c.applied[actorID] = c.issued[actorID]
	}
}

// InvalidateAll removes every entry. Administrative escape hatch.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]cacheEntry)
	for actorID := range c.inflight {
		c.applied[actorID] = c.issued[actorID]
	}
}

// Len reports the number of live entries, expired or not. Shown in the
// permission console's overview.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}
