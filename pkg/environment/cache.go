package environment

import (
	"sync"
	"time"
)

// identityEntry is one cached code-to-id mapping.
type identityEntry struct {
	id       int64
	storedAt time.Time
}

// expired reports whether the entry's age has reached the TTL.
func (e identityEntry) expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.storedAt) >= ttl
}

// identityCache is a TTL cache from normalized environment code to durable
// id. It follows the same expiry discipline as the configuration value
// cache: an entry is expired once its age reaches the TTL, and expired
// entries are never returned as hits.
type identityCache struct {
	ttl time.Duration

	mu      sync.RWMutex
	entries map[string]identityEntry
}

func newIdentityCache(ttl time.Duration) *identityCache {
	return &identityCache{
		ttl:     ttl,
		entries: make(map[string]identityEntry),
	}
}

// get returns the cached id for a code, or false on a miss or an expired
// entry. Expired entries are left in place for removeExpired to sweep.
func (c *identityCache) get(code string) (int64, bool) {
	c.mu.RLock()
	entry, ok := c.entries[code]
	c.mu.RUnlock()

	if !ok || entry.expired(time.Now(), c.ttl) {
		return 0, false
	}
	return entry.id, true
}

func (c *identityCache) put(code string, id int64) {
	c.mu.Lock()
	c.entries[code] = identityEntry{id: id, storedAt: time.Now()}
	c.mu.Unlock()
}

// clear removes all entries and returns the number removed.
func (c *identityCache) clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := len(c.entries)
	c.entries = make(map[string]identityEntry)
	return removed
}

// removeExpired sweeps entries whose age has reached the TTL and returns
// the number removed. Fresh entries are untouched.
func (c *identityCache) removeExpired() int {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for code, entry := range c.entries {
		if entry.expired(now, c.ttl) {
			delete(c.entries, code)
			removed++
		}
	}
	return removed
}

func (c *identityCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// snapshot returns a copy of the current code-to-id mappings, including
// entries that have expired but not yet been swept.
func (c *identityCache) snapshot() map[string]int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]int64, len(c.entries))
	for code, entry := range c.entries {
		out[code] = entry.id
	}
	return out
}
