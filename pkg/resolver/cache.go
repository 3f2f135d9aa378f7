package resolver

import (
	"sort"
	"sync"
	"time"
)

// Lookup is the result of a cache read.
type Lookup struct {
	// Value is the cached raw value. Empty when Absent.
	Value string

	// Absent marks a key confirmed missing at every cacheable tier.
	Absent bool
}

// cacheEntry is one cached resolution.
type cacheEntry struct {
	value    string
	absent   bool
	storedAt time.Time
}

// expired reports whether the entry's age has reached the TTL.
func (e cacheEntry) expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.storedAt) >= ttl
}

// Cache is a thread-safe TTL cache from cache key (key + ":" + environment
// code) to a raw value or a confirmed-absent sentinel.
//
// Expired entries are never returned as hits; they linger until replaced,
// cleared, or swept by RemoveExpired. Sweeping exists purely to bound
// memory, not for correctness.
type Cache struct {
	ttl time.Duration

	mu      sync.RWMutex
	entries map[string]cacheEntry
}

// NewCache creates a cache with the given TTL.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
	}
}

// Get returns the cached lookup for a key. The second return is false on a
// miss or when the entry has expired.
func (c *Cache) Get(key string) (Lookup, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || entry.expired(time.Now(), c.ttl) {
		return Lookup{}, false
	}
	return Lookup{Value: entry.value, Absent: entry.absent}, true
}

// Put stores a resolved value.
func (c *Cache) Put(key, value string) {
	c.mu.Lock()
	c.entries[key] = cacheEntry{value: value, storedAt: time.Now()}
	c.mu.Unlock()
}

// PutAbsent stores a confirmed-absent sentinel.
func (c *Cache) PutAbsent(key string) {
	c.mu.Lock()
	c.entries[key] = cacheEntry{absent: true, storedAt: time.Now()}
	c.mu.Unlock()
}

// Clear removes all entries and returns the number removed.
func (c *Cache) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := len(c.entries)
	c.entries = make(map[string]cacheEntry)
	return removed
}

// RemoveExpired sweeps entries whose age has reached the TTL and returns
// the number removed. Fresh entries are untouched.
func (c *Cache) RemoveExpired() int {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, entry := range c.entries {
		if entry.expired(now, c.ttl) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Size returns the number of entries, expired entries included.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Keys returns all cache keys in sorted order.
func (c *Cache) Keys() []string {
	c.mu.RLock()
	keys := make([]string, 0, len(c.entries))
	for key := range c.entries {
		keys = append(keys, key)
	}
	c.mu.RUnlock()

	sort.Strings(keys)
	return keys
}

// TTL returns the cache time-to-live.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}
