package reduction

// MaxCache is the default maximum number of loaded measurements (either
// single-file or merged-files types) kept in memory.
const MaxCache = 50

// Cache is a bounded, insertion-ordered store of loaded measurements keyed
// by canonical file path. Eviction is strict FIFO: the oldest entry goes
// first, independent of access recency.
type Cache struct {
	capacity int
	entries  []*Measurement
}

// NewCache creates a cache with the given capacity. Non-positive capacities
// fall back to MaxCache.
func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = MaxCache
	}
	return &Cache{capacity: capacity}
}

// Find returns the cached measurement with the exact canonical path, or nil.
func (c *Cache) Find(path string) *Measurement {
	for _, m := range c.entries {
		if m.Path == path {
			return m
		}
	}
	return nil
}

// Insert appends a measurement, first evicting oldest entries while the
// cache is at or above capacity. Returns the number of evicted entries.
// The size invariant len <= capacity holds on return.
func (c *Cache) Insert(m *Measurement) int {
	evicted := 0
	for len(c.entries) >= c.capacity {
		c.entries = c.entries[1:]
		evicted++
	}
	c.entries = append(c.entries, m)
	return evicted
}

// Remove deletes the given measurement (by identity) from the cache.
// Returns true if it was present.
func (c *Cache) Remove(m *Measurement) bool {
	for i, entry := range c.entries {
		if entry == m {
			c.entries = append(c.entries[:i], c.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Size returns the number of cached measurements.
func (c *Cache) Size() int { return len(c.entries) }

// Capacity returns the configured maximum size.
func (c *Cache) Capacity() int { return c.capacity }

// Clear removes all entries.
func (c *Cache) Clear() { c.entries = nil }
