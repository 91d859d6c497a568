// Package topcache tracks the handful of hottest virtual pages.
// Requests for cached pages are accounted but never dispatched,
// modelling an ideal on-die buffer for the hottest pages.
package topcache

import "math"

// DefaultSize is the reference capacity of the cache.
const DefaultSize = 4

// Cache is a small set of virtual page numbers with a
// replace-the-coldest eviction policy. Lifetime access counts are kept
// here, independent of the translation engine's per-window histogram.
type Cache struct {
	limit  int
	vpns   []uint64
	counts map[uint64]uint64
}

// New builds a cache holding at most limit pages.
func New(limit int) *Cache {
	if limit <= 0 {
		limit = DefaultSize
	}
	return &Cache{
		limit:  limit,
		counts: make(map[uint64]uint64),
	}
}

// Access bumps the lifetime access count of vpn and returns it.
func (c *Cache) Access(vpn uint64) uint64 {
	c.counts[vpn]++
	return c.counts[vpn]
}

// Count returns the lifetime access count of vpn.
func (c *Cache) Count(vpn uint64) uint64 { return c.counts[vpn] }

// Contains reports whether vpn is cached. The cache is tiny, so a
// linear scan is fine.
func (c *Cache) Contains(vpn uint64) bool {
	for _, cached := range c.vpns {
		if cached == vpn {
			return true
		}
	}
	return false
}

// Update offers vpn for caching. Already-cached pages are left alone;
// below capacity the page is appended; at capacity it replaces the
// cached page with the lowest lifetime count, but only if its own
// count is strictly higher.
func (c *Cache) Update(vpn uint64) {
	if c.Contains(vpn) {
		return
	}
	if len(c.vpns) < c.limit {
		c.vpns = append(c.vpns, vpn)
		return
	}

	minIndex := 0
	minCount := uint64(math.MaxUint64)
	for i, cached := range c.vpns {
		if c.counts[cached] < minCount {
			minCount = c.counts[cached]
			minIndex = i
		}
	}
	if c.counts[vpn] > minCount {
		c.vpns[minIndex] = vpn
	}
}

// Len returns the number of cached pages.
func (c *Cache) Len() int { return len(c.vpns) }

// VPNs returns a copy of the cached page numbers.
func (c *Cache) VPNs() []uint64 {
	vpns := make([]uint64, len(c.vpns))
	copy(vpns, c.vpns)
	return vpns
}
