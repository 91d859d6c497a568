package topcache

import "testing"

func access(c *Cache, vpn uint64, times int) {
	for range times {
		c.Access(vpn)
	}
}

func TestFillsToCapacity(t *testing.T) {
	c := New(2)

	access(c, 5, 1)
	c.Update(5)
	access(c, 9, 1)
	c.Update(9)

	if c.Len() != 2 {
		t.Fatalf("Len = %d, want 2", c.Len())
	}
	if !c.Contains(5) || !c.Contains(9) {
		t.Fatalf("cache = %v, want 5 and 9", c.VPNs())
	}

	// Re-offering a cached page changes nothing.
	c.Update(5)
	if c.Len() != 2 {
		t.Fatalf("Len = %d after duplicate update, want 2", c.Len())
	}
}

func TestReplacesColdestOnlyWhenHotter(t *testing.T) {
	c := New(2)

	access(c, 5, 10)
	c.Update(5)
	access(c, 9, 8)
	c.Update(9)

	// VPN 12 with 9 lifetime accesses beats the coldest entry (9 at 8).
	access(c, 12, 9)
	c.Update(12)
	if !c.Contains(12) || c.Contains(9) {
		t.Fatalf("cache = %v, want 5 and 12", c.VPNs())
	}

	// VPN 9 at 8 accesses no longer beats the new minimum (12 at 9).
	c.Update(9)
	if c.Contains(9) {
		t.Fatalf("cache = %v, VPN 9 should not have re-entered", c.VPNs())
	}
	if !c.Contains(5) || !c.Contains(12) {
		t.Fatalf("cache = %v, want 5 and 12", c.VPNs())
	}
}

func TestAccessCountsAreLifetime(t *testing.T) {
	c := New(4)

	if got := c.Access(3); got != 1 {
		t.Fatalf("first access count = %d, want 1", got)
	}
	if got := c.Access(3); got != 2 {
		t.Fatalf("second access count = %d, want 2", got)
	}
	if got := c.Count(3); got != 2 {
		t.Fatalf("Count = %d, want 2", got)
	}
	if got := c.Count(99); got != 0 {
		t.Fatalf("Count of untouched VPN = %d, want 0", got)
	}
}

func TestNoDuplicates(t *testing.T) {
	c := New(4)
	for i := 0; i < 10; i++ {
		c.Access(1)
		c.Update(1)
	}
	if c.Len() != 1 {
		t.Fatalf("Len = %d, want 1", c.Len())
	}
}
