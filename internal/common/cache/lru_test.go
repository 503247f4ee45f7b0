package cache

import (
	"testing"
	"time"
)

func TestLRU_EvictsOldest(t *testing.T) {
	c := NewLRU[bool](2, time.Minute)
	c.Set("a", true, 0)
	c.Set("b", true, 0)
	c.Get("a")
	c.Set("c", true, 0)

	if _, ok := c.Get("b"); ok {
		t.Fatal("b should have been evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatal("a was recently used and should remain")
	}
	if c.Len() != 2 {
		t.Fatalf("Len = %d, want 2", c.Len())
	}
}

func TestLRU_Expiry(t *testing.T) {
	now := time.Unix(1000, 0)
	c := NewLRU[string](10, time.Second)
	c.now = func() time.Time { return now }

	c.Set("k", "v", 0)
	c.Set("forever", "v", -1)
	if v, ok := c.Get("k"); !ok || v != "v" {
		t.Fatal("expected fresh entry")
	}

	now = now.Add(2 * time.Second)
	if _, ok := c.Get("k"); ok {
		t.Fatal("entry should have expired")
	}
	if _, ok := c.Get("forever"); !ok {
		t.Fatal("negative ttl should never expire")
	}

	c.Delete("forever")
	if _, ok := c.Get("forever"); ok {
		t.Fatal("deleted entry returned")
	}
}
