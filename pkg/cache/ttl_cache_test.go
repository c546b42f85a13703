package cache

import (
	"testing"
	"time"
)

func TestTTLCacheExpiry(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	c := NewTTLCache[string]()
	c.now = func() time.Time { return now }

	c.Set("cases", "v1", time.Minute)
	c.Set("regions", "v2", 0)

	if v, ok := c.Get("cases"); !ok || v != "v1" {
		t.Fatalf("expected hit, got %q %v", v, ok)
	}

	now = now.Add(2 * time.Minute)
	if _, ok := c.Get("cases"); ok {
		t.Fatalf("expected expired entry")
	}
	if v, ok := c.Get("regions"); !ok || v != "v2" {
		t.Fatalf("entry without ttl expired")
	}
	if c.Len() != 1 {
		t.Fatalf("expected expired entry to be evicted, len=%d", c.Len())
	}
}

func TestTTLCacheDeleteAndPurge(t *testing.T) {
	c := NewTTLCache[int]()
	c.Set("a", 1, 0)
	c.Set("b", 2, 0)
	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected deleted entry to be gone")
	}
	c.Purge()
	if c.Len() != 0 {
		t.Fatalf("expected empty cache after purge")
	}
}
