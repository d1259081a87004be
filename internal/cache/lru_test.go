package cache

import (
	"testing"
	"time"
)

func TestLRUCacheBasicOperations(t *testing.T) {
	c := NewLRUCache[string](10, time.Hour)

	if _, found := c.Get("missing"); found {
		t.Error("empty cache should not report hits")
	}

	c.Set("k", "v")
	got, found := c.Get("k")
	if !found {
		t.Fatal("expected hit after Set")
	}
	if got != "v" {
		t.Errorf("Get returned %q, want %q", got, "v")
	}

	c.Delete("k")
	if _, found := c.Get("k"); found {
		t.Error("key should be gone after Delete")
	}
}

func TestLRUCacheEviction(t *testing.T) {
	c := NewLRUCache[string](3, time.Hour)

	c.Set("key1", "value1")
	c.Set("key2", "value2")
	c.Set("key3", "value3")
	c.Set("key4", "value4") // should evict key1

	if _, found := c.Get("key1"); found {
		t.Error("key1 should have been evicted")
	}
	for _, key := range []string{"key2", "key3", "key4"} {
		if _, found := c.Get(key); !found {
			t.Errorf("%s should still exist", key)
		}
	}
}

func TestLRUCacheRecentUseBlocksEviction(t *testing.T) {
	c := NewLRUCache[string](3, time.Hour)

	c.Set("key1", "value1")
	c.Set("key2", "value2")
	c.Set("key3", "value3")

	// Touch key1 so key2 becomes the eviction candidate.
	if _, found := c.Get("key1"); !found {
		t.Fatal("key1 should exist before touch")
	}
	c.Set("key4", "value4")

	if _, found := c.Get("key1"); !found {
		t.Error("recently used key1 should survive eviction")
	}
	if _, found := c.Get("key2"); found {
		t.Error("key2 should have been evicted")
	}
}

func TestLRUCacheTTLExpiration(t *testing.T) {
	c := NewLRUCache[string](100, 50*time.Millisecond)

	c.Set("key1", "value1")
	if _, found := c.Get("key1"); !found {
		t.Error("key1 should exist immediately")
	}

	time.Sleep(60 * time.Millisecond)

	if _, found := c.Get("key1"); found {
		t.Error("key1 should have expired")
	}
}

func TestLRUCacheCleanExpired(t *testing.T) {
	c := NewLRUCache[string](100, 50*time.Millisecond)

	c.Set("key1", "value1")
	c.Set("key2", "value2")
	c.Set("key3", "value3")

	time.Sleep(60 * time.Millisecond)

	if removed := c.CleanExpired(); removed != 3 {
		t.Errorf("expected 3 items cleaned, got %d", removed)
	}
	if c.Size() != 0 {
		t.Errorf("cache should be empty after cleanup, has %d", c.Size())
	}
}

func TestLRUCachePurge(t *testing.T) {
	c := NewLRUCache[string](100, time.Hour)

	c.Set("key1", "value1")
	c.Set("key2", "value2")

	if removed := c.Purge(); removed != 2 {
		t.Errorf("Purge removed %d, want 2", removed)
	}
	if _, found := c.Get("key1"); found {
		t.Error("purged key should not be found")
	}

	// The purged cache must stay usable.
	c.Set("key3", "value3")
	if _, found := c.Get("key3"); !found {
		t.Error("cache should accept entries after Purge")
	}
	if c.Size() != 1 {
		t.Errorf("Size() = %d after repopulating, want 1", c.Size())
	}
}

func TestManagerCleanupLoop(t *testing.T) {
	c := NewLRUCache[string](100, 10*time.Millisecond)
	c.Set("key1", "value1")

	m := NewManager()
	m.Register(c)
	m.StartCleanup(20 * time.Millisecond)

	time.Sleep(60 * time.Millisecond)
	m.Stop()

	if c.Size() != 0 {
		t.Errorf("manager should have cleaned expired entries, %d left", c.Size())
	}
}

func BenchmarkLRUCache(b *testing.B) {
	c := NewLRUCache[string](1000, time.Hour)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if i%10 == 0 {
			c.Set("bench-key", "payload")
		} else {
			c.Get("bench-key")
		}
	}
}
