package cache

import (
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time { return f.t }

func newTestCache(size int, ttl time.Duration) (*LRUCache[string], *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)}
	c := NewLRUCache[string](size, ttl)
	c.now = clock.now
	return c, clock
}

func TestLRUCache_SetAndGet(t *testing.T) {
	c, _ := newTestCache(2, time.Minute)
	c.Set("2024-01-15", "summary")
	got, ok := c.Get("2024-01-15")
	if !ok || got != "summary" {
		t.Fatalf("expected hit, got %q %v", got, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Fatalf("expected miss")
	}
}

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c, _ := newTestCache(2, time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")
	c.Get("a")
	c.Set("c", "3")

	if _, ok := c.Get("b"); ok {
		t.Fatalf("b should have been evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("a should survive")
	}
	if c.Stats().Size != 2 {
		t.Fatalf("expected size 2, got %d", c.Stats().Size)
	}
}

func TestLRUCache_Expiration(t *testing.T) {
	c, clock := newTestCache(4, time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")
	clock.t = clock.t.Add(2 * time.Minute)

	if _, ok := c.Get("a"); ok {
		t.Fatalf("a should be expired")
	}
	// Setting c sweeps the expired b.
	c.Set("c", "3")
	if got := c.Stats().Size; got != 1 {
		t.Fatalf("expected only c to remain, size %d", got)
	}
	if _, ok := c.Get("c"); !ok {
		t.Fatalf("c should still be live")
	}
}

func TestLRUCache_Purge(t *testing.T) {
	c, _ := newTestCache(4, time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")
	c.Purge()
	if got := c.Stats().Size; got != 0 {
		t.Fatalf("expected empty cache, got %d", got)
	}
	c.Set("c", "3")
	if _, ok := c.Get("c"); !ok {
		t.Fatalf("cache unusable after purge")
	}
}

func TestLRUCache_Stats(t *testing.T) {
	c, _ := newTestCache(2, time.Minute)
	c.Get("2024-01-15")
	c.Set("2024-01-15", "summary")
	c.Get("2024-01-15")
	c.Get("2024-01-15")

	want := Stats{Hits: 2, Misses: 1, Size: 1}
	if got := c.Stats(); got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}
