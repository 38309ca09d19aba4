package cache

import (
	"testing"
	"time"
)

func TestLRUExpiry(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	c := NewLRUCache[string](4, time.Minute)
	c.now = func() time.Time { return now }

	c.Set("a", "1")
	if v, ok := c.Get("a"); !ok || v != "1" {
		t.Fatalf("get = %q, %v", v, ok)
	}
	now = now.Add(2 * time.Minute)
	if _, ok := c.Get("a"); ok {
		t.Fatal("expired entry returned")
	}

	c.Set("b", "2")
	now = now.Add(2 * time.Minute)
	if n := c.CleanExpired(); n != 1 || c.Size() != 0 {
		t.Fatalf("cleaned %d, size %d", n, c.Size())
	}
}

func TestLRUEviction(t *testing.T) {
	c := NewLRUCache[int](2, time.Hour)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatal("least recently used entry survived")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatal("recently used entry evicted")
	}
}

func TestDeletePrefix(t *testing.T) {
	c := NewLRUCache[int](10, time.Hour)
	c.Set("u1|2024-03", 1)
	c.Set("u1|2024-04", 2)
	c.Set("u10|2024-03", 3)
	c.Set("u2|2024-03", 4)

	if n := c.DeletePrefix("u1|"); n != 2 {
		t.Fatalf("removed %d, want 2", n)
	}
	if _, ok := c.Get("u10|2024-03"); !ok {
		t.Fatal("prefix match crossed the separator")
	}
	if c.Size() != 2 {
		t.Fatalf("size = %d, want 2", c.Size())
	}
}

func TestManagerStopWithoutStart(t *testing.T) {
	m := NewManager()
	m.Register(NewLRUCache[int](1, time.Hour))
	m.Stop()
	m.Stop()
}

func TestLRUStats(t *testing.T) {
	c := NewLRUCache[int](2, time.Hour)
	c.Set("a", 1)
	c.Get("a")
	c.Get("a")
	c.Get("missing")

	if got := c.Stats(); got != (Stats{Hits: 2, Misses: 1, Entries: 1}) {
		t.Fatalf("stats = %+v", got)
	}
}

func TestManagerCleanNow(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	a := NewLRUCache[int](4, time.Minute)
	b := NewLRUCache[string](4, time.Hour)
	a.now = func() time.Time { return now }
	b.now = func() time.Time { return now }
	a.Set("x", 1)
	a.Set("y", 2)
	b.Set("z", "3")

	m := NewManager()
	m.Register(a)
	m.Register(b)
	now = now.Add(10 * time.Minute)

	if n := m.CleanNow(); n != 2 {
		t.Fatalf("cleaned %d, want 2", n)
	}
	if b.Size() != 1 {
		t.Fatalf("long-lived cache size = %d", b.Size())
	}

	m.StartCleanup(time.Hour)
	m.Stop()
}
