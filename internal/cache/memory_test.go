package cache

import (
	"bytes"
	"testing"
	"time"
)

func TestMemoryCacheRoundTrip(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	if _, found := c.Get("missing"); found {
		t.Error("Expected miss on an empty cache")
	}

	key := Key("system\x00prompt")
	if err := c.Set(key, []byte(`{"content":"ok"}`), time.Minute); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	got, found := c.Get(key)
	if !found {
		t.Fatal("Expected hit after set")
	}
	if !bytes.Equal(got, []byte(`{"content":"ok"}`)) {
		t.Errorf("Expected stored payload back, got %q", got)
	}

	if err := c.Delete(key); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if _, found := c.Get(key); found {
		t.Error("Expected miss after delete")
	}
}

func TestMemoryCacheDefaultTTL(t *testing.T) {
	// Non-positive constructor durations and Set TTLs use the defaults
	// instead of never-expiring entries
	c := NewMemoryCache(0, 0)

	if err := c.Set("k", []byte("v"), 0); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if _, found := c.Get("k"); !found {
		t.Error("Expected entry stored with the default TTL")
	}
}

func TestMemoryCacheStats(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	c.Get("nope")
	_ = c.Set("k", []byte("v"), time.Minute)
	c.Get("k")
	c.Get("k")

	hits, misses := c.Stats()
	if hits != 2 {
		t.Errorf("Expected 2 hits, got %d", hits)
	}
	if misses != 1 {
		t.Errorf("Expected 1 miss, got %d", misses)
	}

	// Lifetime counters survive a clear
	if err := c.Clear(); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	hits, misses = c.Stats()
	if hits != 2 || misses != 1 {
		t.Errorf("Expected counters to survive clear, got %d/%d", hits, misses)
	}
}
