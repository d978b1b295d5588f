package lrucache

import (
	"testing"
	"time"
)

func TestKeyHashStable(t *testing.T) {
	a := KeyHash("Art. 37, §6º da CF")
	b := KeyHash("Art. 37, §6º da CF")
	if a != b {
		t.Fatalf("KeyHash not stable: %s vs %s", a, b)
	}
	if a == KeyHash("different text") {
		t.Fatalf("KeyHash collided on different inputs")
	}
}

func TestTTLCacheGetSet(t *testing.T) {
	c := New[string](4)
	c.Set("k1", "v1", 0)
	v, ok := c.Get("k1")
	if !ok || v != "v1" {
		t.Fatalf("expected hit v1, got %q ok=%v", v, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Fatalf("expected miss for unseen key")
	}
}

func TestTTLCacheExpiry(t *testing.T) {
	c := New[string](4)
	c.Set("k1", "v1", 1*time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	if _, ok := c.Get("k1"); ok {
		t.Fatalf("expected expired entry to miss")
	}
}

func TestTTLCacheEviction(t *testing.T) {
	c := New[int](2)
	c.Set("a", 1, 0)
	c.Set("b", 2, 0)
	c.Set("c", 3, 0) // evicts "a" (least recently used)
	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected 'a' to be evicted")
	}
	if v, ok := c.Get("b"); !ok || v != 2 {
		t.Fatalf("expected 'b' to survive")
	}
	if v, ok := c.Get("c"); !ok || v != 3 {
		t.Fatalf("expected 'c' to survive")
	}
}
