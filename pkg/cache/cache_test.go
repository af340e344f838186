package cache

import (
	"testing"
	"time"
)

func TestTTLGetSet(t *testing.T) {
	t.Parallel()
	c := NewTTL[int](time.Minute)
	if _, ok := c.Get("missing"); ok {
		t.Fatal("expected miss for unknown key")
	}
	c.Set("rate", 1125)
	got, ok := c.Get("rate")
	if !ok || got != 1125 {
		t.Fatalf("expected hit with 1125, got %d ok=%v", got, ok)
	}
}

func TestTTLExpiry(t *testing.T) {
	t.Parallel()
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c := NewTTL[string](time.Hour).WithClock(func() time.Time { return current })

	c.Set("rate", "11.25")
	if _, ok := c.Get("rate"); !ok {
		t.Fatal("expected hit before expiry")
	}

	current = current.Add(2 * time.Hour)
	if _, ok := c.Get("rate"); ok {
		t.Fatal("expected miss after expiry")
	}
	if c.Len() != 0 {
		t.Fatalf("expected expired entry evicted, len=%d", c.Len())
	}
}

func TestTTLZeroDisablesExpiry(t *testing.T) {
	t.Parallel()
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c := NewTTL[string](0).WithClock(func() time.Time { return current })

	c.Set("rate", "1.0")
	current = current.Add(1000 * time.Hour)
	if _, ok := c.Get("rate"); !ok {
		t.Fatal("expected entry to survive without ttl")
	}
}
