package handlers

import (
	"testing"
	"time"
)

func TestTTLCacheRoundtrip(t *testing.T) {
	c := NewTTLCache(time.Minute, nil, "")
	c.Set("k", "v")
	got, ok := c.Get("k")
	if !ok || got != "v" {
		t.Fatalf("Get = (%v, %v), want (v, true)", got, ok)
	}
}

func TestTTLCacheExpiry(t *testing.T) {
	c := NewTTLCache(10*time.Millisecond, nil, "")
	c.Set("k", "v")
	time.Sleep(25 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Fatal("entry survived past its TTL")
	}
}

func TestTTLCacheDelete(t *testing.T) {
	c := NewTTLCache(time.Minute, nil, "")
	c.Set("k", "v")
	c.Delete("k")
	if _, ok := c.Get("k"); ok {
		t.Fatal("entry survived Delete")
	}
	// Deleting an absent key is fine.
	c.Delete("absent")
}
