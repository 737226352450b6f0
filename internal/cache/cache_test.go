// Harmonium - Music Library and Streaming Backend
// Copyright 2026 Harmonium contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harmonium-fm/harmonium

package cache

import (
	"sync"
	"testing"
	"time"
)

// fakeClock is a manually advanced clock for expiry tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestCache_BasicOperations(t *testing.T) {
	cache := New(time.Minute)

	cache.Set("a", 1)
	cache.Set("b", 2)

	if v, found := cache.Get("a"); !found || v.(int) != 1 {
		t.Errorf("Get(a) = %v, %v; want 1, true", v, found)
	}
	if v, found := cache.Get("b"); !found || v.(int) != 2 {
		t.Errorf("Get(b) = %v, %v; want 2, true", v, found)
	}
	if _, found := cache.Get("missing"); found {
		t.Error("Expected miss for unknown key")
	}
}

func TestCache_ExpiryWithFakeClock(t *testing.T) {
	clock := newFakeClock()
	cache := NewWithClock(time.Hour, clock.Now)

	cache.Set("a", "value")

	clock.Advance(59 * time.Minute)
	if _, found := cache.Get("a"); !found {
		t.Error("Expected 'a' to be alive before TTL")
	}

	clock.Advance(2 * time.Minute)
	if _, found := cache.Get("a"); found {
		t.Error("Expected 'a' to be expired after TTL")
	}
}

func TestCache_SetWithTTLOverridesDefault(t *testing.T) {
	clock := newFakeClock()
	cache := NewWithClock(time.Hour, clock.Now)

	cache.SetWithTTL("short", 1, time.Minute)
	cache.Set("long", 2)

	clock.Advance(2 * time.Minute)
	if _, found := cache.Get("short"); found {
		t.Error("Expected 'short' to be expired")
	}
	if _, found := cache.Get("long"); !found {
		t.Error("Expected 'long' to be alive")
	}
}

func TestCache_Cleanup(t *testing.T) {
	clock := newFakeClock()
	cache := NewWithClock(time.Minute, clock.Now)

	cache.Set("a", 1)
	cache.Set("b", 2)

	clock.Advance(2 * time.Minute)
	cache.Cleanup()

	stats := cache.GetStats()
	if stats.TotalKeys != 0 {
		t.Errorf("Expected 0 keys after cleanup, got %d", stats.TotalKeys)
	}
	if stats.Evictions != 2 {
		t.Errorf("Expected 2 evictions, got %d", stats.Evictions)
	}
}

func TestCache_DeleteAndClear(t *testing.T) {
	cache := New(time.Minute)

	cache.Set("a", 1)
	cache.Set("b", 2)
	cache.Delete("a")

	if _, found := cache.Get("a"); found {
		t.Error("Expected 'a' to be deleted")
	}
	if _, found := cache.Get("b"); !found {
		t.Error("Expected 'b' to survive a single delete")
	}

	cache.Clear()
	if _, found := cache.Get("b"); found {
		t.Error("Expected 'b' to be gone after Clear")
	}
}

func TestCache_HitRate(t *testing.T) {
	cache := New(time.Minute)

	cache.Set("a", 1)
	cache.Get("a")
	cache.Get("a")
	cache.Get("missing")

	rate := cache.HitRate()
	want := 2.0 / 3.0 * 100.0
	if rate < want-0.01 || rate > want+0.01 {
		t.Errorf("HitRate() = %f, want %f", rate, want)
	}
}
