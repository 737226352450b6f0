// Harmonium - Music Library and Streaming Backend
// Copyright 2026 Harmonium contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harmonium-fm/harmonium

package cache

import (
	"sync"
	"time"
)

// lruEntry is a node in the LRU doubly-linked list.
type lruEntry struct {
	key       string
	value     interface{}
	prev      *lruEntry
	next      *lruEntry
	expiresAt time.Time
}

// LRUCache is a thread-safe, size-bounded least-recently-used cache with
// TTL support. It backs the per-user taste-profile cache, where the key
// space grows with the user population and must stay bounded.
//
// Get, Set and eviction are O(1): a doubly-linked list keeps recency
// order and a map provides lookup.
type LRUCache struct {
	mu sync.RWMutex

	capacity int
	ttl      time.Duration
	now      func() time.Time

	// items maps keys to list nodes; head.next is most recently used,
	// tail.prev is least recently used.
	items map[string]*lruEntry
	head  *lruEntry
	tail  *lruEntry

	hits   int64
	misses int64
}

// NewLRU creates an LRU cache with the given capacity and TTL.
func NewLRU(capacity int, ttl time.Duration) *LRUCache {
	return NewLRUWithClock(capacity, ttl, time.Now)
}

// NewLRUWithClock creates an LRU cache with an injected clock.
func NewLRUWithClock(capacity int, ttl time.Duration, now func() time.Time) *LRUCache {
	if capacity <= 0 {
		capacity = 10000
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if now == nil {
		now = time.Now
	}

	c := &LRUCache{
		capacity: capacity,
		ttl:      ttl,
		now:      now,
		items:    make(map[string]*lruEntry, capacity),
		head:     &lruEntry{},
		tail:     &lruEntry{},
	}
	c.head.next = c.tail
	c.tail.prev = c.head

	return c
}

// Get retrieves a value and marks it most recently used. Expired entries
// are removed lazily.
func (c *LRUCache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	node, ok := c.items[key]
	if !ok {
		c.misses++
		return nil, false
	}

	if c.now().After(node.expiresAt) {
		c.removeNode(node)
		delete(c.items, key)
		c.misses++
		return nil, false
	}

	c.moveToFront(node)
	c.hits++
	return node.value, true
}

// Set stores a value, evicting the least recently used entry when the
// cache is at capacity.
func (c *LRUCache) Set(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if node, ok := c.items[key]; ok {
		node.value = value
		node.expiresAt = c.now().Add(c.ttl)
		c.moveToFront(node)
		return
	}

	if len(c.items) >= c.capacity {
		lru := c.tail.prev
		if lru != c.head {
			c.removeNode(lru)
			delete(c.items, lru.key)
		}
	}

	node := &lruEntry{
		key:       key,
		value:     value,
		expiresAt: c.now().Add(c.ttl),
	}
	c.items[key] = node
	c.insertAtFront(node)
}

// Delete removes a key. No-op for missing keys.
func (c *LRUCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if node, ok := c.items[key]; ok {
		c.removeNode(node)
		delete(c.items, key)
	}
}

// Len returns the number of entries currently held, expired or not.
func (c *LRUCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// HitRate returns the cache hit rate as a percentage.
func (c *LRUCache) HitRate() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	total := c.hits + c.misses
	if total == 0 {
		return 0.0
	}
	return float64(c.hits) / float64(total) * 100.0
}

// removeNode unlinks a node from the list. Caller holds mu.
func (c *LRUCache) removeNode(node *lruEntry) {
	node.prev.next = node.next
	node.next.prev = node.prev
}

// insertAtFront links a node directly after head. Caller holds mu.
func (c *LRUCache) insertAtFront(node *lruEntry) {
	node.next = c.head.next
	node.prev = c.head
	c.head.next.prev = node
	c.head.next = node
}

// moveToFront marks a node most recently used. Caller holds mu.
func (c *LRUCache) moveToFront(node *lruEntry) {
	c.removeNode(node)
	c.insertAtFront(node)
}
