// Copyright 2026 The Asistente Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package cache provides the bounded, time-windowed response cache that sits
// in front of classification and the generative backend. Entries are keyed by
// normalized query text and stamped with the knowledge base version that
// produced them; a version mismatch is a miss, so stale answers never outlive
// a knowledge reload.
package cache

import (
	"container/list"
	"sync"
	"time"

	"github.com/alertaciudadana/asistente/internal/classification"
)

const (
	// DefaultTTL is how long an entry stays valid without a knowledge reload.
	DefaultTTL = 10 * time.Minute

	// DefaultCapacity bounds the number of live entries before LRU eviction.
	DefaultCapacity = 1024
)

// Entry is one cached answer. HitCount is the only field mutated after
// creation, and only under the cache lock.
type Entry struct {
	Key       string
	Response  string
	Category  classification.Category
	Urgency   classification.UrgencyTier
	KBVersion uint64
	CreatedAt time.Time
	HitCount  int64

	element *list.Element
}

// Metrics tracks cache effectiveness for the stats endpoint.
type Metrics struct {
	Hits        int64 `json:"hits"`
	Misses      int64 `json:"misses"`
	Evictions   int64 `json:"evictions"`
	Expirations int64 `json:"expirations"`
	Size        int   `json:"size"`
}

// ResponseCache is an LRU cache with TTL expiry and knowledge-version
// validation. All operations are safe for concurrent use; a get/put race on
// the same key resolves last-writer-wins, which is acceptable because entries
// are idempotent derivations of the same (query, version) pair.
type ResponseCache struct {
	mu       sync.Mutex
	ttl      time.Duration
	capacity int
	entries  map[string]*Entry
	lru      *list.List
	metrics  Metrics

	// now is swappable in tests.
	now func() time.Time
}

// New creates a response cache. Non-positive ttl or capacity fall back to
// the package defaults.
func New(ttl time.Duration, capacity int) *ResponseCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &ResponseCache{
		ttl:      ttl,
		capacity: capacity,
		entries:  make(map[string]*Entry),
		lru:      list.New(),
		now:      time.Now,
	}
}

// Get returns the entry for key if it is live under kbVersion. Expired or
// version-mismatched entries are dropped and counted as misses. On a hit the
// entry moves to the front of the LRU list and its hit counter increments.
func (c *ResponseCache) Get(key string, kbVersion uint64) (*Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		c.metrics.Misses++
		return nil, false
	}

	if c.now().Sub(entry.CreatedAt) > c.ttl {
		c.removeLocked(entry)
		c.metrics.Expirations++
		c.metrics.Misses++
		return nil, false
	}

	if entry.KBVersion != kbVersion {
		// An answer computed against an older knowledge base is stale.
		c.removeLocked(entry)
		c.metrics.Misses++
		return nil, false
	}

	entry.HitCount++
	c.lru.MoveToFront(entry.element)
	c.metrics.Hits++

	snapshot := *entry
	snapshot.element = nil
	return &snapshot, true
}

// Put stores an entry, replacing any previous value for the same key and
// evicting the least recently used entry when over capacity.
func (c *ResponseCache) Put(entry *Entry) {
	if entry == nil || entry.Key == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if previous, ok := c.entries[entry.Key]; ok {
		c.removeLocked(previous)
	}

	for len(c.entries) >= c.capacity {
		c.evictLRULocked()
	}

	stored := *entry
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = c.now()
	}
	stored.element = c.lru.PushFront(&stored)
	c.entries[stored.Key] = &stored
	c.metrics.Size = len(c.entries)
}

// Len returns the current number of live entries.
func (c *ResponseCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Snapshot returns a copy of the current metrics.
func (c *ResponseCache) Snapshot() Metrics {
	c.mu.Lock()
	defer c.mu.Unlock()
	metrics := c.metrics
	metrics.Size = len(c.entries)
	return metrics
}

// HitRate returns hits over total lookups, 0 when nothing was looked up yet.
func (c *ResponseCache) HitRate() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := c.metrics.Hits + c.metrics.Misses
	if total == 0 {
		return 0
	}
	return float64(c.metrics.Hits) / float64(total)
}

// Clear drops every entry, keeping counters.
func (c *ResponseCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*Entry)
	c.lru = list.New()
	c.metrics.Size = 0
}

// removeLocked unlinks an entry from both the map and the LRU list.
// Must be called with the lock held.
func (c *ResponseCache) removeLocked(entry *Entry) {
	delete(c.entries, entry.Key)
	if entry.element != nil {
		c.lru.Remove(entry.element)
		entry.element = nil
	}
	c.metrics.Size = len(c.entries)
}

// evictLRULocked removes the least recently used entry.
// Must be called with the lock held.
func (c *ResponseCache) evictLRULocked() {
	oldest := c.lru.Back()
	if oldest == nil {
		return
	}
	c.removeLocked(oldest.Value.(*Entry))
	c.metrics.Evictions++
}
