// Copyright 2026 The Asistente Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package ratelimit implements per-user sliding-window admission control for
// the generative backend. Rejection never denies service: the orchestrator
// downgrades to knowledge-base answers, it does not fail the request.
package ratelimit

import (
	"hash/fnv"
	"sync"
	"time"
)

const (
	// DefaultLimit is the number of admissions per user per window.
	DefaultLimit = 8

	// DefaultWindow is the rolling window the limit applies to.
	DefaultWindow = time.Minute

	// DefaultIdleTTL is how long an untouched bucket survives before the
	// janitor discards it to bound memory.
	DefaultIdleTTL = 15 * time.Minute

	// shardCount spreads buckets over independent locks so concurrent users
	// rarely contend. Must be a power of two.
	shardCount = 16
)

// bucket holds one user's admission timestamps, sorted ascending. Entries
// older than the window are pruned before every admission check.
type bucket struct {
	times    []time.Time
	lastSeen time.Time
}

type shard struct {
	mu      sync.Mutex
	buckets map[string]*bucket
}

// Stats is a point-in-time summary for the stats endpoint.
type Stats struct {
	Limit         int           `json:"limit"`
	Window        time.Duration `json:"window"`
	ActiveBuckets int           `json:"active_buckets"`
	Admitted      int64         `json:"admitted"`
	Rejected      int64         `json:"rejected"`
}

// Limiter is a sharded sliding-window rate limiter keyed by user ID.
type Limiter struct {
	limit   int
	window  time.Duration
	idleTTL time.Duration

	shards [shardCount]*shard

	statsMu  sync.Mutex
	admitted int64
	rejected int64

	janitorStop chan struct{}
	janitorOnce sync.Once
}

// New creates a limiter. Non-positive parameters fall back to the package
// defaults.
func New(limit int, window, idleTTL time.Duration) *Limiter {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}
	if idleTTL <= 0 {
		idleTTL = DefaultIdleTTL
	}

	l := &Limiter{
		limit:       limit,
		window:      window,
		idleTTL:     idleTTL,
		janitorStop: make(chan struct{}),
	}
	for i := range l.shards {
		l.shards[i] = &shard{buckets: make(map[string]*bucket)}
	}
	return l
}

// Admit reports whether userID may invoke the generative backend at time
// now, recording the admission when allowed. Buckets are created lazily on
// first sight of a user.
func (l *Limiter) Admit(userID string, now time.Time) bool {
	s := l.shardFor(userID)
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buckets[userID]
	if !ok {
		b = &bucket{}
		s.buckets[userID] = b
	}
	b.lastSeen = now
	b.prune(now, l.window)

	if len(b.times) >= l.limit {
		l.count(false)
		return false
	}

	b.times = append(b.times, now)
	l.count(true)
	return true
}

// Remaining reports how many admissions userID has left in the current
// window without consuming one.
func (l *Limiter) Remaining(userID string, now time.Time) int {
	s := l.shardFor(userID)
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buckets[userID]
	if !ok {
		return l.limit
	}
	b.prune(now, l.window)

	remaining := l.limit - len(b.times)
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

// StartJanitor launches the background loop that discards idle buckets.
// Calling it more than once is a no-op.
func (l *Limiter) StartJanitor() {
	l.janitorOnce.Do(func() {
		go l.janitor()
	})
}

// Stop terminates the janitor. Safe to call without StartJanitor.
func (l *Limiter) Stop() {
	select {
	case <-l.janitorStop:
	default:
		close(l.janitorStop)
	}
}

// Snapshot returns current limiter statistics.
func (l *Limiter) Snapshot() Stats {
	active := 0
	for _, s := range l.shards {
		s.mu.Lock()
		active += len(s.buckets)
		s.mu.Unlock()
	}

	l.statsMu.Lock()
	defer l.statsMu.Unlock()
	return Stats{
		Limit:         l.limit,
		Window:        l.window,
		ActiveBuckets: active,
		Admitted:      l.admitted,
		Rejected:      l.rejected,
	}
}

func (l *Limiter) janitor() {
	ticker := time.NewTicker(l.idleTTL / 2)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			l.sweepIdle(now)
		case <-l.janitorStop:
			return
		}
	}
}

// sweepIdle drops buckets that have not been touched within idleTTL.
func (l *Limiter) sweepIdle(now time.Time) {
	cutoff := now.Add(-l.idleTTL)
	for _, s := range l.shards {
		s.mu.Lock()
		for id, b := range s.buckets {
			if b.lastSeen.Before(cutoff) {
				delete(s.buckets, id)
			}
		}
		s.mu.Unlock()
	}
}

func (l *Limiter) shardFor(userID string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return l.shards[h.Sum32()&(shardCount-1)]
}

func (l *Limiter) count(admitted bool) {
	l.statsMu.Lock()
	defer l.statsMu.Unlock()
	if admitted {
		l.admitted++
	} else {
		l.rejected++
	}
}

// prune removes timestamps older than window, preserving ascending order.
func (b *bucket) prune(now time.Time, window time.Duration) {
	cutoff := now.Add(-window)
	i := 0
	for i < len(b.times) && !b.times[i].After(cutoff) {
		i++
	}
	if i > 0 {
		b.times = append(b.times[:0], b.times[i:]...)
	}
}
