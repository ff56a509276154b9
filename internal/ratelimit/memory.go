package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/time/rate"
)

const shardCount = 64

// entry holds a token bucket and its last access time for cleanup.
type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type shard struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// MemoryLimiter is an in-memory rate limiter backed by golang.org/x/time/rate.
// Each unique key gets its own token bucket, created full on first sight.
// Buckets are spread over shards by key hash so that clients in different
// shards never contend. A background goroutine evicts buckets idle for longer
// than the idle timeout.
type MemoryLimiter struct {
	capacity   int
	refillRate float64
	opts       options

	shards [shardCount]shard

	mu     sync.Mutex
	done   chan struct{}
	closed bool
}

// NewMemoryLimiter creates a limiter with the given bucket capacity and refill
// rate in tokens per second. It starts a background goroutine for eviction.
func NewMemoryLimiter(capacity int, refillRate float64, opts ...Option) *MemoryLimiter {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	m := &MemoryLimiter{
		capacity:   capacity,
		refillRate: refillRate,
		opts:       o,
		done:       make(chan struct{}),
	}
	for i := range m.shards {
		m.shards[i].entries = make(map[string]*entry)
	}
	go m.cleanup()
	return m
}

func (m *MemoryLimiter) shardFor(key string) *shard {
	return &m.shards[xxhash.Sum64String(key)%shardCount]
}

// Allow checks whether a request from the given key should be admitted.
func (m *MemoryLimiter) Allow(_ context.Context, key string) (bool, Info) {
	s := m.shardFor(key)
	now := m.opts.clock()

	s.mu.Lock()
	e, exists := s.entries[key]
	if !exists {
		e = &entry{
			limiter: rate.NewLimiter(rate.Limit(m.refillRate), m.capacity),
		}
		s.entries[key] = e
	}
	e.lastSeen = now
	allowed := e.limiter.AllowN(now, 1)
	tokens := e.limiter.TokensAt(now)
	s.mu.Unlock()

	return allowed, newInfo(now, tokens, m.capacity, m.refillRate, allowed)
}

// Len returns the number of tracked clients.
func (m *MemoryLimiter) Len() int {
	n := 0
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.Lock()
		n += len(s.entries)
		s.mu.Unlock()
	}
	return n
}

// Close stops the background cleanup goroutine. It is safe to call twice.
func (m *MemoryLimiter) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.done)
	}
	return nil
}

func (m *MemoryLimiter) cleanup() {
	ticker := time.NewTicker(m.opts.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.evictStale()
		}
	}
}

// evictStale removes buckets not touched within the idle timeout and returns
// how many were dropped.
func (m *MemoryLimiter) evictStale() int {
	cutoff := m.opts.clock().Add(-m.opts.idleTimeout)
	evicted := 0
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.Lock()
		for key, e := range s.entries {
			if e.lastSeen.Before(cutoff) {
				delete(s.entries, key)
				evicted++
			}
		}
		s.mu.Unlock()
	}
	return evicted
}
