// Package ratelimit provides per-client admission control for HTTP requests
// using the token bucket algorithm. Each client starts with a full bucket of
// Capacity tokens that refills continuously at RefillRate tokens per second;
// a request is admitted when at least one whole token is available.
package ratelimit

import (
	"context"
	"math"
	"time"
)

// Limiter defines the rate limiting contract. Implementations must be safe for
// concurrent use.
type Limiter interface {
	// Allow checks whether a request identified by key should be admitted and
	// consumes one token if so. A denied request consumes nothing.
	Allow(ctx context.Context, key string) (allowed bool, info Info)

	// Close stops background goroutines and releases resources.
	Close() error
}

// Info contains rate limit state for populating response headers.
type Info struct {
	Limit        int           // Bucket capacity
	Remaining    int           // Whole tokens left after the decision
	ResetSeconds int           // Seconds until the next whole token, 0 when full
	ResetAt      time.Time     // Now plus ResetSeconds
	RetryAfter   time.Duration // Meaningful only when denied
}

// Clock returns the current time. Tests inject a fake one.
type Clock func() time.Time

// Option configures a limiter.
type Option func(*options)

type options struct {
	clock           Clock
	idleTimeout     time.Duration
	cleanupInterval time.Duration
	keyPrefix       string
}

const (
	DefaultIdleTimeout     = 5 * time.Minute
	DefaultCleanupInterval = time.Minute
)

func defaultOptions() options {
	return options{
		clock:           time.Now,
		idleTimeout:     DefaultIdleTimeout,
		cleanupInterval: DefaultCleanupInterval,
		keyPrefix:       "ratelimit:",
	}
}

// WithClock overrides the time source.
func WithClock(clock Clock) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithIdleTimeout sets how long a client may stay silent before its bucket
// is forgotten.
func WithIdleTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.idleTimeout = d
		}
	}
}

// WithCleanupInterval sets the period of the idle sweep. Ignored by the
// Redis backend, which relies on key expiry.
func WithCleanupInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.cleanupInterval = d
		}
	}
}

// WithKeyPrefix namespaces Redis keys.
func WithKeyPrefix(prefix string) Option {
	return func(o *options) {
		o.keyPrefix = prefix
	}
}

// resetSeconds is the wait until one whole token is available. A full bucket
// reports 0, and the result is never negative.
func resetSeconds(tokens float64, capacity int, refillRate float64) int {
	if tokens >= float64(capacity) {
		return 0
	}
	secs := math.Ceil((1 - tokens) / refillRate)
	if secs < 0 {
		return 0
	}
	return int(secs)
}

func newInfo(now time.Time, tokens float64, capacity int, refillRate float64, allowed bool) Info {
	reset := resetSeconds(tokens, capacity, refillRate)
	info := Info{
		Limit:        capacity,
		Remaining:    int(math.Max(0, math.Floor(tokens))),
		ResetSeconds: reset,
		ResetAt:      now.Add(time.Duration(reset) * time.Second),
	}
	if !allowed {
		info.RetryAfter = time.Duration(reset) * time.Second
	}
	return info
}
