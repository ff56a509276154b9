package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// tokenBucketScript refills and consumes atomically. The hash holds the
// fractional token count and the last refill time in milliseconds; PEXPIRE
// forgets idle clients.
var tokenBucketScript = redis.NewScript(`
local capacity = tonumber(ARGV[1])
local rate = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local ttl = tonumber(ARGV[4])

local state = redis.call('HMGET', KEYS[1], 'tokens', 'last')
local tokens = tonumber(state[1])
local last = tonumber(state[2])
local allowed = 0

if tokens == nil or last == nil then
  tokens = capacity - 1
  allowed = 1
else
  local elapsed = math.max(0, now - last) / 1000
  tokens = math.min(capacity, tokens + elapsed * rate)
  if tokens >= 1 then
    tokens = tokens - 1
    allowed = 1
  end
end

redis.call('HSET', KEYS[1], 'tokens', tostring(tokens), 'last', now)
redis.call('PEXPIRE', KEYS[1], ttl)
return {allowed, tostring(tokens)}
`)

// RedisLimiter shares buckets between server instances through Redis. It
// runs the same algorithm as MemoryLimiter inside a Lua script. When Redis is
// unreachable the request is admitted and the error logged.
type RedisLimiter struct {
	client     redis.UniversalClient
	capacity   int
	refillRate float64
	opts       options
}

// NewRedisLimiter creates a limiter over an existing client.
func NewRedisLimiter(client redis.UniversalClient, capacity int, refillRate float64, opts ...Option) *RedisLimiter {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &RedisLimiter{
		client:     client,
		capacity:   capacity,
		refillRate: refillRate,
		opts:       o,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, Info) {
	now := l.opts.clock()

	allowed, tokens, err := l.eval(ctx, key, now.UnixMilli())
	if err != nil {
		slog.Error("Rate limiter backend unavailable, admitting request",
			"key", key,
			"error", err,
		)
		return true, newInfo(now, float64(l.capacity-1), l.capacity, l.refillRate, true)
	}
	return allowed, newInfo(now, tokens, l.capacity, l.refillRate, allowed)
}

func (l *RedisLimiter) eval(ctx context.Context, key string, nowMillis int64) (bool, float64, error) {
	res, err := tokenBucketScript.Run(ctx, l.client,
		[]string{l.opts.keyPrefix + key},
		l.capacity, l.refillRate, nowMillis, l.opts.idleTimeout.Milliseconds(),
	).Slice()
	if err != nil {
		return false, 0, fmt.Errorf("token bucket script: %w", err)
	}
	if len(res) != 2 {
		return false, 0, fmt.Errorf("token bucket script: unexpected reply %v", res)
	}

	flag, ok := res[0].(int64)
	if !ok {
		return false, 0, fmt.Errorf("token bucket script: unexpected allowed flag %T", res[0])
	}
	raw, ok := res[1].(string)
	if !ok {
		return false, 0, fmt.Errorf("token bucket script: unexpected token count %T", res[1])
	}
	tokens, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return false, 0, fmt.Errorf("token bucket script: parse tokens: %w", err)
	}
	return flag == 1, tokens, nil
}

// Close releases the Redis client.
func (l *RedisLimiter) Close() error {
	return l.client.Close()
}
