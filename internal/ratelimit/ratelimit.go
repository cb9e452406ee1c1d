// Package ratelimit guards submit_response against a single agent hammering
// the scheduler, using a Redis-backed token bucket so the limit holds
// across every API replica rather than per-process.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"mse-engine/internal/config"
)

// bucketScript refills and debits one token atomically: it recomputes the
// bucket's token count from elapsed time since the stored timestamp, then
// either admits (returns 1) or rejects (returns 0) the request.
var bucketScript = redis.NewScript(`
local key = KEYS[1]
local capacity = tonumber(ARGV[1])
local refill_per_sec = tonumber(ARGV[2])
local now = tonumber(ARGV[3])

local bucket = redis.call("HMGET", key, "tokens", "ts")
local tokens = tonumber(bucket[1])
local ts = tonumber(bucket[2])
if tokens == nil then
  tokens = capacity
  ts = now
end

local elapsed = math.max(0, now - ts)
tokens = math.min(capacity, tokens + elapsed * refill_per_sec)

local allowed = 0
if tokens >= 1 then
  tokens = tokens - 1
  allowed = 1
end

redis.call("HMSET", key, "tokens", tokens, "ts", now)
redis.call("EXPIRE", key, 3600)
return allowed
`)

// Limiter rate-limits per agent, backed by Redis so every API instance
// shares the same bucket.
type Limiter struct {
	rdb      *redis.Client
	capacity float64
	refill   float64 // tokens per second
	enabled  bool
}

// New builds a Limiter from config.RateLimitConfig, deriving a per-second
// refill rate from requests_per_minute.
func New(rdb *redis.Client, cfg config.RateLimitConfig) *Limiter {
	return &Limiter{
		rdb:      rdb,
		capacity: float64(cfg.BurstSize),
		refill:   float64(cfg.RequestsPerMin) / 60.0,
		enabled:  cfg.Enabled,
	}
}

// Allow reports whether agentID may proceed right now, consuming a token if so.
func (l *Limiter) Allow(ctx context.Context, agentID string) (bool, error) {
	if !l.enabled {
		return true, nil
	}
	key := fmt.Sprintf("ratelimit:%s", agentID)
	now := float64(time.Now().UnixNano()) / 1e9
	res, err := bucketScript.Run(ctx, l.rdb, []string{key}, l.capacity, l.refill, now).Int()
	if err != nil {
		return false, fmt.Errorf("ratelimit: %w", err)
	}
	return res == 1, nil
}
