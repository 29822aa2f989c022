// Package ratelimit is a fixed-window burst limiter shared through redis.
package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

var windowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {current, ttl}
`)

type Decision struct {
	Allowed   bool
	Count     int
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Limiter counts hits per key per window. A nil client or a redis failure
// allows the request; monthly quotas in Postgres stay authoritative.
type Limiter struct {
	client  *redis.Client
	window  time.Duration
	prefix  string
	timeout time.Duration
	onError func(error)
}

func New(client *redis.Client, window time.Duration) *Limiter {
	if window <= 0 {
		window = time.Minute
	}
	return &Limiter{
		client:  client,
		window:  window,
		prefix:  "burst:",
		timeout: 2 * time.Second,
	}
}

// OnError registers a hook for redis failures.
func (l *Limiter) OnError(fn func(error)) *Limiter {
	l.onError = fn
	return l
}

func (l *Limiter) Allow(ctx context.Context, key string, limit int) Decision {
	if limit <= 0 {
		limit = 1
	}
	open := Decision{Allowed: true, Limit: limit, Remaining: limit, ResetAt: time.Now().UTC().Add(l.window)}
	if l.client == nil {
		return open
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	vals, err := windowScript.Run(ctx, l.client, []string{l.prefix + key}, l.window.Milliseconds()).Int64Slice()
	if err != nil || len(vals) < 2 {
		if err != nil && l.onError != nil {
			l.onError(err)
		}
		return open
	}

	count, ttlMs := vals[0], vals[1]
	if ttlMs < 0 {
		ttlMs = l.window.Milliseconds()
	}
	return Decision{
		Allowed:   count <= int64(limit),
		Count:     int(count),
		Limit:     limit,
		Remaining: max(limit-int(count), 0),
		ResetAt:   time.Now().UTC().Add(time.Duration(ttlMs) * time.Millisecond),
	}
}
