package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// RateLimiter throttles event producers using a fixed-window counter in
// redis. Keys: ratelimit:{identity}:append with the window as TTL.
type RateLimiter struct {
	client *goredis.Client
	limit  int
	window time.Duration
}

// RateLimitResult contains the result of a rate limit check.
type RateLimitResult struct {
	Allowed   bool
	Remaining int
	ResetIn   time.Duration
	Limit     int
}

func NewRateLimiter(client *goredis.Client, limit int, window time.Duration) *RateLimiter {
	if limit <= 0 {
		limit = 120
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{client: client, limit: limit, window: window}
}

// AllowAppend checks whether the identity may append another event.
func (r *RateLimiter) AllowAppend(ctx context.Context, identity string) (*RateLimitResult, error) {
	key := fmt.Sprintf("ratelimit:%s:append", identity)
	return r.checkLimit(ctx, key, r.limit, r.window)
}

// checkLimit performs the atomic increment-and-check.
func (r *RateLimiter) checkLimit(ctx context.Context, key string, limit int, window time.Duration) (*RateLimitResult, error) {
	script := goredis.NewScript(`
		local key = KEYS[1]
		local limit = tonumber(ARGV[1])
		local window = tonumber(ARGV[2])

		local current = redis.call('INCR', key)
		if current == 1 then
			redis.call('EXPIRE', key, window)
		end
		local ttl = redis.call('TTL', key)
		return {current, ttl}
	`)

	res, err := script.Run(ctx, r.client, []string{key}, limit, int(window.Seconds())).Slice()
	if err != nil {
		return nil, err
	}
	current, _ := res[0].(int64)
	ttl, _ := res[1].(int64)

	remaining := limit - int(current)
	if remaining < 0 {
		remaining = 0
	}
	return &RateLimitResult{
		Allowed:   int(current) <= limit,
		Remaining: remaining,
		ResetIn:   time.Duration(ttl) * time.Second,
		Limit:     limit,
	}, nil
}
