package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/ad-insights/internal/pkg/logger"
)

// multiWindowScript checks both windows before incrementing either so a
// denied call never consumes quota.
const multiWindowScript = `
local minuteKey = KEYS[1]
local hourKey = KEYS[2]
local increment = tonumber(ARGV[1])
local minuteLimit = tonumber(ARGV[2])
local hourLimit = tonumber(ARGV[3])

local minCurrent = tonumber(redis.call("GET", minuteKey) or "0")
local hourCurrent = tonumber(redis.call("GET", hourKey) or "0")

if minuteLimit > 0 and minCurrent + increment > minuteLimit then
    return {0, 1}
end
if hourLimit > 0 and hourCurrent + increment > hourLimit then
    return {0, 2}
end

if redis.call("INCRBY", minuteKey, increment) == increment then
    redis.call("EXPIRE", minuteKey, 120)
end
if redis.call("INCRBY", hourKey, increment) == increment then
    redis.call("EXPIRE", hourKey, 7200)
end
return {1, 0}
`

// RateLimiter enforces per-minute and per-hour call budgets shared by
// every process talking to the same Redis.
type RateLimiter struct {
	redis     *redis.Client
	script    *redis.Script
	name      string
	perMinute int
	perHour   int
	now       func() time.Time
}

// NewRateLimiter creates a limiter for the named API. A zero limit
// disables that window.
func NewRateLimiter(client *redis.Client, name string, perMinute, perHour int) *RateLimiter {
	return &RateLimiter{
		redis:     client,
		script:    redis.NewScript(multiWindowScript),
		name:      name,
		perMinute: perMinute,
		perHour:   perHour,
		now:       time.Now,
	}
}

// CheckAndIncrement consumes one call if both windows allow it. When
// denied, wait is how long until the exhausted window rolls over.
func (r *RateLimiter) CheckAndIncrement(ctx context.Context) (allowed bool, wait time.Duration, err error) {
	now := r.now()
	minuteKey := fmt.Sprintf("ratelimit:%s:min:%d", r.name, now.Unix()/60)
	hourKey := fmt.Sprintf("ratelimit:%s:hour:%d", r.name, now.Unix()/3600)

	result, err := r.script.Run(ctx, r.redis, []string{minuteKey, hourKey}, 1, r.perMinute, r.perHour).Slice()
	if err != nil {
		return false, 0, fmt.Errorf("rate limit check failed: %w", err)
	}
	if result[0].(int64) == 1 {
		return true, 0, nil
	}
	switch result[1].(int64) {
	case 1:
		wait = time.Duration(60-now.Unix()%60) * time.Second
	default:
		wait = time.Duration(3600-now.Unix()%3600) * time.Second
	}
	return false, wait, nil
}

// Wait blocks until a call is allowed or ctx ends. A Redis failure lets
// the call through rather than stalling collection.
func (r *RateLimiter) Wait(ctx context.Context) error {
	for {
		allowed, wait, err := r.CheckAndIncrement(ctx)
		if err != nil {
			logger.Warn("[RateLimiter] check failed, allowing call", "api", r.name, "error", err)
			return nil
		}
		if allowed {
			return nil
		}
		logger.Info("[RateLimiter] budget exhausted, waiting", "api", r.name, "wait", wait.String())
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}

// Usage returns the calls counted in the current windows.
func (r *RateLimiter) Usage(ctx context.Context) (map[string]int64, error) {
	now := r.now()
	pipe := r.redis.Pipeline()
	minCmd := pipe.Get(ctx, fmt.Sprintf("ratelimit:%s:min:%d", r.name, now.Unix()/60))
	hourCmd := pipe.Get(ctx, fmt.Sprintf("ratelimit:%s:hour:%d", r.name, now.Unix()/3600))
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("reading usage: %w", err)
	}
	minute, _ := minCmd.Int64()
	hour, _ := hourCmd.Int64()
	return map[string]int64{
		"minute_current": minute,
		"minute_limit":   int64(r.perMinute),
		"hour_current":   hour,
		"hour_limit":     int64(r.perHour),
	}, nil
}
