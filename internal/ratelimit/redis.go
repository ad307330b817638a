package ratelimit

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// slidingWindow keeps one sorted set per key, scored by request time in
// milliseconds. It returns {allowed, count, oldestMs}.
var slidingWindow = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local max = tonumber(ARGV[3])
redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)
if count >= max then
  local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
  local oldestMs = now
  if oldest[2] then oldestMs = tonumber(oldest[2]) end
  return {0, count, oldestMs}
end
redis.call('ZADD', key, now, ARGV[4])
redis.call('PEXPIRE', key, window)
return {1, count + 1, 0}
`)

// Redis is a sliding window limiter shared by every instance pointing at the
// same Redis. When Redis is unreachable the request is admitted and the
// failure logged.
type Redis struct {
	client  redis.Scripter
	prefix  string
	nowFunc func() time.Time
}

// NewRedis returns a limiter storing windows under prefix.
func NewRedis(client redis.Scripter, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix, nowFunc: time.Now}
}

func (r *Redis) Check(ctx context.Context, namespace, key string, limit Limit) Result {
	now := r.nowFunc()
	nowMs := now.UnixMilli()
	windowMs := limit.Window.Milliseconds()

	vals, err := slidingWindow.Run(ctx, r.client,
		[]string{r.prefix + scopedKey(namespace, key)},
		nowMs, windowMs, limit.MaxRequests, strconv.FormatInt(nowMs, 10)+"-"+uuid.NewString(),
	).Int64Slice()
	if err != nil || len(vals) != 3 {
		slog.Warn("rate limiter unavailable, admitting request", "namespace", namespace, "error", err)
		return Result{Allowed: true, Remaining: limit.MaxRequests}
	}

	if vals[0] == 0 {
		return Result{
			Allowed:           false,
			RetryAfterSeconds: retryAfter(time.UnixMilli(vals[2]), now, limit.Window),
		}
	}
	remaining := limit.MaxRequests - int(vals[1])
	if remaining < 0 {
		remaining = 0
	}
	return Result{Allowed: true, Remaining: remaining}
}
