package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// slidingWindow prunes, counts and records in one atomic script so that
// concurrent requests from the same identity across processes cannot
// overshoot the limit.
//
// KEYS[1] window sorted set; ARGV: now (us), window (us), limit, member.
// Returns {allowed, retry_after_us, remaining}.
var slidingWindow = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call("ZREMRANGEBYSCORE", key, "-inf", now - window)

local count = redis.call("ZCARD", key)
if count >= limit then
	local oldest = redis.call("ZRANGE", key, 0, 0, "WITHSCORES")
	local retry = tonumber(oldest[2]) + window - now
	return {0, retry, 0}
end

redis.call("ZADD", key, now, ARGV[4])
redis.call("PEXPIRE", key, math.ceil(window / 1000))
return {1, 0, limit - count - 1}
`)

// RedisStore is a Store backed by Redis sorted sets, for deployments where
// several gateway processes must share window state. Keys expire with the
// window, so idle identities cost nothing.
type RedisStore struct {
	rdb    *redis.Client
	rules  map[string]Rule
	prefix string
}

// RedisStoreOption customizes a RedisStore.
type RedisStoreOption func(*RedisStore)

// WithKeyPrefix overrides the default "mediagate:rl" key prefix.
func WithKeyPrefix(prefix string) RedisStoreOption {
	return func(s *RedisStore) { s.prefix = strings.Trim(prefix, ":") }
}

// NewRedisStore creates a RedisStore with per-route rules. Routes absent
// from the map are unlimited.
func NewRedisStore(rdb *redis.Client, rules map[string]Rule, opts ...RedisStoreOption) (*RedisStore, error) {
	if rdb == nil {
		return nil, fmt.Errorf("redis store: client is nil")
	}
	for route, rule := range rules {
		if err := rule.Validate(); err != nil {
			return nil, fmt.Errorf("route %q: %w", route, err)
		}
	}

	s := &RedisStore{
		rdb:    rdb,
		rules:  rules,
		prefix: "mediagate:rl",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Check implements Store. A Redis failure is surfaced to the caller; the
// decision returned alongside it admits the request, leaving fail-open
// versus fail-closed to the HTTP layer.
func (s *RedisStore) Check(ctx context.Context, identity, route string, now time.Time) (Decision, error) {
	rule, limited := s.rules[route]
	if !limited {
		return Decision{Allowed: true, Remaining: -1}, nil
	}

	key := fmt.Sprintf("%s:%s:%s", s.prefix, route, identity)

	res, err := slidingWindow.Run(ctx, s.rdb,
		[]string{key},
		now.UnixMicro(),
		rule.Window.Microseconds(),
		rule.Requests,
		uuid.NewString(),
	).Int64Slice()
	if err != nil {
		return Decision{Allowed: true, Remaining: -1}, fmt.Errorf("redis store: %w", err)
	}
	if len(res) != 3 {
		return Decision{Allowed: true, Remaining: -1}, fmt.Errorf("redis store: unexpected script reply %v", res)
	}

	if res[0] == 0 {
		return Decision{RetryAfter: time.Duration(res[1]) * time.Microsecond}, nil
	}
	return Decision{Allowed: true, Remaining: int(res[2])}, nil
}
