package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store on Redis.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

// fixedWindowScript atomically reads, bounds and increments a window counter.
// KEYS[1] = counter key
// ARGV[1] = ceiling
// ARGV[2] = window in milliseconds
// Returns: [count, 1=admitted/0=rejected]
var fixedWindowScript = redis.NewScript(`
local key = KEYS[1]
local ceiling = tonumber(ARGV[1])
local window_ms = tonumber(ARGV[2])

local current = tonumber(redis.call('GET', key) or '0')
if current >= ceiling then
    return {current, 0}
end

current = redis.call('INCR', key)
if redis.call('PTTL', key) < 0 then
    redis.call('PEXPIRE', key, window_ms)
end
return {current, 1}
`)

func (s *RedisStore) IncrementWithWindow(ctx context.Context, key string, ceiling int64, window time.Duration) (Counter, error) {
	res, err := fixedWindowScript.Run(ctx, s.rdb, []string{key}, ceiling, window.Milliseconds()).Int64Slice()
	if err != nil {
		return Counter{}, fmt.Errorf("increment %s: %w", key, err)
	}
	if len(res) != 2 {
		return Counter{}, fmt.Errorf("increment %s: unexpected script result %v", key, res)
	}
	return Counter{Count: res[0], Admitted: res[1] == 1}, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return data, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Ping checks connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}
