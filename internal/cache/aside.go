package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// GetJSON loads the value stored under key into dest. Returns false on a miss
// or when the cache is unavailable.
func GetJSON(ctx context.Context, key string, dest any) bool {
	if client == nil {
		return false
	}
	raw, err := client.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		// Stale or corrupt payload; drop it.
		client.Del(ctx, key)
		return false
	}
	return true
}

// SetJSON stores value under key with the given TTL. Failures are ignored:
// the cache is best-effort.
func SetJSON(ctx context.Context, key string, value any, ttl time.Duration) {
	if client == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	client.Set(ctx, key, raw, ttl)
}

// Aside implements cache-aside for a pointer destination: fill dest from the
// cache, or run load (which must populate dest) and cache the result.
func Aside(ctx context.Context, key string, dest any, ttl time.Duration, load func() error) error {
	if GetJSON(ctx, key, dest) {
		return nil
	}
	if err := load(); err != nil {
		return err
	}
	SetJSON(ctx, key, dest, ttl)
	return nil
}

// GetOrLoadJSON implements cache-aside: return the cached value under key, or
// invoke load, cache its result, and return it.
func GetOrLoadJSON[T any](ctx context.Context, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	var value T
	if GetJSON(ctx, key, &value) {
		return value, nil
	}

	value, err := load(ctx)
	if err != nil {
		return value, err
	}
	SetJSON(ctx, key, value, ttl)
	return value, nil
}

// Available reports whether a Redis client is configured and reachable enough
// to attempt commands.
func Available(ctx context.Context) bool {
	if client == nil {
		return false
	}
	err := client.Ping(ctx).Err()
	return err == nil || errors.Is(err, redis.Nil)
}
