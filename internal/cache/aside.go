package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"vidnest/internal/observability"

	"github.com/redis/go-redis/v9"
)

// GetJSON attempts to get the key from Redis and unmarshal into dest.
// Returns (true, nil) if found and unmarshaled, (false, nil) if not found.
func GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	c := GetClient()
	if c == nil {
		return false, nil
	}
	s, err := c.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(s), dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON marshals v and sets the key with TTL.
func SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	c := GetClient()
	if c == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, b, ttl).Err()
}

// Aside tries Redis first; on a miss it calls fetch, which must populate dest,
// then stores dest with ttl. Redis failures degrade to calling fetch.
func Aside(ctx context.Context, name, key string, dest any, ttl time.Duration, fetch func() error) error {
	found, err := GetJSON(ctx, key, dest)
	switch {
	case err != nil:
		observability.CacheLookups.WithLabelValues(name, "error").Inc()
	case found:
		observability.CacheLookups.WithLabelValues(name, "hit").Inc()
		return nil
	default:
		observability.CacheLookups.WithLabelValues(name, "miss").Inc()
	}

	if err := fetch(); err != nil {
		return err
	}

	_ = SetJSON(ctx, key, dest, ttl)
	return nil
}

// Invalidate removes key; a missing client is a no-op.
func Invalidate(ctx context.Context, key string) {
	if c := GetClient(); c != nil {
		c.Del(ctx, key)
	}
}
