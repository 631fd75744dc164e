// Package cache provides the catalog browse cache.
//
// The cache only serves display reads; the checkout availability check
// always goes to the database, so stale entries are harmless.
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"clinipos/pkg/logger"
)

// Cache is a byte-oriented cache with TTL semantics.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	// InvalidatePrefix drops every key under the given prefix.
	InvalidatePrefix(ctx context.Context, prefix string)
}

// RedisCache implements Cache over a redis client.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects to redis and verifies the connection.
func NewRedisCache(ctx context.Context, addr string) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &RedisCache{client: client}, nil
}

// Get returns a cached value. Errors degrade to a miss.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Warn(ctx, "cache get failed", "key", key, "error", err)
		}
		return nil, false
	}
	return val, true
}

// Set stores a value with TTL. Errors are logged and swallowed.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		logger.Warn(ctx, "cache set failed", "key", key, "error", err)
	}
}

// InvalidatePrefix scans and deletes keys under a prefix.
func (c *RedisCache) InvalidatePrefix(ctx context.Context, prefix string) {
	iter := c.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		logger.Warn(ctx, "cache scan failed", "prefix", prefix, "error", err)
		return
	}
	if len(keys) > 0 {
		if err := c.client.Del(ctx, keys...).Err(); err != nil {
			logger.Warn(ctx, "cache invalidate failed", "prefix", prefix, "error", err)
		}
	}
}

// Close releases the redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Noop is the fallback when no redis address is configured.
type Noop struct{}

// NewNoop creates a cache that never hits.
func NewNoop() *Noop { return &Noop{} }

func (Noop) Get(ctx context.Context, key string) ([]byte, bool)                  { return nil, false }
func (Noop) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {}
func (Noop) InvalidatePrefix(ctx context.Context, prefix string)                 {}
