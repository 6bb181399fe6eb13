// Package cache wraps Redis behind a fail-open API: any Redis error degrades
// to a cache miss (or a no-op on writes) instead of failing the request.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a thin client over a single Redis connection pool.
type Cache struct {
	rdb *redis.Client
}

// New connects to Redis and verifies the connection. The returned client is
// safe for concurrent use and should be closed on shutdown.
func New(ctx context.Context, addr string) (*Cache, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("cache: ping %s: %w", addr, err)
	}
	return &Cache{rdb: rdb}, nil
}

func (c *Cache) Close() error {
	return c.rdb.Close()
}

// GetJSON loads key into dest. found is false on a miss, on a decode error,
// and on any Redis error.
func (c *Cache) GetJSON(ctx context.Context, key string, dest interface{}) (found bool) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("cache: get %s: %v", key, err)
		}
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		log.Printf("cache: decode %s: %v", key, err)
		return false
	}
	return true
}

// SetJSON stores value under key with the given TTL. Errors are logged only.
func (c *Cache) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	raw, err := json.Marshal(value)
	if err != nil {
		log.Printf("cache: encode %s: %v", key, err)
		return
	}
	if err := c.rdb.Set(ctx, key, raw, ttl).Err(); err != nil {
		log.Printf("cache: set %s: %v", key, err)
	}
}

// Delete removes keys. Errors are logged only.
func (c *Cache) Delete(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		log.Printf("cache: del %v: %v", keys, err)
	}
}

// DeletePattern removes every key matching pattern, scanning in batches so
// large keyspaces do not block Redis.
func (c *Cache) DeletePattern(ctx context.Context, pattern string) {
	iter := c.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		log.Printf("cache: scan %s: %v", pattern, err)
		return
	}
	c.Delete(ctx, keys...)
}

// IncrementDaily bumps a per-day analytics counter, e.g.
// stats:orders:20260828. Counters expire after seven days.
func (c *Cache) IncrementDaily(ctx context.Context, name string, n int64) {
	key := fmt.Sprintf("stats:%s:%s", name, time.Now().Format("20060102"))
	if err := c.rdb.IncrBy(ctx, key, n).Err(); err != nil {
		log.Printf("cache: incr %s: %v", key, err)
		return
	}
	c.rdb.Expire(ctx, key, 7*24*time.Hour)
}
