package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jellydator/ttlcache/v3"
)

// Cache abstracts the Redis operations used by the use case to make testing easier.
// Get returns redis.Nil for a missing key.
type Cache interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string) (string, error)
}

// RedisCache is a concrete implementation backed by go-redis.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache constructs a new Redis-backed cache adapter.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Set writes a value to Redis.
func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return c.client.Set(ctx, key, value, expiration).Err()
}

// Get retrieves a cached value from Redis.
func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	return c.client.Get(ctx, key).Result()
}

// MemoryCache is an in-process Cache used when no Redis address is configured.
type MemoryCache struct {
	items *ttlcache.Cache[string, string]
}

// NewMemoryCache creates an empty in-process cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		items: ttlcache.New[string, string](ttlcache.WithDisableTouchOnHit[string, string]()),
	}
}

// Set stores value, formatted with %v, until expiration elapses. A zero
// expiration keeps the value forever.
func (c *MemoryCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	ttl := expiration
	if ttl <= 0 {
		ttl = ttlcache.NoTTL
	}
	c.items.DeleteExpired()
	c.items.Set(key, fmt.Sprint(value), ttl)
	return nil
}

// Get returns the value for key or redis.Nil.
func (c *MemoryCache) Get(_ context.Context, key string) (string, error) {
	item := c.items.Get(key)
	if item == nil || item.IsExpired() {
		return "", redis.Nil
	}
	return item.Value(), nil
}
