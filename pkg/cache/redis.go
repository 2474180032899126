package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"kitchen-service/pkg/config"

	"github.com/redis/go-redis/v9"
)

// Cache stores JSON encoded values under string keys
type Cache interface {
	Get(ctx context.Context, key string, dst interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}) error
	Delete(ctx context.Context, keys ...string) error
	Incr(ctx context.Context, key string) (int64, error)
	Ping(ctx context.Context) error
}

// ProductGenerationKey holds a counter that is bumped whenever a tenant's
// product listing changes. It has no TTL.
func ProductGenerationKey(tenantID uint) string {
	return fmt.Sprintf("products:tenant:%d:generation", tenantID)
}

// ProductListKey is the key holding a tenant's enriched product listing for
// one generation. Listings of older generations are never read again and
// expire with the TTL.
func ProductListKey(tenantID uint, generation int64) string {
	return fmt.Sprintf("products:tenant:%d:v%d", tenantID, generation)
}

// InitRedis connects to Redis and verifies the connection
func InitRedis(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return client, nil
}

// RedisCache is a Cache backed by go-redis
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache wraps client; entries expire after ttl
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// Get decodes the value stored at key into dst. It reports false on a miss.
func (c *RedisCache) Get(ctx context.Context, key string, dst interface{}) (bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode cached %s: %w", key, err)
	}
	return true, nil
}

// Set stores value at key with the configured TTL
func (c *RedisCache) Set(ctx context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, raw, c.ttl).Err()
}

// Delete removes keys
func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

// Incr atomically increments the integer at key and returns the new value
func (c *RedisCache) Incr(ctx context.Context, key string) (int64, error) {
	return c.client.Incr(ctx, key).Result()
}

// Ping checks the Redis connection
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// NopCache never stores anything. Used when Redis is not configured.
type NopCache struct{}

func (NopCache) Get(context.Context, string, interface{}) (bool, error) { return false, nil }
func (NopCache) Set(context.Context, string, interface{}) error         { return nil }
func (NopCache) Delete(context.Context, ...string) error                { return nil }
func (NopCache) Incr(context.Context, string) (int64, error)            { return 0, nil }
func (NopCache) Ping(context.Context) error                             { return nil }
