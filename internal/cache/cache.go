// Package cache provides a Redis cache-aside layer for category lookups.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores JSON values under a key prefix. A nil client disables it.
type Cache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// New creates a cache. Passing a nil client yields a cache that always misses.
func New(client *redis.Client, prefix string, ttl time.Duration) *Cache {
	return &Cache{client: client, prefix: prefix, ttl: ttl}
}

// Connect parses a redis:// URL and pings the server.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// Enabled reports whether a Redis client is configured.
func (c *Cache) Enabled() bool {
	return c != nil && c.client != nil
}

// Get decodes the value under key into dest and reports a hit.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !c.Enabled() {
		return false, nil
	}

	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get error: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("cache unmarshal error: %w", err)
	}
	return true, nil
}

// Set stores value under key with the default TTL.
func (c *Cache) Set(ctx context.Context, key string, value interface{}) error {
	if !c.Enabled() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal error: %w", err)
	}
	if err := c.client.Set(ctx, c.prefix+key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set error: %w", err)
	}
	return nil
}

// Delete removes key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if !c.Enabled() {
		return nil
	}
	if err := c.client.Del(ctx, c.prefix+key).Err(); err != nil {
		return fmt.Errorf("cache delete error: %w", err)
	}
	return nil
}
