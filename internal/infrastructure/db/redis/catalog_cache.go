package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultCatalogTTL = time.Hour

// CatalogCache stores raw country catalog payloads in Redis with a TTL.
type CatalogCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCatalogCache wraps the given Redis client. A non-positive ttl falls
// back to one hour.
func NewCatalogCache(client *redis.Client, ttl time.Duration) *CatalogCache {
	if ttl <= 0 {
		ttl = defaultCatalogTTL
	}
	return &CatalogCache{client: client, ttl: ttl}
}

// Get returns the cached payload for key and whether it was present.
func (c *CatalogCache) Get(ctx context.Context, key string) (json.RawMessage, bool, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("catalog cache get: %w", err)
	}
	return json.RawMessage(val), true, nil
}

// Set stores payload under key, expiring after the configured TTL.
func (c *CatalogCache) Set(ctx context.Context, key string, payload json.RawMessage) error {
	if err := c.client.Set(ctx, key, []byte(payload), c.ttl).Err(); err != nil {
		return fmt.Errorf("catalog cache set: %w", err)
	}
	return nil
}
