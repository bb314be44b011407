package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// GrantCache implements ports.GrantCache using Redis.
// A key is only ever written after the ledger row committed, so a hit is authoritative.
type GrantCache struct {
	client *goredis.Client
	prefix string
}

// NewGrantCache creates a new Redis-backed credit grant cache.
func NewGrantCache(client *goredis.Client) *GrantCache {
	return &GrantCache{
		client: client,
		prefix: "settled:credit:",
	}
}

// IsSettled reports whether the grant key was already settled.
func (c *GrantCache) IsSettled(ctx context.Context, grantKey string) (bool, error) {
	n, err := c.client.Exists(ctx, c.prefix+grantKey).Result()
	if err != nil {
		return false, fmt.Errorf("redis grant exists: %w", err)
	}
	return n == 1, nil
}

// MarkSettled records the grant key with a TTL.
func (c *GrantCache) MarkSettled(ctx context.Context, grantKey string, ttl time.Duration) error {
	err := c.client.Set(ctx, c.prefix+grantKey, time.Now().UTC().Format(time.RFC3339), ttl).Err()
	if err != nil {
		return fmt.Errorf("redis grant set: %w", err)
	}
	return nil
}
