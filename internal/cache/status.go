// Package cache keeps image statuses in Redis so status polling does not hit
// the document store.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dharsanguruparan/PixelDrop/internal/model"
)

const statusKeyPrefix = "image:status:"

// ErrMiss is returned by Get when no status is cached for the hash.
var ErrMiss = errors.New("cache miss")

// StatusCache stores terminal image statuses. Processing is never cached
// because it changes without the API seeing it.
type StatusCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStatusCache wraps a redis client.
func NewStatusCache(client *redis.Client, ttl time.Duration) *StatusCache {
	return &StatusCache{client: client, ttl: ttl}
}

// Connect opens a redis client and pings it.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// Get returns the cached status, or ErrMiss.
func (c *StatusCache) Get(ctx context.Context, hash string) (model.ImageStatus, error) {
	val, err := c.client.Get(ctx, statusKeyPrefix+hash).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrMiss
		}
		return "", fmt.Errorf("get status: %w", err)
	}
	return model.ImageStatus(val), nil
}

// Set caches status when it is terminal and ignores it otherwise.
func (c *StatusCache) Set(ctx context.Context, hash string, status model.ImageStatus) error {
	if !status.Terminal() {
		return nil
	}
	if err := c.client.Set(ctx, statusKeyPrefix+hash, string(status), c.ttl).Err(); err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	return nil
}

// Delete drops the cached status.
func (c *StatusCache) Delete(ctx context.Context, hash string) error {
	if err := c.client.Del(ctx, statusKeyPrefix+hash).Err(); err != nil {
		return fmt.Errorf("delete status: %w", err)
	}
	return nil
}
