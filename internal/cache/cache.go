// Package cache keeps paginated user-list responses in Redis so the admin
// listing does not hit the database on every page view. Any user mutation
// drops every cached page; a page missing from Redis is simply a miss.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const userListPrefix = "users:list:"

type ListCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewListCache(client *redis.Client, ttl time.Duration) *ListCache {
	return &ListCache{client: client, ttl: ttl}
}

// NewRedisClient connects to Redis and verifies the connection.
func NewRedisClient(addr, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		slog.Error("redis connection failed", "address", addr, "error", err)
		return nil, err
	}

	slog.Info("redis connected", "address", addr)
	return rdb, nil
}

func pageKey(page, perPage int) string {
	return fmt.Sprintf("%s%d:%d", userListPrefix, page, perPage)
}

// GetUserPage loads a cached list page into dest. The bool reports a hit.
func (c *ListCache) GetUserPage(ctx context.Context, page, perPage int, dest interface{}) (bool, error) {
	data, err := c.client.Get(ctx, pageKey(page, perPage)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cached page: %w", err)
	}
	return true, nil
}

// SetUserPage stores a list page with the configured TTL.
func (c *ListCache) SetUserPage(ctx context.Context, page, perPage int, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal page: %w", err)
	}
	return c.client.Set(ctx, pageKey(page, perPage), data, c.ttl).Err()
}

// DropUserPages deletes every cached list page.
func (c *ListCache) DropUserPages(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, userListPrefix+"*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}
