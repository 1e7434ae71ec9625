// Package redis provides the optional verified-address cache in front of the
// contract repository.
package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client wraps Redis operations for the verified-address cache.
type Client struct {
	rdb *redis.Client
}

// Config holds Redis connection configuration.
type Config struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
}

// NewClient creates a new Redis client.
func NewClient(cfg Config) (*Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

func verifiedKey(chainID uint64, addr string) string {
	return fmt.Sprintf("verified:%d:%s", chainID, strings.ToLower(addr))
}

// IsVerified reports whether an address is marked verified in the cache.
func (c *Client) IsVerified(ctx context.Context, chainID uint64, addr string) (bool, error) {
	_, err := c.rdb.Get(ctx, verifiedKey(chainID, addr)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get failed: %w", err)
	}
	return true, nil
}

// MarkVerified records an address as verified with a TTL. A zero TTL keeps
// the entry until evicted.
func (c *Client) MarkVerified(ctx context.Context, chainID uint64, addr string, ttl time.Duration) error {
	if err := c.rdb.Set(ctx, verifiedKey(chainID, addr), "1", ttl).Err(); err != nil {
		return fmt.Errorf("set failed: %w", err)
	}
	return nil
}
