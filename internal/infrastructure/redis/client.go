// Package redis publishes asset events to a Redis Stream.
//
// Each entry carries the fields type, asset_id, data (the event JSON) and
// timestamp (Unix seconds). The stream is trimmed with an approximate
// MAXLEN so it cannot grow without bound.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/nerrad567/asset-registry/internal/infrastructure/config"
)

const defaultPingTimeout = 5 * time.Second

var (
	// ErrDisabled indicates the Redis sink is disabled in config.
	ErrDisabled = errors.New("redis: disabled in configuration")

	// ErrConnectionFailed indicates the initial ping failed.
	ErrConnectionFailed = errors.New("redis: connection failed")
)

// Client wraps a go-redis client bound to one stream.
type Client struct {
	rdb    *redis.Client
	stream string
	maxLen int64
}

// Connect creates the client and verifies the server answers PING.
func Connect(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	return &Client{rdb: rdb, stream: cfg.Stream, maxLen: cfg.MaxLen}, nil
}

// Stream returns the configured stream key.
func (c *Client) Stream() string {
	return c.stream
}

// AddToStream appends one entry and returns its ID.
func (c *Client) AddToStream(ctx context.Context, values map[string]any) (string, error) {
	args := &redis.XAddArgs{
		Stream: c.stream,
		Values: values,
	}
	if c.maxLen > 0 {
		args.MaxLen = c.maxLen
		args.Approx = true
	}

	id, err := c.rdb.XAdd(ctx, args).Result()
	if err != nil {
		return "", fmt.Errorf("xadd %s: %w", c.stream, err)
	}
	return id, nil
}

// HealthCheck pings the server.
func (c *Client) HealthCheck(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (c *Client) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
