// Package redis holds the optional Redis-backed helpers of the realtime
// surface: connection presence and per-connection event rate limiting.
// The game state itself never lives in Redis.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config holds Redis connection configuration.
type Config struct {
	// URL is a redis:// or rediss:// URL.
	URL string

	// PoolSize is the maximum number of socket connections.
	PoolSize int

	// DialTimeout is the timeout for establishing new connections.
	DialTimeout time.Duration

	// KeyPrefix namespaces every key written by this process.
	KeyPrefix string
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	return Config{
		URL:         "redis://localhost:6379/0",
		PoolSize:    10,
		DialTimeout: 5 * time.Second,
		KeyPrefix:   "wikichallenge:",
	}
}

// ErrConnection is returned when Redis cannot be reached at startup.
var ErrConnection = errors.New("redis: connection failed")

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client wraps a go-redis client with the key namespace.
type Client struct {
	rdb    *redis.Client
	prefix string
}

// NewClient connects and pings Redis.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("redis: failed to parse URL: %w", err)
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}

	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, opts.DialTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}

	return &Client{rdb: rdb, prefix: cfg.KeyPrefix}, nil
}

// Ping checks if Redis is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close closes the connection pool.
func (c *Client) Close() error {
	return c.rdb.Close()
}

func (c *Client) key(parts ...string) string {
	k := c.prefix
	for i, p := range parts {
		if i > 0 {
			k += ":"
		}
		k += p
	}
	return k
}
