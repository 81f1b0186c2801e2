package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/Ne4nf/TimoBank/configs"
)

// ErrCacheMiss is returned when a key is absent
var ErrCacheMiss = errors.New("cache miss")

// Client provides JSON value caching over Redis. A nil *Client is
// valid and behaves as an always-miss cache, so callers work unchanged
// when Redis is disabled.
type Client struct {
	rdb *redis.Client
}

// New creates a cache client and verifies connectivity. Returns a nil
// client without error when caching is disabled in config.
func New(cfg configs.RedisConfig) (*Client, error) {
	if !cfg.Enabled {
		log.Info().Msg("Cache disabled, running uncached")
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	opt.MaxRetries = cfg.MaxRetries

	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Info().Msg("Cache client initialized")
	return &Client{rdb: rdb}, nil
}

// Set stores a value as JSON with the given TTL
func (c *Client) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if c == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, data, ttl).Err()
}

// Get loads a JSON value into dest. Returns ErrCacheMiss when the key
// is absent or the client is nil.
func (c *Client) Get(ctx context.Context, key string, dest interface{}) error {
	if c == nil {
		return ErrCacheMiss
	}
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheMiss
		}
		return err
	}
	return json.Unmarshal(data, dest)
}

// Delete removes keys from the cache
func (c *Client) Delete(ctx context.Context, keys ...string) error {
	if c == nil {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

// HealthCheck pings Redis
func (c *Client) HealthCheck(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.rdb.Ping(ctx).Err()
}

// Close closes the underlying connection
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	return c.rdb.Close()
}
