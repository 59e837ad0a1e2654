package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"url-shortener/internal/metrics"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix  = "url:"
	DefaultTTL = time.Hour
)

// RedirectCache keeps short code to original URL mappings in redis.
type RedirectCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedirectCache wraps an existing client. A non-positive ttl falls back to DefaultTTL.
func NewRedirectCache(client *redis.Client, ttl time.Duration) *RedirectCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedirectCache{client: client, ttl: ttl}
}

// Connect parses a redis:// URL, opens a client and pings it.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// Get returns the cached URL for code. A miss is ("", false, nil).
func (c *RedirectCache) Get(ctx context.Context, code string) (string, bool, error) {
	res, err := c.client.Get(ctx, keyPrefix+code).Result()
	if errors.Is(err, redis.Nil) {
		metrics.CacheOperations.WithLabelValues("miss").Inc()
		return "", false, nil
	}
	if err != nil {
		metrics.CacheOperations.WithLabelValues("error").Inc()
		return "", false, err
	}
	metrics.CacheOperations.WithLabelValues("hit").Inc()
	return res, true, nil
}

// Set stores value under code, replacing any existing entry.
func (c *RedirectCache) Set(ctx context.Context, code, value string) error {
	return c.client.Set(ctx, keyPrefix+code, value, c.ttl).Err()
}

// SetNX stores value only if code has no entry and reports whether it did.
func (c *RedirectCache) SetNX(ctx context.Context, code, value string) (bool, error) {
	return c.client.SetNX(ctx, keyPrefix+code, value, c.ttl).Result()
}

// TTL reports how long entries live.
func (c *RedirectCache) TTL() time.Duration {
	return c.ttl
}
