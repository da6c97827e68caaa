package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/sessionkit/core/session"
)

const (
	defaultCachePrefix = "sessionkit:cache:"
	defaultCacheTTL    = 10 * time.Minute
)

// Cache is a session.CacheHandler shared by every instance talking to the
// same Redis. Entries expire after the configured TTL.
type Cache struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithCachePrefix sets the key prefix.
func WithCachePrefix(prefix string) CacheOption {
	return func(c *Cache) {
		if prefix != "" {
			c.prefix = prefix
		}
	}
}

// WithCacheTTL sets the entry lifetime. Zero disables expiry.
func WithCacheTTL(ttl time.Duration) CacheOption {
	return func(c *Cache) {
		c.ttl = max(ttl, 0)
	}
}

// NewCache creates a Cache on client with a ten minute TTL.
func NewCache(client redis.UniversalClient, opts ...CacheOption) *Cache {
	c := &Cache{
		client: client,
		prefix: defaultCachePrefix,
		ttl:    defaultCacheTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) Get(ctx context.Context, key string) (*session.Session, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached session: %w", err)
	}

	sess := new(session.Session)
	if err := json.Unmarshal(data, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (c *Cache) Set(ctx context.Context, key string, sess *session.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := c.client.Set(ctx, c.prefix+key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache session: %w", err)
	}
	return nil
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.prefix+key).Err(); err != nil {
		return fmt.Errorf("failed to evict cached session: %w", err)
	}
	return nil
}
