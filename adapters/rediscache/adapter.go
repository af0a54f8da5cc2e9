// Package rediscache provides a Redis-backed session mirror for deployments
// where the session slot must survive process restarts or be shared between
// instances.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	identity "github.com/qiesto/go-identity"
)

const defaultKey = "identity:session"

// Cache stores the session mirror as a JSON blob under a single key.
type Cache struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// Option customizes the cache.
type Option func(*Cache)

// New creates a Redis-backed session cache.
func New(client *redis.Client, opts ...Option) *Cache {
	c := &Cache{
		client: client,
		key:    defaultKey,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// WithKey overrides the Redis key holding the session.
func WithKey(key string) Option {
	return func(c *Cache) {
		if key != "" {
			c.key = key
		}
	}
}

// WithTTL sets an expiration on the stored session. Zero means no expiry;
// the token inside still carries its own expiration either way.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		c.ttl = ttl
	}
}

func (c *Cache) Load(ctx context.Context) (*identity.StoredSession, error) {
	raw, err := c.client.Get(ctx, c.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	stored := &identity.StoredSession{}
	if err := json.Unmarshal(raw, stored); err != nil {
		// A corrupt mirror is equivalent to an empty one.
		_ = c.client.Del(ctx, c.key).Err()
		return nil, nil
	}

	return stored, nil
}

func (c *Cache) Store(ctx context.Context, s *identity.StoredSession) error {
	if s == nil {
		return c.Clear(ctx)
	}

	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, c.key, raw, c.ttl).Err()
}

func (c *Cache) Clear(ctx context.Context) error {
	return c.client.Del(ctx, c.key).Err()
}

var _ identity.SessionCache = (*Cache)(nil)
