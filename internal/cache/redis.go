package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache shares resolved results and media bodies between instances.
type RedisCache struct {
	client   *redis.Client
	prefix   string
	maxValue int
}

type RedisOptions struct {
	// Addr is host:port or a redis:// URL; a URL's password and db win over
	// the separate fields.
	Addr     string
	Password string
	DB       int
	Prefix   string
	MaxValue int
}

func NewRedisCache(opts RedisOptions) (*RedisCache, error) {
	addr := strings.TrimSpace(opts.Addr)
	ro := &redis.Options{Addr: addr, Password: opts.Password, DB: opts.DB}
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, err
		}
		ro = parsed
	}
	prefix := strings.TrimSpace(opts.Prefix)
	if prefix == "" {
		prefix = "fan_feed:"
	}
	return &RedisCache{client: redis.NewClient(ro), prefix: prefix, maxValue: opts.MaxValue}, nil
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// Set skips values over the size limit so large videos never land in redis.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if c.maxValue > 0 && len(value) > c.maxValue {
		return nil
	}
	return c.client.Set(ctx, c.prefix+key, value, ttl).Err()
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.prefix+key).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
