package cache

import (
	"context"
	"time"

	"fan-feed-go/internal/config"
	"fan-feed-go/internal/logger"
)

// NewFromConfig picks the backend named by CACHE_BACKEND. An unreachable
// redis degrades to the in-process cache; "none" disables caching.
func NewFromConfig(cfg config.Config) Cache {
	maxValue := cfg.CacheMaxValueKB << 10
	memory := func() Cache {
		return NewMemoryCache(cfg.CacheMaxMemoryMB<<20, maxValue)
	}

	switch cfg.CacheBackend {
	case "", "memory":
		return memory()
	case "none", "disabled", "off":
		return nil
	case "redis":
	default:
		logger.Warn("unknown cache backend, using memory", "backend", cfg.CacheBackend)
		return memory()
	}

	if cfg.RedisAddr == "" {
		logger.Warn("redis cache selected without REDIS_ADDR, using memory")
		return memory()
	}
	rc, err := NewRedisCache(RedisOptions{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		Prefix:   cfg.RedisKeyPrefix,
		MaxValue: maxValue,
	})
	if err == nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err = rc.Ping(ctx)
		cancel()
		if err != nil {
			_ = rc.Close()
		}
	}
	if err != nil {
		logger.Warn("redis cache unavailable, using memory", "err", err)
		return memory()
	}
	logger.Info("redis cache connected", "db", cfg.RedisDB)
	return rc
}
