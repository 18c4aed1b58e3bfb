package cascade

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"strings"
	"time"

	"fan-feed-go/internal/cache"
	"fan-feed-go/internal/logger"
	"fan-feed-go/internal/model"
	"fan-feed-go/internal/scrape"

	"golang.org/x/sync/singleflight"
)

type Runner interface {
	Run(ctx context.Context, in Input) Result
}

// sharedRunTimeout bounds a collapsed run, which no longer follows any one
// caller's context.
const sharedRunTimeout = 2 * time.Minute

// Cached remembers successful automatic results and collapses identical
// concurrent runs into one.
type Cached struct {
	next  Runner
	cache cache.Cache
	ttl   time.Duration
	group singleflight.Group
}

func NewCached(next Runner, c cache.Cache, ttl time.Duration) *Cached {
	return &Cached{next: next, cache: c, ttl: ttl}
}

func (c *Cached) Run(ctx context.Context, in Input) Result {
	key := CacheKey(in)
	var hit Result
	if ok, err := cache.GetJSON(ctx, c.cache, key, &hit); err != nil {
		logger.Warn("cascade cache read failed", "key", key, "err", err)
	} else if ok {
		logger.Debug("cascade cache hit", "platform", string(in.Platform), "key", key)
		return hit
	}

	ch := c.group.DoChan(key, func() (any, error) {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedRunTimeout)
		defer cancel()
		res := c.next.Run(rctx, in)
		if res.Success && res.ManualAssistant == nil && c.ttl > 0 {
			if err := cache.SetJSON(rctx, c.cache, key, res, c.ttl); err != nil {
				logger.Warn("cascade cache write failed", "key", key, "err", err)
			}
		}
		return res, nil
	})
	select {
	case r := <-ch:
		return r.Val.(Result)
	case <-ctx.Done():
		logger.Debug("cascade caller gone", "platform", string(in.Platform), "key", key)
		return Result{
			Platform: in.Platform,
			Media:    []model.MediaItem{},
			Hashtags: []string{},
			Message:  string(scrape.KindOf(ctx.Err())),
		}
	}
}

// CacheKey identifies a request by platform and its URL, or by a digest of
// the share text when no URL was given.
func CacheKey(in Input) string {
	target := strings.TrimSpace(in.URL)
	if target == "" {
		target = strings.TrimSpace(in.Hint.CanonicalURL)
	}
	if target == "" {
		sum := sha1.Sum([]byte(strings.TrimSpace(in.ShareText)))
		target = "text:" + hex.EncodeToString(sum[:])
	}
	return "cascade:" + string(in.Platform) + ":" + target
}
