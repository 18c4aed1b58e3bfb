// Package platform keeps the registry of supported platforms. Each platform
// package registers itself from init.
package platform

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"fan-feed-go/internal/browser"
	"fan-feed-go/internal/cascade"
	"fan-feed-go/internal/config"
	"fan-feed-go/internal/metrics"
	"fan-feed-go/internal/model"
	"fan-feed-go/internal/proxy"
	"fan-feed-go/internal/rss"
)

// Deps are the shared collaborators handed to every platform factory.
type Deps struct {
	Config   config.Config
	Proxy    *proxy.Pool
	Renderer browser.Renderer
	Recorder metrics.Recorder
}

// FetchRequest is the body of the fetch and resolve entry points.
type FetchRequest struct {
	URL       string `json:"url" validate:"omitempty,url"`
	ShareText string `json:"shareText" validate:"required_without=URL"`
}

type Platform interface {
	Name() model.Platform
	ParseShareText(text string) model.ShareHint
	// Prepare validates a request and turns it into cascade input.
	Prepare(ctx context.Context, req FetchRequest) (cascade.Input, error)
	Pipeline() *cascade.Orchestrator
	Resolve(ctx context.Context, rawURL string) model.ResolvedMetadata
}

// FeedLister is implemented by platforms that can list a profile's newest
// posts from feed mirrors.
type FeedLister interface {
	Latest(ctx context.Context, uid string, limit int) ([]rss.Item, string, error)
}

type Factory func(Deps) Platform

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
	canonical = map[string]string{}
)

func Register(name string, aliases []string, factory Factory) {
	if factory == nil {
		panic("platform: factory is nil")
	}
	keys := append([]string{name}, aliases...)
	mu.Lock()
	defer mu.Unlock()
	for _, k := range keys {
		n := normalize(k)
		if n == "" {
			continue
		}
		if _, exists := factories[n]; exists {
			panic(fmt.Sprintf("platform: duplicate register: %s", n))
		}
		factories[n] = factory
		canonical[n] = normalize(name)
	}
}

func New(name string, deps Deps) (Platform, error) {
	n := normalize(name)
	mu.RLock()
	f := factories[n]
	mu.RUnlock()
	if f == nil {
		return nil, fmt.Errorf("unknown platform: %s (available: %s)", name, strings.Join(Names(), ", "))
	}
	return f(deps), nil
}

func Exists(name string) bool {
	n := normalize(name)
	mu.RLock()
	_, ok := factories[n]
	mu.RUnlock()
	return ok
}

// Canonical maps an alias to the name it was registered under.
func Canonical(name string) (string, bool) {
	mu.RLock()
	defer mu.RUnlock()
	c, ok := canonical[normalize(name)]
	return c, ok
}

// Names lists canonical platform names.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	uniq := map[string]struct{}{}
	out := make([]string, 0, len(canonical))
	for _, c := range canonical {
		if _, ok := uniq[c]; ok {
			continue
		}
		uniq[c] = struct{}{}
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
