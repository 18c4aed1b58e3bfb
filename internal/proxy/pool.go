package proxy

import (
	"context"
	"errors"
	"sync"
	"time"

	"fan-feed-go/internal/logger"
)

var ErrNoProxyAvailable = errors.New("no proxy available")

const (
	defaultExpiryBuffer = 30 * time.Second
	defaultBenchTime    = 10 * time.Minute
)

// Pool shares one outbound proxy between the platform clients. A proxy that
// draws a captcha or a 403 is benched for a while so the next request
// leaves from a different address.
type Pool struct {
	provider Provider
	count    int
	buffer   time.Duration
	bench    time.Duration

	mu      sync.Mutex
	queue   []Proxy
	current *Proxy
	benched map[string]time.Time
	now     func() time.Time
}

func NewPool(provider Provider, count int) *Pool {
	if count <= 0 {
		count = 2
	}
	return &Pool{
		provider: provider,
		count:    count,
		buffer:   defaultExpiryBuffer,
		bench:    defaultBenchTime,
		benched:  map[string]time.Time{},
		now:      time.Now,
	}
}

// SetBenchTime changes how long a rejected proxy sits out.
func (p *Pool) SetBenchTime(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if d > 0 {
		p.bench = d
	}
}

func (p *Pool) usable(pr Proxy) bool {
	if pr.expiresBy(p.now(), p.buffer) {
		return false
	}
	until, ok := p.benched[pr.key()]
	if !ok {
		return true
	}
	if p.now().After(until) {
		delete(p.benched, pr.key())
		return true
	}
	return false
}

// GetOrRefresh returns the current proxy, moving to the next usable one when
// it expired or was benched. The provider is asked for more at most once per
// call.
func (p *Pool) GetOrRefresh(ctx context.Context) (Proxy, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current != nil && p.usable(*p.current) {
		return *p.current, nil
	}
	p.current = nil

	refilled := false
	for {
		for len(p.queue) > 0 {
			next := p.queue[0]
			p.queue = p.queue[1:]
			if p.usable(next) {
				p.current = &next
				return next, nil
			}
		}
		if refilled {
			return Proxy{}, ErrNoProxyAvailable
		}
		batch, err := p.provider.GetProxies(ctx, p.count)
		if err != nil {
			return Proxy{}, err
		}
		p.queue = append(p.queue, batch...)
		refilled = true
	}
}

func (p *Pool) Current() (Proxy, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return Proxy{}, false
	}
	return *p.current, true
}

// Bench takes the current proxy out of rotation for the bench time.
func (p *Pool) Bench(reason string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return
	}
	p.benched[p.current.key()] = p.now().Add(p.bench)
	logger.Warn("proxy benched", "proxy", p.current.String(), "reason", reason, "for", p.bench)
	p.current = nil
}

// Apply points the switcher at the pool's current proxy, refreshing it when
// needed. A nil pool or switcher leaves connections direct.
func (p *Pool) Apply(ctx context.Context, s *Switcher) error {
	if p == nil || s == nil {
		return nil
	}
	pr, err := p.GetOrRefresh(ctx)
	if err != nil {
		return err
	}
	u, err := pr.HTTPURL()
	if err != nil {
		return err
	}
	return s.Set(u)
}
