package platform

import (
	"context"
	"time"

	"fan-feed-go/internal/cache"
	"fan-feed-go/internal/cascade"
	"fan-feed-go/internal/logger"
	"fan-feed-go/internal/scrape"
)

// Service fronts one platform's pipeline with the resolution cache.
type Service struct {
	Platform Platform
	runner   cascade.Runner
}

func NewService(p Platform, c cache.Cache, ttl time.Duration) *Service {
	var runner cascade.Runner = p.Pipeline()
	if c != nil && ttl > 0 {
		runner = cascade.NewCached(runner, c, ttl)
	}
	return &Service{Platform: p, runner: runner}
}

// Fetch returns an error only for invalid input. Every upstream failure ends
// in a manual-assistant result instead.
func (s *Service) Fetch(ctx context.Context, req FetchRequest) (cascade.Result, error) {
	in, err := s.Platform.Prepare(ctx, req)
	if err != nil {
		logger.Warn("fetch rejected", "platform", string(s.Platform.Name()), "error_kind", scrape.KindOf(err), "err", err)
		return cascade.Result{}, err
	}
	return s.runner.Run(ctx, in), nil
}

// NewServices builds one Service per registered platform, keyed by its
// canonical name.
func NewServices(deps Deps, c cache.Cache, ttl time.Duration) (map[string]*Service, error) {
	out := make(map[string]*Service)
	for _, name := range Names() {
		p, err := New(name, deps)
		if err != nil {
			return nil, err
		}
		out[name] = NewService(p, c, ttl)
	}
	return out, nil
}
