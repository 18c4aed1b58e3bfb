package proxy

import (
	"fmt"

	"fan-feed-go/internal/config"
)

// NewProvider builds the provider named by IP_PROXY_PROVIDER_NAME. Only the
// static list is supported; paid proxy vendors are not wired.
func NewProvider(cfg config.Config) (Provider, error) {
	switch ProviderName(cfg.IPProxyProviderName) {
	case ProviderStatic, "":
		return NewStaticFromConfig(cfg), nil
	default:
		return nil, fmt.Errorf("unknown proxy provider: %s", cfg.IPProxyProviderName)
	}
}

// PoolFromConfig returns nil when outbound proxying is disabled.
func PoolFromConfig(cfg config.Config) (*Pool, error) {
	if !cfg.EnableIPProxy {
		return nil, nil
	}
	provider, err := NewProvider(cfg)
	if err != nil {
		return nil, err
	}
	return NewPool(provider, cfg.IPProxyPoolCount), nil
}
