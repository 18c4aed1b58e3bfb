package proxy

import (
	"net/http"
	"net/url"
	"sync/atomic"
)

// Switcher lets long-lived transports change proxy without being rebuilt.
type Switcher struct {
	current atomic.Pointer[url.URL]
}

func NewSwitcher() *Switcher {
	return &Switcher{}
}

func (s *Switcher) Set(raw string) error {
	if raw == "" {
		s.current.Store(nil)
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	s.current.Store(u)
	return nil
}

func (s *Switcher) ProxyFunc(req *http.Request) (*url.URL, error) {
	return s.current.Load(), nil
}

// NewTransport clones the default transport and routes it through s.
func NewTransport(s *Switcher) *http.Transport {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if s != nil {
		transport.Proxy = s.ProxyFunc
	}
	return transport
}
