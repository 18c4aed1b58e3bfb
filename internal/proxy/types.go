package proxy

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"
)

type ProviderName string

const ProviderStatic ProviderName = "static"

// Proxy is one outbound endpoint for upstream platform calls. Protocol is
// http, https or socks5; empty means http. A zero ExpiredAt never expires.
type Proxy struct {
	IP        string
	Port      int
	User      string
	Password  string
	Protocol  string
	ExpiredAt time.Time
}

// Provider supplies batches of proxies to a Pool.
type Provider interface {
	Name() ProviderName
	GetProxies(ctx context.Context, num int) ([]Proxy, error)
}

func (p Proxy) hostPort() string {
	return net.JoinHostPort(p.IP, strconv.Itoa(p.Port))
}

func (p Proxy) key() string { return p.hostPort() }

// expiresBy reports whether the proxy is gone, or within buffer of going, at now.
func (p Proxy) expiresBy(now time.Time, buffer time.Duration) bool {
	return !p.ExpiredAt.IsZero() && !now.Before(p.ExpiredAt.Add(-buffer))
}

// HTTPURL is the transport proxy URL, credentials included. An https entry
// is still reached with a plain CONNECT.
func (p Proxy) HTTPURL() (string, error) {
	if p.IP == "" || p.Port <= 0 {
		return "", fmt.Errorf("invalid proxy endpoint %q:%d", p.IP, p.Port)
	}
	u := url.URL{Scheme: "http", Host: p.hostPort()}
	if p.Protocol == "socks5" {
		u.Scheme = "socks5"
	}
	if p.User != "" || p.Password != "" {
		u.User = url.UserPassword(p.User, p.Password)
	}
	return u.String(), nil
}

// ChromeProxyServer is the --proxy-server value. Chromium takes no
// credentials there, so it doubles as the form used in log lines.
func (p Proxy) ChromeProxyServer() string {
	scheme := p.Protocol
	if scheme == "" {
		scheme = "http"
	}
	return scheme + "://" + p.hostPort()
}

func (p Proxy) String() string { return p.ChromeProxyServer() }
