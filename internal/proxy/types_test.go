package proxy

import (
	"testing"
	"time"
)

func TestProxyURLs(t *testing.T) {
	cases := []struct {
		p      Proxy
		http   string
		chrome string
	}{
		{Proxy{IP: "10.0.0.1", Port: 8080}, "http://10.0.0.1:8080", "http://10.0.0.1:8080"},
		{Proxy{IP: "10.0.0.1", Port: 8443, Protocol: "https", User: "u", Password: "p"}, "http://u:p@10.0.0.1:8443", "https://10.0.0.1:8443"},
		{Proxy{IP: "::1", Port: 1080, Protocol: "socks5"}, "socks5://[::1]:1080", "socks5://[::1]:1080"},
	}
	for _, c := range cases {
		got, err := c.p.HTTPURL()
		if err != nil || got != c.http {
			t.Fatalf("HTTPURL(%+v) = %q, %v; want %q", c.p, got, err, c.http)
		}
		if got := c.p.ChromeProxyServer(); got != c.chrome {
			t.Fatalf("ChromeProxyServer(%+v) = %q, want %q", c.p, got, c.chrome)
		}
	}
	if _, err := (Proxy{IP: "10.0.0.1"}).HTTPURL(); err == nil {
		t.Fatalf("missing port should be rejected")
	}
}

func TestProxyExpiresBy(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if (Proxy{}).expiresBy(now, time.Hour) {
		t.Fatalf("zero expiry never expires")
	}
	p := Proxy{ExpiredAt: now.Add(time.Minute)}
	if p.expiresBy(now, 30*time.Second) {
		t.Fatalf("a minute left with a 30s buffer is still usable")
	}
	if !p.expiresBy(now, 2*time.Minute) {
		t.Fatalf("inside the buffer counts as expired")
	}
}
