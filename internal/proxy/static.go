package proxy

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"

	"fan-feed-go/internal/config"
)

var errEmptyStatic = errors.New("static proxy list is empty: set IP_PROXY_LIST or IP_PROXY_FILE")

// StaticProvider hands out proxies from IP_PROXY_LIST or IP_PROXY_FILE. The
// entries are read once; each refill continues where the previous one ended
// so a small pool walks the whole list.
type StaticProvider struct {
	list string
	file string

	once    sync.Once
	entries []Proxy
	loadErr error

	mu   sync.Mutex
	next int
}

func NewStatic(list, file string) *StaticProvider {
	return &StaticProvider{
		list: strings.TrimSpace(list),
		file: strings.TrimSpace(file),
	}
}

func NewStaticFromConfig(cfg config.Config) *StaticProvider {
	return NewStatic(cfg.IPProxyList, cfg.IPProxyFile)
}

func (p *StaticProvider) Name() ProviderName {
	return ProviderStatic
}

func (p *StaticProvider) GetProxies(ctx context.Context, num int) ([]Proxy, error) {
	p.once.Do(p.load)
	if p.loadErr != nil {
		return nil, p.loadErr
	}
	if num <= 0 {
		num = 1
	}
	num = min(num, len(p.entries))

	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Proxy, 0, num)
	for range num {
		out = append(out, p.entries[p.next%len(p.entries)])
		p.next++
	}
	return out, nil
}

func (p *StaticProvider) load() {
	raw := p.list
	if raw == "" && p.file != "" {
		b, err := os.ReadFile(p.file)
		if err != nil {
			p.loadErr = fmt.Errorf("read proxy file: %w", err)
			return
		}
		raw = string(b)
	}

	var bad []string
	for _, entry := range splitEntries(raw) {
		pr, err := ParseProxy(entry)
		if err != nil {
			bad = append(bad, entry)
			continue
		}
		p.entries = append(p.entries, pr)
	}
	switch {
	case len(p.entries) > 0:
	case len(bad) > 0:
		p.loadErr = fmt.Errorf("no usable proxy entries (rejected %s)", strings.Join(bad, ", "))
	default:
		p.loadErr = errEmptyStatic
	}
}

// splitEntries accepts comma, semicolon or newline separated entries and
// skips # comment lines.
func splitEntries(raw string) []string {
	var out []string
	for _, line := range strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		for _, part := range strings.FieldsFunc(line, func(r rune) bool { return r == ',' || r == ';' }) {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// ParseProxy reads "host:port", "user:pass@host:port" or a full
// http/https/socks5 URL.
func ParseProxy(entry string) (Proxy, error) {
	entry = strings.TrimSpace(entry)
	if !strings.Contains(entry, "://") {
		entry = "http://" + entry
	}
	u, err := url.Parse(entry)
	if err != nil {
		return Proxy{}, err
	}
	switch u.Scheme {
	case "http", "https", "socks5":
	default:
		return Proxy{}, fmt.Errorf("unsupported proxy scheme %q", u.Scheme)
	}
	host, portStr, err := net.SplitHostPort(u.Host)
	if err != nil {
		return Proxy{}, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return Proxy{}, fmt.Errorf("bad proxy port %q", portStr)
	}

	pr := Proxy{IP: host, Port: port, Protocol: u.Scheme}
	if u.User != nil {
		pr.User = u.User.Username()
		pr.Password, _ = u.User.Password()
	}
	return pr, nil
}
