// Package downloader fetches upstream media for the media proxy.
package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"fan-feed-go/internal/config"
	"fan-feed-go/internal/scrape"

	"github.com/doyensec/safeurl"
)

var ErrTooLarge = errors.New("media exceeds size limit")

type Media struct {
	Body        []byte
	ContentType string
}

type Options struct {
	Timeout        time.Duration
	MaxBytes       int64
	Retries        int
	BaseDelay      time.Duration
	MaxDelay       time.Duration
	UserAgent      string
	DefaultReferer string
	// AllowPrivate skips the SSRF guard so loopback upstreams can be used.
	AllowPrivate bool
}

type Fetcher struct {
	Client *http.Client
	opts   Options
	// stream shares Client's transport but has no overall timeout, since a
	// video body may take far longer than its headers.
	stream *http.Client
}

func NewFetcher(opts Options) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = 20 << 20
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = 300 * time.Millisecond
	}
	if opts.MaxDelay < opts.BaseDelay {
		opts.MaxDelay = opts.BaseDelay
	}
	var client *http.Client
	if opts.AllowPrivate {
		client = &http.Client{Timeout: opts.Timeout}
	} else {
		cfg := safeurl.GetConfigBuilder().
			SetTimeout(opts.Timeout).
			SetAllowedSchemes("http", "https").
			SetAllowedPorts(80, 443).
			Build()
		client = safeurl.Client(cfg).Client
	}
	stream := *client
	stream.Timeout = 0
	return &Fetcher{Client: client, opts: opts, stream: &stream}
}

func NewFromConfig(cfg config.Config) *Fetcher {
	timeout := cfg.HttpTimeoutSec
	if timeout <= 0 {
		timeout = 10
	}
	return NewFetcher(Options{
		Timeout:        time.Duration(timeout) * time.Second,
		MaxBytes:       cfg.MediaProxyMaxBytes,
		Retries:        cfg.HttpRetryCount,
		BaseDelay:      time.Duration(cfg.HttpRetryBaseDelayMs) * time.Millisecond,
		MaxDelay:       time.Duration(cfg.HttpRetryMaxDelayMs) * time.Millisecond,
		UserAgent:      cfg.UserAgentDesktop,
		DefaultReferer: cfg.MediaProxyReferer,
		AllowPrivate:   cfg.MediaProxyAllowPrivate,
	})
}

var refererByHost = []struct {
	suffix  string
	referer string
}{
	{"sinaimg.cn", "https://weibo.com/"},
	{"weibo.com", "https://weibo.com/"},
	{"weibo.cn", "https://weibo.com/"},
	{"douyinpic.com", "https://www.douyin.com/"},
	{"douyinvod.com", "https://www.douyin.com/"},
	{"douyin.com", "https://www.douyin.com/"},
	{"byteimg.com", "https://www.douyin.com/"},
	{"xhscdn.com", "https://www.xiaohongshu.com/"},
	{"xiaohongshu.com", "https://www.xiaohongshu.com/"},
}

// RefererFor picks the referer a hotlink-protected CDN expects.
func RefererFor(rawURL, fallback string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fallback
	}
	host := strings.ToLower(u.Hostname())
	for _, r := range refererByHost {
		if host == r.suffix || strings.HasSuffix(host, "."+r.suffix) {
			return r.referer
		}
	}
	return fallback
}

// Fetch downloads rawURL, retrying 429 and 5xx answers and transport errors.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (Media, error) {
	var m Media
	err := f.retry(ctx, rawURL, func(target string) (int, error) {
		var status int
		var err error
		m, status, err = f.once(ctx, target)
		return status, err
	})
	return m, err
}

// Stream is an open upstream response. The caller must Close it.
type Stream struct {
	Body          io.ReadCloser
	Status        int
	ContentType   string
	ContentLength int64
	Header        http.Header
}

func (s *Stream) Close() error { return s.Body.Close() }

// Open starts a download without buffering it and forwards rangeHeader
// upstream. Retries stop once response headers arrive; the size limit does
// not apply.
func (f *Fetcher) Open(ctx context.Context, rawURL, rangeHeader string) (*Stream, error) {
	var st *Stream
	err := f.retry(ctx, rawURL, func(target string) (int, error) {
		var status int
		var err error
		st, status, err = f.open(ctx, target, rangeHeader)
		return status, err
	})
	return st, err
}

func (f *Fetcher) retry(ctx context.Context, rawURL string, call func(target string) (int, error)) error {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return scrape.NewInvalidInputError("", rawURL, "media url must be absolute http(s)")
	}
	var lastErr error
	delay := f.opts.BaseDelay
	for attempt := 0; attempt <= f.opts.Retries; attempt++ {
		if attempt > 0 {
			if !scrape.Sleep(ctx, delay) {
				return ctx.Err()
			}
			delay = min(delay*2, f.opts.MaxDelay)
		}
		status, err := call(u.String())
		if err == nil {
			return nil
		}
		lastErr = err
		if status != 0 && !scrape.ShouldRetryStatus(status) {
			break
		}
		if status == 0 && (errors.Is(err, ErrTooLarge) || !scrape.ShouldRetryError(err)) {
			break
		}
	}
	return lastErr
}

func (f *Fetcher) newRequest(ctx context.Context, target string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	if f.opts.UserAgent != "" {
		req.Header.Set("User-Agent", f.opts.UserAgent)
	}
	req.Header.Set("Accept", "image/avif,image/webp,image/*,video/*,*/*;q=0.8")
	if ref := RefererFor(target, f.opts.DefaultReferer); ref != "" {
		req.Header.Set("Referer", ref)
	}
	return req, nil
}

func (f *Fetcher) open(ctx context.Context, target, rangeHeader string) (*Stream, int, error) {
	sctx, cancel := context.WithCancel(ctx)
	headerTimer := time.AfterFunc(f.opts.Timeout, cancel)
	req, err := f.newRequest(sctx, target)
	if err != nil {
		cancel()
		return nil, 0, err
	}
	if rangeHeader != "" {
		req.Header.Set("Range", rangeHeader)
	}
	resp, err := f.stream.Do(req)
	if !headerTimer.Stop() && err == nil {
		resp.Body.Close()
		err = context.DeadlineExceeded
	}
	if err != nil {
		cancel()
		return nil, 0, err
	}
	if !scrape.IsSuccessStatus(resp.StatusCode) {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		cancel()
		return nil, resp.StatusCode, scrape.NewHTTPStatusError("", target, resp.StatusCode, "")
	}
	return &Stream{
		Body:          cancelOnClose{ReadCloser: resp.Body, cancel: cancel},
		Status:        resp.StatusCode,
		ContentType:   resp.Header.Get("Content-Type"),
		ContentLength: resp.ContentLength,
		Header:        resp.Header,
	}, resp.StatusCode, nil
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}

func (f *Fetcher) once(ctx context.Context, target string) (Media, int, error) {
	req, err := f.newRequest(ctx, target)
	if err != nil {
		return Media{}, 0, err
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return Media{}, 0, err
	}
	defer resp.Body.Close()

	if !scrape.IsSuccessStatus(resp.StatusCode) {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return Media{}, resp.StatusCode, scrape.NewHTTPStatusError("", target, resp.StatusCode, "")
	}
	if resp.ContentLength > f.opts.MaxBytes {
		return Media{}, 0, fmt.Errorf("%w: %d bytes", ErrTooLarge, resp.ContentLength)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.opts.MaxBytes+1))
	if err != nil {
		return Media{}, 0, err
	}
	if int64(len(body)) > f.opts.MaxBytes {
		return Media{}, 0, ErrTooLarge
	}
	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = http.DetectContentType(body)
	}
	return Media{Body: body, ContentType: ct}, nil
}
