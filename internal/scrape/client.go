package scrape

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"fan-feed-go/internal/config"
	"fan-feed-go/internal/proxy"

	"github.com/go-resty/resty/v2"
)

type ClientOptions struct {
	Platform string
	BaseURL  string
	Headers  map[string]string
	// TimeoutSec falls back to HTTP_TIMEOUT_SEC.
	TimeoutSec int
	// RetryCount of zero disables retries.
	RetryCount   int
	MaxRedirects int
}

// Client is a resty client with Chinese-locale headers and an optional
// rotating outbound proxy.
type Client struct {
	platform  string
	rc        *resty.Client
	switcher  *proxy.Switcher
	proxyPool *proxy.Pool
}

func NewClient(opts ClientOptions) *Client {
	switcher := proxy.NewSwitcher()

	timeoutSec := opts.TimeoutSec
	if timeoutSec <= 0 {
		timeoutSec = config.AppConfig.HttpTimeoutSec
	}
	if timeoutSec <= 0 {
		timeoutSec = 10
	}
	hc := &http.Client{
		Transport: proxy.NewTransport(switcher),
		Timeout:   time.Duration(timeoutSec) * time.Second,
	}
	rc := resty.NewWithClient(hc)
	if opts.BaseURL != "" {
		rc.SetBaseURL(opts.BaseURL)
	}
	maxRedirects := opts.MaxRedirects
	if maxRedirects <= 0 {
		maxRedirects = 10
	}
	rc.SetRedirectPolicy(resty.FlexibleRedirectPolicy(maxRedirects))
	rc.SetHeaders(opts.Headers)
	if ck := strings.TrimSpace(config.AppConfig.Cookies); ck != "" {
		rc.SetHeader("cookie", ck)
	}

	out := &Client{platform: opts.Platform, rc: rc, switcher: switcher}
	if opts.RetryCount > 0 {
		baseMs := config.AppConfig.HttpRetryBaseDelayMs
		if baseMs <= 0 {
			baseMs = 300
		}
		maxMs := config.AppConfig.HttpRetryMaxDelayMs
		if maxMs <= 0 {
			maxMs = 2000
		}
		rc.SetRetryCount(opts.RetryCount)
		rc.SetRetryWaitTime(time.Duration(baseMs) * time.Millisecond)
		rc.SetRetryMaxWaitTime(time.Duration(maxMs) * time.Millisecond)
		rc.AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return ShouldRetryError(err)
			}
			if r == nil {
				return true
			}
			code := r.StatusCode()
			if out.proxyPool != nil && ShouldInvalidateProxyStatus(code) {
				out.proxyPool.Bench("http " + strconv.Itoa(code))
				return true
			}
			return ShouldRetryStatus(code)
		})
	}
	return out
}

func (c *Client) InitProxyPool(pool *proxy.Pool) {
	c.proxyPool = pool
}

func (c *Client) Platform() string { return c.platform }

// R returns a request bound to ctx with the current proxy applied.
func (c *Client) R(ctx context.Context) (*resty.Request, error) {
	if err := c.proxyPool.Apply(ctx, c.switcher); err != nil {
		return nil, err
	}
	return c.rc.R().SetContext(ctx), nil
}

type Page struct {
	FinalURL   string
	StatusCode int
	Body       []byte
}

// Get fetches rawURL following redirects. Non-2xx responses are returned as
// an HTTP status error alongside the page so callers can still log it.
func (c *Client) Get(ctx context.Context, rawURL string, query map[string]string) (Page, error) {
	req, err := c.R(ctx)
	if err != nil {
		return Page{}, err
	}
	if len(query) > 0 {
		req.SetQueryParams(query)
	}
	resp, err := req.Get(rawURL)
	if err != nil {
		return Page{FinalURL: rawURL}, err
	}
	page := Page{FinalURL: rawURL, StatusCode: resp.StatusCode(), Body: resp.Body()}
	if raw := resp.RawResponse; raw != nil && raw.Request != nil && raw.Request.URL != nil {
		page.FinalURL = raw.Request.URL.String()
	}
	if c.proxyPool != nil {
		// The weibo visitor gate is served to every fresh session, so only
		// captcha and denial pages count against the proxy.
		if hint := DetectRiskHint(resp.String()); hint == "captcha" || hint == "forbidden" {
			c.proxyPool.Bench(hint)
		}
	}
	if !IsSuccessStatus(page.StatusCode) {
		return page, NewHTTPStatusError(c.platform, rawURL, page.StatusCode, resp.String())
	}
	return page, nil
}
