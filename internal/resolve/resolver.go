// Package resolve follows a post URL and extracts what the landing page
// reveals about the post.
package resolve

import (
	"bytes"
	"context"
	"net/url"
	"strings"

	"fan-feed-go/internal/extract"
	"fan-feed-go/internal/logger"
	"fan-feed-go/internal/model"
	"fan-feed-go/internal/proxy"
	"fan-feed-go/internal/scrape"

	"github.com/PuerkitoBio/goquery"
)

type Options struct {
	Platform string
	// Desktop switches to the desktop user agent; mobile is the default.
	Desktop       bool
	Referer       string
	Strategies    []extract.Strategy
	TitleSuffixes []string
	TimeoutSec    int
}

type Resolver struct {
	opts   Options
	client *scrape.Client
}

func New(opts Options) *Resolver {
	headers := scrape.MobileHeaders(opts.Referer)
	if opts.Desktop {
		headers = scrape.DesktopHeaders(opts.Referer)
	}
	return &Resolver{
		opts: opts,
		client: scrape.NewClient(scrape.ClientOptions{
			Platform:   opts.Platform,
			Headers:    headers,
			TimeoutSec: opts.TimeoutSec,
		}),
	}
}

func (r *Resolver) InitProxyPool(pool *proxy.Pool) {
	r.client.InitProxyPool(pool)
}

// Resolve makes one GET with redirects followed and never fails: any error
// yields metadata carrying only the input URL.
func (r *Resolver) Resolve(ctx context.Context, rawURL string) model.ResolvedMetadata {
	rawURL = strings.TrimSpace(rawURL)
	if !IsHTTPURL(rawURL) {
		return model.Unresolved(rawURL)
	}
	ctx, cancel := scrape.WithTimeout(ctx, r.opts.TimeoutSec)
	defer cancel()

	page, err := r.client.Get(ctx, rawURL, nil)
	if err != nil {
		logger.Warn("resolve failed", "platform", r.opts.Platform, "url", rawURL, "error_kind", scrape.KindOf(err), "err", err)
		return model.Unresolved(rawURL)
	}
	if len(bytes.TrimSpace(page.Body)) == 0 {
		logger.Warn("resolve returned empty body", "platform", r.opts.Platform, "url", rawURL, "error_kind", scrape.ErrorKindEmpty)
		return model.Unresolved(rawURL)
	}
	body := string(page.Body)
	if hint := scrape.DetectRiskHint(body); hint != "" && !strings.Contains(body, "og:title") {
		logger.Warn("resolve hit risk page", "platform", r.opts.Platform, "url", page.FinalURL, "error_kind", scrape.ErrorKindRiskHint, "hint", hint)
		return model.Unresolved(page.FinalURL)
	}
	return r.FromHTML(page.FinalURL, body)
}

// FollowRedirects returns the final URL after redirects, or the input when
// the request fails.
func (r *Resolver) FollowRedirects(ctx context.Context, rawURL string) string {
	if !IsHTTPURL(rawURL) {
		return rawURL
	}
	ctx, cancel := scrape.WithTimeout(ctx, r.opts.TimeoutSec)
	defer cancel()
	page, err := r.client.Get(ctx, rawURL, nil)
	if err != nil && page.StatusCode == 0 {
		logger.Debug("redirect follow failed", "platform", r.opts.Platform, "url", rawURL, "error_kind", scrape.KindOf(err))
		return rawURL
	}
	if page.FinalURL == "" {
		return rawURL
	}
	return page.FinalURL
}

// FromHTML extracts metadata from an already fetched page.
func (r *Resolver) FromHTML(finalURL, body string) model.ResolvedMetadata {
	out := model.Unresolved(finalURL)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		doc = nil
	}

	structured, name, ok := extract.Run(r.opts.Strategies, body)
	meta, metaOK := extract.MetaTags(doc, r.opts.TitleSuffixes)
	switch {
	case ok:
		out = structured
		out.ResolvedURL = finalURL
		if metaOK {
			fillMissing(&out, meta)
		}
		logger.Debug("structured extraction matched", "platform", r.opts.Platform, "strategy", name, "url", finalURL)
	case metaOK:
		out = meta
		out.ResolvedURL = finalURL
	}

	if out.ContentType == "" || out.ContentType == model.ContentUnknown {
		switch {
		case extract.LooksLikeVideoPage(doc, body):
			out.ContentType = model.ContentVideo
		case len(out.Media) > 0:
			out.ContentType = model.ContentTypeOf(out.Media)
		default:
			out.ContentType = model.ContentUnknown
		}
	}
	if out.ExtractionMethod == "" {
		out.ExtractionMethod = model.ExtractionNone
	}
	return out
}

func fillMissing(dst *model.ResolvedMetadata, src model.ResolvedMetadata) {
	if dst.Title == "" {
		dst.Title = src.Title
	}
	if dst.Description == "" {
		dst.Description = src.Description
	}
	if dst.Author == "" {
		dst.Author = src.Author
	}
	if dst.ThumbnailURL == "" {
		dst.ThumbnailURL = src.ThumbnailURL
	}
	if dst.PublishedAt == nil {
		dst.PublishedAt = src.PublishedAt
	}
	if len(dst.Media) == 0 {
		dst.Media = src.Media
	}
}

func IsHTTPURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// HostMatches reports whether raw is on one of domains or their subdomains.
func HostMatches(raw string, domains ...string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, d := range domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}
