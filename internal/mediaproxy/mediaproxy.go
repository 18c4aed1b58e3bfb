// Package mediaproxy serves hotlink-protected media through this host so
// browsers never talk to the platform CDNs directly.
package mediaproxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"fan-feed-go/internal/cache"
	"fan-feed-go/internal/config"
	"fan-feed-go/internal/downloader"
	"fan-feed-go/internal/logger"
	"fan-feed-go/internal/metrics"
	"fan-feed-go/internal/scrape"

	"golang.org/x/sync/singleflight"
)

const (
	placeholderPathMarker = "/api/placeholder/"
	staleWhileRevalidate  = 604800
	immutableMaxAge       = 31536000
)

// Fetcher is satisfied by downloader.Fetcher.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (downloader.Media, error)
}

// Streamer is implemented by downloader.Fetcher. Video and ranged requests
// are piped through it; without it every response is buffered.
type Streamer interface {
	Open(ctx context.Context, rawURL, rangeHeader string) (*downloader.Stream, error)
}

type Options struct {
	MaxAgeSec            int
	PlaceholderMaxAgeSec int
	PlaceholderFormat    string
	PlaceholderLabel     string
	CacheTTL             time.Duration
}

type Handler struct {
	fetcher  Fetcher
	cache    cache.Cache
	recorder metrics.Recorder
	opts     Options
	group    singleflight.Group
}

func New(fetcher Fetcher, c cache.Cache, recorder metrics.Recorder, opts Options) *Handler {
	if opts.MaxAgeSec <= 0 {
		opts.MaxAgeSec = 86400
	}
	if opts.PlaceholderMaxAgeSec <= 0 {
		opts.PlaceholderMaxAgeSec = 3600
	}
	if strings.TrimSpace(opts.PlaceholderLabel) == "" {
		opts.PlaceholderLabel = "Image unavailable"
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = time.Duration(opts.MaxAgeSec) * time.Second
	}
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &Handler{fetcher: fetcher, cache: c, recorder: recorder, opts: opts}
}

func NewFromConfig(cfg config.Config, c cache.Cache, recorder metrics.Recorder) *Handler {
	return New(downloader.NewFromConfig(cfg), c, recorder, Options{
		MaxAgeSec:            cfg.MediaProxyMaxAgeSec,
		PlaceholderMaxAgeSec: cfg.MediaProxyPlaceholderMaxAgeSec,
		PlaceholderFormat:    cfg.PlaceholderFormat,
		PlaceholderLabel:     cfg.PlaceholderLabel,
	})
}

type cachedMedia struct {
	ContentType string `json:"contentType"`
	Body        []byte `json:"body"`
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodOptions:
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.WriteHeader(http.StatusOK)
		return
	case http.MethodGet, http.MethodHead:
	default:
		w.Header().Set("Allow", "GET, OPTIONS")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	target := strings.TrimSpace(r.URL.Query().Get("url"))
	if target == "" {
		http.Error(w, "Missing URL parameter", http.StatusBadRequest)
		return
	}

	if strings.Contains(target, placeholderPathMarker) {
		p := RenderPlaceholder(h.opts.PlaceholderFormat, h.opts.PlaceholderLabel, false)
		h.recorder.RecordMediaProxy("placeholder")
		writeBody(w, r, p.ContentType, fmt.Sprintf("public, max-age=%d, immutable", immutableMaxAge), p.Body)
		return
	}

	st, canStream := h.fetcher.(Streamer)
	if canStream && (r.Header.Get("Range") != "" || isVideoURL(target)) {
		h.serveStream(w, r, st, target)
		return
	}

	m, err := h.load(r.Context(), target)
	if canStream && errors.Is(err, downloader.ErrTooLarge) {
		h.serveStream(w, r, st, target)
		return
	}
	if err != nil {
		logger.Warn("media proxy fetch failed", "url", target, "error_kind", string(scrape.KindOf(err)), "err", err)
		h.recorder.RecordMediaProxy("fallback")
		p := RenderPlaceholder(h.opts.PlaceholderFormat, h.opts.PlaceholderLabel, true)
		writeBody(w, r, p.ContentType, fmt.Sprintf("public, max-age=%d", h.opts.PlaceholderMaxAgeSec), p.Body)
		return
	}

	h.recorder.RecordMediaProxy("ok")
	ct := m.ContentType
	if ct == "" {
		ct = "image/jpeg"
	}
	w.Header().Set("Access-Control-Allow-Origin", "*")
	writeBody(w, r, ct, fmt.Sprintf("public, max-age=%d, stale-while-revalidate=%d", h.opts.MaxAgeSec, staleWhileRevalidate), m.Body)
}

// load serves from cache, collapsing concurrent misses for one URL into a
// single upstream request.
func (h *Handler) load(ctx context.Context, target string) (cachedMedia, error) {
	key := "media:" + target
	var hit cachedMedia
	if ok, _ := cache.GetJSON(ctx, h.cache, key, &hit); ok {
		return hit, nil
	}
	v, err, _ := h.group.Do(key, func() (any, error) {
		// Shared by every waiter, so one client leaving must not cancel it.
		detached := context.WithoutCancel(ctx)
		m, err := h.fetcher.Fetch(detached, target)
		if err != nil {
			return nil, err
		}
		out := cachedMedia{ContentType: m.ContentType, Body: m.Body}
		if err := cache.SetJSON(detached, h.cache, key, out, h.opts.CacheTTL); err != nil {
			logger.Debug("media cache write failed", "url", target, "err", err)
		}
		return out, nil
	})
	if err != nil {
		return cachedMedia{}, err
	}
	return v.(cachedMedia), nil
}

var videoExts = map[string]bool{".mp4": true, ".m4v": true, ".mov": true, ".webm": true, ".flv": true, ".m3u8": true, ".ts": true}

func isVideoURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	if host == "douyinvod.com" || strings.HasSuffix(host, ".douyinvod.com") {
		return true
	}
	return videoExts[strings.ToLower(path.Ext(u.Path))]
}

var passthroughHeaders = []string{"Content-Length", "Content-Range", "Accept-Ranges", "Last-Modified", "ETag"}

// serveStream pipes the upstream body straight to the client. Nothing is
// cached and the size limit does not apply.
func (h *Handler) serveStream(w http.ResponseWriter, r *http.Request, st Streamer, target string) {
	up, err := st.Open(r.Context(), target, r.Header.Get("Range"))
	if err != nil {
		if scrape.StatusOf(err) == http.StatusRequestedRangeNotSatisfiable {
			http.Error(w, "range not satisfiable", http.StatusRequestedRangeNotSatisfiable)
			return
		}
		logger.Warn("media proxy stream failed", "url", target, "error_kind", string(scrape.KindOf(err)), "err", err)
		h.recorder.RecordMediaProxy("fallback")
		p := RenderPlaceholder(h.opts.PlaceholderFormat, h.opts.PlaceholderLabel, true)
		writeBody(w, r, p.ContentType, fmt.Sprintf("public, max-age=%d", h.opts.PlaceholderMaxAgeSec), p.Body)
		return
	}
	defer up.Close()

	h.recorder.RecordMediaProxy("stream")
	hdr := w.Header()
	for _, k := range passthroughHeaders {
		if v := up.Header.Get(k); v != "" {
			hdr.Set(k, v)
		}
	}
	ct := up.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	hdr.Set("Content-Type", ct)
	hdr.Set("Cache-Control", fmt.Sprintf("public, max-age=%d", h.opts.MaxAgeSec))
	hdr.Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(up.Status)
	if r.Method == http.MethodHead {
		return
	}
	if n, err := io.Copy(w, up.Body); err != nil {
		logger.Debug("media proxy stream cut", "url", target, "bytes", n, "err", err)
	}
}

func writeBody(w http.ResponseWriter, r *http.Request, contentType, cacheControl string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", cacheControl)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write(body)
}
