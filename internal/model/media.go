package model

import (
	"net/url"
	"strings"
)

type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

// MediaItem is one attachment of a post. DisplayURL may route through the
// media proxy; SourceURL is always the upstream address. IsEmbeddableFrame
// marks a platform player page that cannot be played inline as a file.
type MediaItem struct {
	Kind              MediaKind `json:"kind" validate:"oneof=image video"`
	SourceURL         string    `json:"sourceUrl" validate:"required"`
	DisplayURL        string    `json:"displayUrl"`
	PosterURL         string    `json:"posterUrl,omitempty"`
	IsEmbeddableFrame bool      `json:"isEmbeddableFrame"`
	Alt               string    `json:"alt,omitempty"`
}

const ProxyPath = "/proxy"

// hotlinkHosts refuse requests whose referer is not their own site.
var hotlinkHosts = []string{
	"sinaimg.cn",
	"weibo.com",
	"weibo.cn",
	"douyinpic.com",
	"douyinvod.com",
	"byteimg.com",
	"xhscdn.com",
	"xiaohongshu.com",
}

func NeedsProxy(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, h := range hotlinkHosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}

func ProxiedURL(raw string) string {
	return ProxyPath + "?url=" + url.QueryEscape(raw)
}

// NewImage builds an image item, proxying hosts with hotlink protection.
func NewImage(src string) MediaItem {
	src = NormalizeMediaURL(src)
	display := src
	if NeedsProxy(src) {
		display = ProxiedURL(src)
	}
	return MediaItem{Kind: MediaImage, SourceURL: src, DisplayURL: display}
}

// NewVideo builds a playable video item.
func NewVideo(src, poster string) MediaItem {
	item := NewImage(src)
	item.Kind = MediaVideo
	if poster != "" {
		item.PosterURL = NormalizeMediaURL(poster)
	}
	return item
}

// NewVideoFrame builds a video that must be opened on the platform.
func NewVideoFrame(pageURL, poster string) MediaItem {
	item := MediaItem{
		Kind:              MediaVideo,
		SourceURL:         NormalizeMediaURL(pageURL),
		DisplayURL:        NormalizeMediaURL(pageURL),
		IsEmbeddableFrame: true,
	}
	if poster != "" {
		item.PosterURL = NormalizeMediaURL(poster)
	}
	return item
}

// NormalizeMediaURL fixes protocol-relative and plain-http CDN links.
func NormalizeMediaURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "//") {
		return "https:" + raw
	}
	if strings.HasPrefix(raw, "http://") && NeedsProxy(raw) {
		return "https://" + strings.TrimPrefix(raw, "http://")
	}
	return raw
}

// DedupeMedia keeps the first item for each source URL, preserving order.
func DedupeMedia(items []MediaItem) []MediaItem {
	seen := make(map[string]struct{}, len(items))
	out := make([]MediaItem, 0, len(items))
	for _, it := range items {
		key := strings.TrimSpace(it.SourceURL)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, it)
	}
	return out
}

// WithProxiedDisplay rewrites display URLs of hotlink-protected media.
func WithProxiedDisplay(items []MediaItem) []MediaItem {
	out := make([]MediaItem, len(items))
	for i, it := range items {
		if !it.IsEmbeddableFrame && NeedsProxy(it.SourceURL) {
			it.DisplayURL = ProxiedURL(it.SourceURL)
		}
		if it.DisplayURL == "" {
			it.DisplayURL = it.SourceURL
		}
		out[i] = it
	}
	return out
}
