package weibo

import (
	"net/url"
	"strings"

	"fan-feed-go/internal/extract"
	"fan-feed-go/internal/model"
)

const (
	sinaImageHost = "https://wx1.sinaimg.cn"
	h5PlayerURL   = "https://m.weibo.cn/s/video/show?object_id="
)

var mp4Keys = []string{"mp4_1080p_mp4", "mp4_720p_mp4", "mp4_hd_mp4", "mp4_sd_mp4", "mp4_ld_mp4"}

// StatusMedia lists a status's images and video, then those of the status
// it reposts.
func StatusMedia(status map[string]any) []model.MediaItem {
	if status == nil {
		return nil
	}
	items := statusImages(status)
	items = append(items, statusVideo(status)...)
	if rt := extract.Obj(status["retweeted_status"]); rt != nil {
		items = append(items, StatusMedia(rt)...)
	}
	return model.DedupeMedia(items)
}

func statusImages(m map[string]any) []model.MediaItem {
	var out []model.MediaItem
	for _, it := range extract.Arr(m["pics"]) {
		pm := extract.Obj(it)
		if pm == nil {
			continue
		}
		if u := httpURL(extract.Str(pm, "large.url", "url", "pic_big", "pic_large")); u != "" {
			out = append(out, model.NewImage(u))
		}
	}
	if len(out) > 0 {
		return out
	}
	for _, it := range extract.Arr(m["pic_urls"]) {
		pm := extract.Obj(it)
		if pm == nil {
			continue
		}
		u := httpURL(extract.Str(pm, "original_pic", "large_pic", "url"))
		if u == "" {
			u = largeFromThumb(httpURL(extract.Str(pm, "thumbnail_pic")))
		}
		if u == "" {
			continue
		}
		if isVideoFile(u) {
			out = append(out, model.NewVideo(u, extract.Str(pm, "thumbnail_pic")))
		} else {
			out = append(out, model.NewImage(u))
		}
	}
	if len(out) > 0 {
		return out
	}
	for _, id := range extract.Arr(m["pic_ids"]) {
		if s, ok := id.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, model.NewImage(sinaImageHost+"/large/"+strings.TrimSpace(s)+".jpg"))
		}
	}
	if len(out) > 0 {
		return out
	}
	if u := httpURL(extract.Str(m, "original_pic", "bmiddle_pic")); u != "" {
		out = append(out, model.NewImage(u))
	} else if u := largeFromThumb(httpURL(extract.Str(m, "thumbnail_pic"))); u != "" {
		out = append(out, model.NewImage(u))
	}
	return out
}

// statusVideo prefers the embeddable H5 player, since direct stream URLs
// are signed and expire.
func statusVideo(m map[string]any) []model.MediaItem {
	pi := extract.Obj(m["page_info"])
	if pi == nil {
		return nil
	}
	poster := httpURL(urlField(pi["page_pic"]))
	if poster == "" {
		poster = httpURL(extract.Str(pi, "pic", "page_pic_small"))
	}
	mi := extract.Obj(pi["media_info"])
	isVideo := strings.Contains(strings.ToLower(extract.Str(pi, "type", "object_type")), "video") || mi != nil

	if isVideo {
		if poster == "" && mi != nil {
			poster = httpURL(extract.Str(mi, "cover_image"))
		}
		if mi != nil {
			if u := httpURL(extract.Str(mi, "h5_url")); u != "" {
				return []model.MediaItem{model.NewVideoFrame(u, poster)}
			}
		}
		if oid := extract.Str(pi, "object_id"); oid != "" {
			return []model.MediaItem{model.NewVideoFrame(h5PlayerURL+url.QueryEscape(oid), poster)}
		}
		if urls := extract.Obj(pi["urls"]); urls != nil {
			for _, k := range mp4Keys {
				if u := httpURL(extract.Str(urls, k)); u != "" {
					return []model.MediaItem{model.NewVideo(u, poster)}
				}
			}
		}
		if mi != nil {
			if u := httpURL(extract.Str(mi, "stream_url_hd", "stream_url", "mp4_720p_mp4", "mp4_hd_url", "mp4_sd_url")); u != "" {
				return []model.MediaItem{model.NewVideo(u, poster)}
			}
		}
	}
	if poster != "" {
		return []model.MediaItem{model.NewImage(poster)}
	}
	return nil
}

// urlField reads fields that are either a URL string or an object with a
// url key.
func urlField(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case map[string]any:
		return extract.Str(x, "url")
	}
	return ""
}

func httpURL(u string) string {
	u = model.NormalizeMediaURL(u)
	if strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
		return u
	}
	return ""
}

func largeFromThumb(u string) string {
	for _, size := range []string{"/thumbnail/", "/thumb150/", "/orj360/", "/mw690/", "/bmiddle/"} {
		if strings.Contains(u, size) {
			return strings.Replace(u, size, "/large/", 1)
		}
	}
	return u
}

func isVideoFile(u string) bool {
	p := strings.ToLower(u)
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	return strings.HasSuffix(p, ".mp4") || strings.HasSuffix(p, ".mov")
}
