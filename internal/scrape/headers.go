package scrape

import "fan-feed-go/internal/config"

// MobileHeaders are the headers a phone browser sends. Weibo, Douyin and
// Xiaohongshu serve materially different markup without a zh-CN locale.
func MobileHeaders(referer string) map[string]string {
	h := map[string]string{
		"accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"accept-language": acceptLanguage(),
		"user-agent":      config.AppConfig.UserAgentMobile,
	}
	if referer != "" {
		h["referer"] = referer
	}
	return h
}

func DesktopHeaders(referer string) map[string]string {
	h := MobileHeaders(referer)
	h["user-agent"] = config.AppConfig.UserAgentDesktop
	return h
}

// MobileJSONHeaders mimic the XHR calls of a mobile site.
func MobileJSONHeaders(referer string) map[string]string {
	h := MobileHeaders(referer)
	h["accept"] = "application/json, text/plain, */*"
	h["x-requested-with"] = "XMLHttpRequest"
	return h
}

func acceptLanguage() string {
	if v := config.AppConfig.AcceptLanguage; v != "" {
		return v
	}
	return "zh-CN,zh;q=0.9,en;q=0.8"
}
