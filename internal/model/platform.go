package model

import "strings"

type Platform string

const (
	PlatformWeibo     Platform = "weibo"
	PlatformDouyin    Platform = "douyin"
	PlatformXHS       Platform = "xhs"
	PlatformInstagram Platform = "instagram"
	PlatformSohu      Platform = "sohu"
)

var platformAliases = map[string]Platform{
	"weibo":       PlatformWeibo,
	"wb":          PlatformWeibo,
	"微博":          PlatformWeibo,
	"douyin":      PlatformDouyin,
	"dy":          PlatformDouyin,
	"抖音":          PlatformDouyin,
	"xhs":         PlatformXHS,
	"red":         PlatformXHS,
	"rednotes":    PlatformXHS,
	"xiaohongshu": PlatformXHS,
	"小红书":         PlatformXHS,
	"instagram":   PlatformInstagram,
	"sohu":        PlatformSohu,
}

// ParsePlatform maps a platform name or alias to its canonical value.
func ParsePlatform(s string) (Platform, bool) {
	p, ok := platformAliases[strings.ToLower(strings.TrimSpace(s))]
	return p, ok
}
