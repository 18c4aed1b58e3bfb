package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var videoFileRe = regexp.MustCompile(`(?i)\.(mp4|webm|ogg|mov|m3u8)(?:[?"'\s#]|$)`)

// LooksLikeVideoPage reports positive evidence that a page carries video.
func LooksLikeVideoPage(doc *goquery.Document, body string) bool {
	if doc != nil {
		if doc.Find("video").Length() > 0 {
			return true
		}
		if doc.Find(`meta[property^="og:video"], meta[name^="og:video"], meta[property^="video:"]`).Length() > 0 {
			return true
		}
		if t := metaContent(doc, `meta[property="og:type"]`); strings.HasPrefix(strings.ToLower(t), "video") {
			return true
		}
		if doc.Find(`[class*="video-player"], [class*="video-wrapper"]`).Length() > 0 {
			return true
		}
	}
	return videoFileRe.MatchString(body)
}
