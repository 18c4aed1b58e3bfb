package weibo

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"fan-feed-go/internal/model"
	"fan-feed-go/internal/sharetext"
)

var (
	reStatusURL = regexp.MustCompile(`weibo\.com/(\d+)/([A-Za-z0-9]+)`)
	reMobileURL = regexp.MustCompile(`m\.weibo\.cn/(?:detail|status)/(\w+)`)
	reWeiboID   = regexp.MustCompile(`(?i)\b([0-9A-Za-z]{6,})\b`)
	reLinkHost  = regexp.MustCompile(`(?i)(?:weibo\.com|weibo\.cn|t\.cn)/`)

	reTitle  = regexp.MustCompile(`【([^】]+)】`)
	reAuthor = regexp.MustCompile(`@([^\s@:：的]+)(?:\s*的微博|[:：])`)
)

// Domains a weibo link may live on, short links included.
var Domains = []string{"weibo.com", "weibo.cn", "t.cn", "sina.cn"}

// ParseStatusID finds the status id and, when the URL carries one, the
// author uid.
func ParseStatusID(input string) (id string, uid string, err error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return "", "", fmt.Errorf("empty input")
	}
	if m := reStatusURL.FindStringSubmatch(s); len(m) == 3 {
		return m[2], m[1], nil
	}
	if m := reMobileURL.FindStringSubmatch(s); len(m) == 2 {
		return m[1], "", nil
	}
	if looksLikeURL(s) {
		u, err := url.Parse(s)
		if err == nil && u != nil {
			if v := strings.TrimSpace(u.Query().Get("id")); v != "" {
				return v, "", nil
			}
			if strings.EqualFold(u.Hostname(), "t.cn") {
				return "", "", fmt.Errorf("short link must be expanded first: %s", input)
			}
			path := strings.Trim(u.Path, "/")
			if path != "" {
				parts := strings.Split(path, "/")
				last := strings.TrimSpace(parts[len(parts)-1])
				if m := reWeiboID.FindString(last); m != "" {
					return m, "", nil
				}
			}
		}
		return "", "", fmt.Errorf("cannot parse weibo status id from: %s", input)
	}
	if m := reWeiboID.FindString(s); m != "" {
		return m, "", nil
	}
	return "", "", fmt.Errorf("cannot parse weibo status id from: %s", input)
}

func looksLikeURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

var boilerplate = sharetext.Pipeline{
	{Name: "url_tail", Pattern: regexp.MustCompile(`\s*https?://\S+.*$`)},
	{Name: "shared_from", Pattern: regexp.MustCompile(`[（(]?分享自\s*@?[^）)\s]*[）)]?`)},
	{Name: "author_prefix", Pattern: regexp.MustCompile(`^\s*分享\s*@[^\s@]+?\s*的微博[:：]?`)},
	{Name: "from_weibo", Pattern: regexp.MustCompile(`[（(]?来自(?:微博|新浪微博)[^）)\s]*[）)]?`)},
	{Name: "open_app", Pattern: regexp.MustCompile(`[（(]?(?:打开|下载)微博\s*(?:App|客户端)?[^）)\s]*[）)]?`)},
	{Name: "ellipsis", Pattern: regexp.MustCompile(`(?:\.{3,}|…+)\s*(?:全文)?$`)},
}

// ParseShareText reads a string copied from Weibo's share sheet. It makes no
// network calls and never panics.
func ParseShareText(text string) model.ShareHint {
	return sharetext.Guard(func() model.ShareHint {
		hint := model.EmptyHint()
		text = strings.TrimSpace(text)
		if text == "" {
			return hint
		}
		hint.CanonicalURL = sharetext.FindURL(text, reLinkHost)
		if hint.CanonicalURL != "" {
			if id, _, err := ParseStatusID(hint.CanonicalURL); err == nil {
				hint.NoteOrVideoID = id
			}
		}
		if m := reTitle.FindStringSubmatch(text); len(m) == 2 {
			hint.Title = strings.TrimSpace(m[1])
		}
		if m := reAuthor.FindStringSubmatch(text); len(m) == 2 {
			hint.Author = strings.TrimSpace(m[1])
		}
		hint.Hashtags = sharetext.Hashtags(text)
		hint.RawDescription = sharetext.CollapseSpace(strings.Replace(text, hint.CanonicalURL, "", 1))
		hint.OriginalText = boilerplate.Apply(text)
		hint.PublishDate = sharetext.DateStamp(text)
		hint.LooksLikeVideo = sharetext.LooksLikeVideo(text)
		return hint
	})
}
