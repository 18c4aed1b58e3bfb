package douyin

import (
	"net/url"
	"regexp"
	"strings"
)

// Domains a douyin link may live on.
var Domains = []string{"douyin.com", "iesdouyin.com", "douyinvod.com"}

var (
	reAwemePath = regexp.MustCompile(`^/(?:share/)?(?:video|note|slides)/(\d{8,})`)
	reUserPath  = regexp.MustCompile(`^/(?:share/)?user/([^/?]+)`)
	reBareLink  = regexp.MustCompile(`v\.douyin\.com/([A-Za-z0-9_-]+)`)
)

// Link is what a douyin URL says about the post before any network call.
// Short links carry only ShortCode until they are expanded.
type Link struct {
	AwemeID   string
	ShortCode string
	SecUID    string
}

// ParseLink accepts a full URL, a scheme-less URL, or a bare aweme id.
func ParseLink(input string) Link {
	s := strings.TrimSpace(input)
	if isDigits(s) {
		return Link{AwemeID: s}
	}
	if strings.HasPrefix(s, "MS4wLjABAAAA") && !strings.ContainsAny(s, "/?") {
		return Link{SecUID: s}
	}
	if s != "" && !strings.Contains(s, "://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		if m := reBareLink.FindStringSubmatch(input); len(m) == 2 {
			return Link{ShortCode: m[1]}
		}
		return Link{}
	}

	var l Link
	q := u.Query()
	host := strings.ToLower(u.Hostname())
	if host == "v.douyin.com" {
		l.ShortCode = strings.Trim(u.Path, "/")
		return l
	}
	switch {
	case isDigits(q.Get("modal_id")):
		l.AwemeID = q.Get("modal_id")
	case isDigits(q.Get("item_ids")):
		l.AwemeID = q.Get("item_ids")
	default:
		if m := reAwemePath.FindStringSubmatch(u.Path); len(m) == 2 {
			l.AwemeID = m[1]
		}
	}
	if m := reUserPath.FindStringSubmatch(u.Path); len(m) == 2 {
		l.SecUID = m[1]
	} else if v := q.Get("sec_uid"); v != "" {
		l.SecUID = v
	}
	return l
}

// ID is the best identifier available: the aweme id, else the short code.
func (l Link) ID() string {
	if l.AwemeID != "" {
		return l.AwemeID
	}
	return l.ShortCode
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
