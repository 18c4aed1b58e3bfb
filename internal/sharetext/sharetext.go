// Package sharetext holds the platform-neutral pieces of share-string parsing:
// boilerplate stripping, URL and hashtag scanning, and weak content signals.
package sharetext

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"fan-feed-go/internal/model"

	"github.com/microcosm-cc/bluemonday"
)

// Replacement is one boilerplate rule. Every rule must be idempotent.
type Replacement struct {
	Name    string
	Pattern *regexp.Regexp
	With    string
}

// Pipeline applies its rules in order.
type Pipeline []Replacement

const maxPasses = 4

// Apply runs the rules until the text stops changing so that feeding the
// output back in is a no-op.
func (p Pipeline) Apply(s string) string {
	cur := s
	for i := 0; i < maxPasses; i++ {
		next := cur
		for _, r := range p {
			next = r.Pattern.ReplaceAllString(next, r.With)
		}
		next = CollapseSpace(next)
		if next == cur {
			break
		}
		cur = next
	}
	return cur
}

var (
	urlRe      = regexp.MustCompile(`https?://[^\s\p{Han}，。！？、；：“”‘’（）【】《》<>"']+`)
	hashtagRe  = regexp.MustCompile(`#([^#\s]+)#?`)
	spaceRe    = regexp.MustCompile(`[ \t\x{3000}\x{00a0}]+`)
	newlinesRe = regexp.MustCompile(`\s*\n\s*`)
	strict     = bluemonday.StrictPolicy()
	brRe       = regexp.MustCompile(`(?i)<br\s*/?>`)
)

// FindURL returns the first URL matching preferred, else the first URL.
func FindURL(text string, preferred *regexp.Regexp) string {
	all := urlRe.FindAllString(text, -1)
	if preferred != nil {
		for _, u := range all {
			if preferred.MatchString(u) {
				return trimURL(u)
			}
		}
	}
	if len(all) == 0 {
		return ""
	}
	return trimURL(all[0])
}

func trimURL(u string) string {
	return strings.TrimRight(u, ".,;:!?)]}")
}

// Hashtags accepts both #tag# and #tag forms and keeps first-seen order.
func Hashtags(text string) []string {
	out := []string{}
	seen := map[string]struct{}{}
	for _, m := range hashtagRe.FindAllStringSubmatch(text, -1) {
		tag := strings.TrimSpace(strings.Trim(m[1], "#"))
		if tag == "" {
			continue
		}
		if strings.HasPrefix(tag, "http") {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

var videoKeywords = []string{"视频", "录制", "拍摄", "表演", "唱歌", "跳舞", "音乐", "演出", "现场", "MV", "舞台", "直播"}

// LooksLikeVideo is a weak keyword signal. Resolved metadata always wins.
func LooksLikeVideo(text string) bool {
	upper := strings.ToUpper(text)
	for _, kw := range videoKeywords {
		if strings.Contains(upper, kw) {
			return true
		}
	}
	return false
}

func CollapseSpace(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = spaceRe.ReplaceAllString(s, " ")
	s = newlinesRe.ReplaceAllString(s, "\n")
	return strings.TrimSpace(s)
}

// StripTags turns post HTML into plain text, keeping line breaks.
func StripTags(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return CollapseSpace(s)
	}
	s = brRe.ReplaceAllString(s, "\n")
	return CollapseSpace(html.UnescapeString(strict.Sanitize(s)))
}

// RuneLen measures text the way thresholds are defined: trimmed characters.
func RuneLen(s string) int {
	return utf8.RuneCountInString(strings.TrimSpace(s))
}

// Guard runs a parser and turns a panic into an empty hint.
func Guard(parse func() model.ShareHint) (hint model.ShareHint) {
	defer func() {
		if r := recover(); r != nil {
			hint = model.EmptyHint()
		}
		if hint.Hashtags == nil {
			hint.Hashtags = []string{}
		}
	}()
	return parse()
}

// Truncate cuts s to at most n runes, marking the cut with an ellipsis.
func Truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:n])) + "…"
}
