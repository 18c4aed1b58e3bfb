package douyin

import (
	"regexp"
	"strings"

	"fan-feed-go/internal/model"
	"fan-feed-go/internal/sharetext"
)

var (
	reLinkHost = regexp.MustCompile(`(?i)douyin\.com/`)
	reTitle    = regexp.MustCompile(`【([^】]+)】`)
	reDescTail = regexp.MustCompile(`^([^#]*?)(?:#|https?:|$)`)
)

var boilerplate = sharetext.Pipeline{
	{Name: "open_app", Pattern: regexp.MustCompile(`^\d+\.\d+\s*复制打开抖音，?\s*看看`)},
	{Name: "title_bracket", Pattern: regexp.MustCompile(`【[^】]*】`)},
	{Name: "url_tail", Pattern: regexp.MustCompile(`\s*https?://\S+.*$`)},
	{Name: "tracking_dan", Pattern: regexp.MustCompile(`\s+daN:/.*$`)},
	{Name: "tracking_zat", Pattern: regexp.MustCompile(`\s+z@T\.YZ.*$`)},
	{Name: "ellipsis", Pattern: regexp.MustCompile(`(?:\.{3,}|…+)$`)},
}

// ParseShareText reads a string copied from Douyin's share sheet, such as
// "7.89 复制打开抖音，看看【某某的作品】描述 #话题 https://v.douyin.com/abc/ daN:/ ...".
// The trailing codes are tracking tokens, not dates.
func ParseShareText(text string) model.ShareHint {
	return sharetext.Guard(func() model.ShareHint {
		hint := model.EmptyHint()
		text = strings.TrimSpace(text)
		if text == "" {
			return hint
		}
		hint.CanonicalURL = sharetext.FindURL(text, reLinkHost)
		if hint.CanonicalURL != "" {
			hint.NoteOrVideoID = ParseLink(hint.CanonicalURL).ID()
		}
		if m := reTitle.FindStringSubmatch(text); len(m) == 2 {
			hint.Title = strings.TrimSpace(m[1])
			if name, ok := strings.CutSuffix(hint.Title, "的作品"); ok {
				hint.Author = strings.TrimSpace(name)
			}
			after := text[strings.Index(text, "】")+len("】"):]
			if d := reDescTail.FindStringSubmatch(after); len(d) == 2 {
				hint.RawDescription = strings.TrimSpace(d[1])
			}
		}
		if hint.RawDescription == "" {
			hint.RawDescription = sharetext.CollapseSpace(strings.Replace(text, hint.CanonicalURL, "", 1))
		}
		hint.Hashtags = sharetext.Hashtags(text)
		hint.OriginalText = boilerplate.Apply(text)
		if hint.OriginalText == "" {
			hint.OriginalText = text
		}
		hint.PublishDate = sharetext.DateStamp(text)
		hint.LooksLikeVideo = sharetext.LooksLikeVideo(text)
		return hint
	})
}
