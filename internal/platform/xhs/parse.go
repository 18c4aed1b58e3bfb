package xhs

import (
	"regexp"
	"strings"

	"fan-feed-go/internal/model"
	"fan-feed-go/internal/sharetext"
)

var (
	reShortLink = regexp.MustCompile(`xhslink\.com/(?:[an]/)?([A-Za-z0-9]+)`)
	reNoteURL   = regexp.MustCompile(`xiaohongshu\.com/(?:explore|discovery/item)/([A-Za-z0-9]+)`)
	reUserURL   = regexp.MustCompile(`xiaohongshu\.com/user/profile/([A-Za-z0-9]+)`)
	reLinkHost  = regexp.MustCompile(`(?i)(?:xhslink|xiaohongshu)\.com/`)
	reAuthor    = regexp.MustCompile(`(\d+)\s+([^发]+)发布了一篇小红书笔记`)
	reNoteToken = regexp.MustCompile(`[😆🌟✨💫⭐]\s*([A-Za-z0-9]{10,})`)
	reTitle     = regexp.MustCompile(`【([^】]+)】`)
)

const descStart = "笔记，快来看吧！"

// Domains an xhs link may live on.
var Domains = []string{"xiaohongshu.com", "xhslink.com", "xhscdn.com"}

// ExtractNoteID returns the note id of a full link, or the path code of an
// xhslink short link.
func ExtractNoteID(input string) string {
	if m := reShortLink.FindStringSubmatch(input); len(m) == 2 {
		return m[1]
	}
	if m := reNoteURL.FindStringSubmatch(input); len(m) == 2 {
		return m[1]
	}
	return ""
}

func ExtractUserID(input string) string {
	if m := reUserURL.FindStringSubmatch(input); len(m) == 2 {
		return m[1]
	}
	return ""
}

var boilerplate = sharetext.Pipeline{
	{Name: "author_line", Pattern: regexp.MustCompile(`^\s*\d+\s+[^发\n]+发布了一篇小红书笔记，快来看吧！`)},
	{Name: "note_token", Pattern: regexp.MustCompile(`\s*[😆🌟✨💫⭐]\s*[A-Za-z0-9]{10,}\s*[😆🌟✨💫⭐]?`)},
	{Name: "url_tail", Pattern: regexp.MustCompile(`\s*https?://\S+.*$`)},
	{Name: "open_app", Pattern: regexp.MustCompile(`复制本条信息，打开【小红书】App查看精彩内容！`)},
}

// ParseShareText reads a string copied from the xhs share sheet, such as
// "77 某某发布了一篇小红书笔记，快来看吧！ 描述 😆 6B6ZRuGXCH8 😆 http://xhslink.com/n/abc，复制本条信息，打开【小红书】App查看精彩内容！".
func ParseShareText(text string) model.ShareHint {
	return sharetext.Guard(func() model.ShareHint {
		hint := model.EmptyHint()
		text = strings.TrimSpace(text)
		if text == "" {
			return hint
		}
		hint.CanonicalURL = sharetext.FindURL(text, reLinkHost)
		author := reAuthor.FindStringSubmatch(text)
		if len(author) == 3 {
			hint.Author = strings.TrimSpace(author[2])
		}
		token := reNoteToken.FindStringSubmatch(text)
		if len(token) == 2 {
			hint.NoteOrVideoID = token[1]
		} else {
			hint.NoteOrVideoID = ExtractNoteID(hint.CanonicalURL)
		}
		if len(author) == 3 && len(token) == 2 {
			if i := strings.Index(text, descStart); i >= 0 {
				after := text[i+len(descStart):]
				if j := strings.Index(after, token[0]); j >= 0 {
					hint.RawDescription = strings.TrimSpace(after[:j])
				}
			}
		}
		if m := reTitle.FindStringSubmatch(hint.RawDescription); len(m) == 2 {
			hint.Title = strings.TrimSpace(m[1])
		} else if hint.RawDescription != "" {
			hint.Title = sharetext.Truncate(hint.RawDescription, 40)
		}
		hint.Hashtags = sharetext.Hashtags(text)
		hint.OriginalText = boilerplate.Apply(text)
		hint.PublishDate = sharetext.DateStamp(text)
		hint.LooksLikeVideo = sharetext.LooksLikeVideo(text)
		return hint
	})
}
