package douyin

import (
	"strings"
	"testing"
)

const shareFixture = "7.89 复制打开抖音，看看【小鹿的作品】彩排花絮来啦 #舞台 #现场 https://v.douyin.com/GjQ0V39et9c/ daN:/ 01/20 z@T.YZ"

func TestParseShareText(t *testing.T) {
	hint := ParseShareText(shareFixture)
	if hint.CanonicalURL != "https://v.douyin.com/GjQ0V39et9c/" {
		t.Fatalf("url=%q", hint.CanonicalURL)
	}
	if hint.NoteOrVideoID != "GjQ0V39et9c" {
		t.Fatalf("id=%q", hint.NoteOrVideoID)
	}
	if hint.Title != "小鹿的作品" || hint.Author != "小鹿" {
		t.Fatalf("title=%q author=%q", hint.Title, hint.Author)
	}
	if hint.RawDescription != "彩排花絮来啦" {
		t.Fatalf("description=%q", hint.RawDescription)
	}
	if len(hint.Hashtags) != 2 || hint.Hashtags[0] != "舞台" || hint.Hashtags[1] != "现场" {
		t.Fatalf("hashtags=%v", hint.Hashtags)
	}
	if hint.OriginalText != "彩排花絮来啦 #舞台 #现场" {
		t.Fatalf("original=%q", hint.OriginalText)
	}
	if hint.PublishDate != nil {
		t.Fatalf("tracking code read as date: %v", hint.PublishDate)
	}
	if !hint.LooksLikeVideo {
		t.Fatalf("expected video signal")
	}
	if again := ParseShareText(hint.OriginalText).OriginalText; again != hint.OriginalText {
		t.Fatalf("not idempotent: %q", again)
	}
}

func TestParseShareText_Cases(t *testing.T) {
	cases := []struct {
		in       string
		title    string
		tags     []string
		url      string
		original string
	}{
		{
			in:       "9.99 复制打开抖音，看看【作品标题】描述内容 #话题# https://v.douyin.com/abc123/",
			title:    "作品标题",
			tags:     []string{"话题"},
			url:      "https://v.douyin.com/abc123/",
			original: "描述内容 #话题#",
		},
		{
			in:       "1.23 复制打开抖音，看看【小鹿的作品】今晚的舞台太燃了…… https://v.douyin.com/xyz789/",
			title:    "小鹿的作品",
			url:      "https://v.douyin.com/xyz789/",
			original: "今晚的舞台太燃了",
		},
		{
			in:       "【小鹿的作品】彩排结束啦... https://v.douyin.com/xyz789/",
			title:    "小鹿的作品",
			url:      "https://v.douyin.com/xyz789/",
			original: "彩排结束啦",
		},
	}
	for _, c := range cases {
		hint := ParseShareText(c.in)
		if hint.Title != c.title || hint.CanonicalURL != c.url || hint.OriginalText != c.original {
			t.Fatalf("ParseShareText(%q): title=%q url=%q original=%q", c.in, hint.Title, hint.CanonicalURL, hint.OriginalText)
		}
		if strings.Join(hint.Hashtags, ",") != strings.Join(c.tags, ",") {
			t.Fatalf("ParseShareText(%q): hashtags=%v want %v", c.in, hint.Hashtags, c.tags)
		}
	}
}

func TestParseShareText_LongLink(t *testing.T) {
	hint := ParseShareText("看这个 https://www.douyin.com/video/7525082444551310602 20240315")
	if hint.NoteOrVideoID != "7525082444551310602" {
		t.Fatalf("id=%q", hint.NoteOrVideoID)
	}
	if hint.PublishDate == nil || hint.PublishDate.Format("2006-01-02") != "2024-03-15" {
		t.Fatalf("date=%v", hint.PublishDate)
	}
	if strings.Contains(hint.OriginalText, "http") {
		t.Fatalf("original=%q", hint.OriginalText)
	}
}
