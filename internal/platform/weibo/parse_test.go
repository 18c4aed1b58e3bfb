package weibo

import (
	"strings"
	"testing"
)

func TestParseStatusID(t *testing.T) {
	cases := []struct {
		in      string
		id, uid string
	}{
		{"https://weibo.com/1234567890/NzAbCdEf1", "NzAbCdEf1", "1234567890"},
		{"https://m.weibo.cn/detail/4987654321012345", "4987654321012345", ""},
		{"https://m.weibo.cn/status/NzAbCdEf1?from=share", "NzAbCdEf1", ""},
		{"https://weibo.cn/ajax/statuses/show?id=4987654321012345", "4987654321012345", ""},
		{"4987654321012345", "4987654321012345", ""},
	}
	for _, c := range cases {
		id, uid, err := ParseStatusID(c.in)
		if err != nil {
			t.Fatalf("ParseStatusID(%q) err=%v", c.in, err)
		}
		if id != c.id || uid != c.uid {
			t.Fatalf("ParseStatusID(%q)=(%q,%q) want (%q,%q)", c.in, id, uid, c.id, c.uid)
		}
	}
}

func TestParseStatusID_ShortLinkNeedsExpansion(t *testing.T) {
	if _, _, err := ParseStatusID("http://t.cn/A6abcdEF"); err == nil {
		t.Fatalf("expected error for unexpanded short link")
	}
	if _, _, err := ParseStatusID("   "); err == nil {
		t.Fatalf("expected error for empty input")
	}
}

func TestParseShareText(t *testing.T) {
	share := "分享@小鹿的微博：【今日份开心】今天去看演唱会了 #周杰伦# https://weibo.com/123456/AbCdEf1 (来自微博)"
	hint := ParseShareText(share)
	if hint.NoteOrVideoID != "AbCdEf1" {
		t.Fatalf("id=%q", hint.NoteOrVideoID)
	}
	if hint.CanonicalURL != "https://weibo.com/123456/AbCdEf1" {
		t.Fatalf("url=%q", hint.CanonicalURL)
	}
	if hint.Title != "今日份开心" || hint.Author != "小鹿" {
		t.Fatalf("title=%q author=%q", hint.Title, hint.Author)
	}
	if len(hint.Hashtags) != 1 || hint.Hashtags[0] != "周杰伦" {
		t.Fatalf("hashtags=%v", hint.Hashtags)
	}
	if !strings.Contains(hint.OriginalText, "今天去看演唱会了") {
		t.Fatalf("original text=%q", hint.OriginalText)
	}
	if strings.Contains(hint.OriginalText, "http") || strings.Contains(hint.OriginalText, "来自微博") || strings.Contains(hint.OriginalText, "分享@") {
		t.Fatalf("boilerplate left in %q", hint.OriginalText)
	}
	if again := ParseShareText(hint.OriginalText).OriginalText; again != hint.OriginalText {
		t.Fatalf("not idempotent: %q -> %q", hint.OriginalText, again)
	}
	if hint.LooksLikeVideo {
		t.Fatalf("unexpected video signal")
	}
}

func TestParseShareText_Empty(t *testing.T) {
	hint := ParseShareText("")
	if hint.Hashtags == nil || hint.CanonicalURL != "" || hint.OriginalText != "" {
		t.Fatalf("hint=%+v", hint)
	}
}
