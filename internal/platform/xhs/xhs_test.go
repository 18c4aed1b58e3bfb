package xhs

import (
	"context"
	"strings"
	"testing"

	"fan-feed-go/internal/cascade"
	"fan-feed-go/internal/extract"
	"fan-feed-go/internal/model"
	"fan-feed-go/internal/platform"
	"fan-feed-go/internal/scrape"
)

const shareFixture = "77 小鹿发布了一篇小红书笔记，快来看吧！ 今天的舞台妆容分享 #妆容 😆 6B6ZRuGXCH8 😆 http://xhslink.com/n/599W1aV2kpR，复制本条信息，打开【小红书】App查看精彩内容！"

func TestParseShareText(t *testing.T) {
	hint := ParseShareText(shareFixture)
	if hint.Author != "小鹿" {
		t.Fatalf("author=%q", hint.Author)
	}
	if hint.NoteOrVideoID != "6B6ZRuGXCH8" {
		t.Fatalf("id=%q", hint.NoteOrVideoID)
	}
	if hint.CanonicalURL != "http://xhslink.com/n/599W1aV2kpR" {
		t.Fatalf("url=%q", hint.CanonicalURL)
	}
	if hint.RawDescription != "今天的舞台妆容分享 #妆容" {
		t.Fatalf("description=%q", hint.RawDescription)
	}
	if hint.OriginalText != "今天的舞台妆容分享 #妆容" {
		t.Fatalf("original=%q", hint.OriginalText)
	}
	if len(hint.Hashtags) != 1 || hint.Hashtags[0] != "妆容" {
		t.Fatalf("hashtags=%v", hint.Hashtags)
	}
	if again := ParseShareText(hint.OriginalText).OriginalText; again != hint.OriginalText {
		t.Fatalf("not idempotent: %q", again)
	}
}

func TestExtractNoteID(t *testing.T) {
	cases := map[string]string{
		"http://xhslink.com/n/599W1aV2kpR":                          "599W1aV2kpR",
		"http://xhslink.com/a/AbCd123":                              "AbCd123",
		"https://www.xiaohongshu.com/explore/6B6ZRuGXCH8?xsec=1":    "6B6ZRuGXCH8",
		"https://www.xiaohongshu.com/discovery/item/6B6ZRuGXCH8":    "6B6ZRuGXCH8",
		"https://www.xiaohongshu.com/user/profile/5f1a2b3c4d5e6f7a": "",
	}
	for in, want := range cases {
		if got := ExtractNoteID(in); got != want {
			t.Fatalf("ExtractNoteID(%q)=%q want %q", in, got, want)
		}
	}
	if got := ExtractUserID("https://www.xiaohongshu.com/user/profile/5f1a2b3c4d5e6f7a"); got != "5f1a2b3c4d5e6f7a" {
		t.Fatalf("ExtractUserID=%q", got)
	}
}

func TestFilterChrome(t *testing.T) {
	if got := FilterChrome(" 小红书 "); got != "" {
		t.Fatalf("FilterChrome=%q", got)
	}
	if got := FilterChrome("太短了"); got != "" {
		t.Fatalf("FilterChrome=%q", got)
	}
	if got := FilterChrome("今天的舞台妆容分享，大家喜欢吗"); got == "" {
		t.Fatalf("real text dropped")
	}
}

func TestMapNote_InitialState(t *testing.T) {
	html := `<script>window.__INITIAL_STATE__={"note":{"noteDetailMap":{"6B6ZRuGXCH8":{"note":{
		"noteId":"6B6ZRuGXCH8","title":"舞台妆容","desc":"今天的舞台妆容分享 #妆容[话题]#","type":"normal","time":1727755200000,
		"user":{"nickname":"小鹿","userId":"u1"},
		"imageList":[{"urlDefault":"http://sns-webpic-qc.xhscdn.com/a.jpg"},{"urlDefault":"http://sns-webpic-qc.xhscdn.com/b.jpg"}],
		"interactInfo":{"likedCount":"1.5万","commentCount":"320","shareCount":"10+"},
		"extra":undefined}}}}}</script>`
	md, name, ok := extract.Run(Strategies(), html)
	if !ok || name != "xhs_initial_state" {
		t.Fatalf("ok=%v name=%q", ok, name)
	}
	if md.Title != "舞台妆容" || md.Author != "小鹿" || !strings.HasPrefix(md.Description, "今天的舞台妆容分享") {
		t.Fatalf("md=%+v", md)
	}
	if len(md.Media) != 2 || md.ContentType != model.ContentImage {
		t.Fatalf("media=%+v type=%s", md.Media, md.ContentType)
	}
	if !strings.HasPrefix(md.Media[0].SourceURL, "https://") || !strings.HasPrefix(md.Media[0].DisplayURL, "/proxy?url=") {
		t.Fatalf("media[0]=%+v", md.Media[0])
	}
	c := md.Engagement.Counts()
	if c.Likes != 15000 || c.Comments != 320 || c.Shares != 10 {
		t.Fatalf("counts=%+v", c)
	}
	if md.PublishedAt == nil || md.PublishedAt.Unix() != 1727755200 {
		t.Fatalf("publishedAt=%v", md.PublishedAt)
	}
}

func TestNoteMedia_Video(t *testing.T) {
	n := Note{NoteID: "abc", Type: "video", ImageList: []Image{{URLDefault: "https://sns-webpic-qc.xhscdn.com/cover.jpg"}}}
	items := n.Media()
	if len(items) != 1 || !items[0].IsEmbeddableFrame || items[0].PosterURL == "" {
		t.Fatalf("items=%+v", items)
	}
	n.Video.Media.Stream = map[string][]StreamItem{"h264": {{MasterURL: "https://sns-video-bd.xhscdn.com/v.mp4"}}}
	items = n.Media()
	if len(items) != 1 || items[0].IsEmbeddableFrame || items[0].Kind != model.MediaVideo {
		t.Fatalf("items=%+v", items)
	}
}

func TestPlatform_PipelineAndPrepare(t *testing.T) {
	p := New(platform.Deps{})
	want := []cascade.State{cascade.StateRSS, cascade.StateStructuredResolve, cascade.StateShareTextOnly, cascade.StateManualAssistant}
	got := p.Pipeline().States()
	if len(got) != len(want) {
		t.Fatalf("states=%v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("states=%v", got)
		}
	}

	in, err := p.Prepare(context.Background(), platform.FetchRequest{URL: "https://www.xiaohongshu.com/explore/6B6ZRuGXCH8"})
	if err != nil || in.PostID != "6B6ZRuGXCH8" {
		t.Fatalf("in=%+v err=%v", in, err)
	}
	if _, err := p.Prepare(context.Background(), platform.FetchRequest{URL: "https://weibo.com/1/Ab"}); !scrape.IsInvalidInput(err) {
		t.Fatalf("err=%v", err)
	}
}
