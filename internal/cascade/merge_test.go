package cascade

import (
	"strings"
	"testing"
	"time"

	"fan-feed-go/internal/model"
)

var testMerge = MergeOptions{SubstantialTextLen: 50, MinHintTextLen: 12}

func TestMerge_SubstantialResolvedDescriptionBeatsHint(t *testing.T) {
	desc := strings.Repeat("长", 80)
	hintText := strings.Repeat("短", 30)
	md := model.ResolvedMetadata{ResolvedURL: "https://www.xiaohongshu.com/explore/abc", Description: desc}
	in := Input{ShareText: "raw share " + hintText, Hint: model.ShareHint{OriginalText: hintText}}

	got := Merge(testMerge, in, []Outcome{{State: StateStructuredResolve, Resolved: &md}}, -1)
	if got.Text != desc {
		t.Fatalf("Text = %q, want resolved description", got.Text)
	}
}

func TestMerge_TextFallbacks(t *testing.T) {
	short := model.ResolvedMetadata{ResolvedURL: "u", Title: "小红书"}
	outcomes := []Outcome{{State: StateStructuredResolve, Resolved: &short}}

	in := Input{ShareText: "看看这条笔记", Hint: model.ShareHint{OriginalText: "这是一条足够长的分享文字内容"}}
	if got := Merge(testMerge, in, outcomes, -1).Text; got != in.Hint.OriginalText {
		t.Fatalf("Text = %q, want hint text", got)
	}

	in = Input{ShareText: "  原始  分享文字 ", Hint: model.ShareHint{OriginalText: "太短"}}
	if got := Merge(testMerge, in, outcomes, -1).Text; got != "原始 分享文字" {
		t.Fatalf("Text = %q, want raw share text", got)
	}

	in = Input{URL: "https://www.xiaohongshu.com/explore/abc"}
	if got := Merge(testMerge, in, outcomes, -1).Text; got != "小红书" {
		t.Fatalf("Text = %q, want resolved title when nothing else exists", got)
	}
}

func TestMerge_FetchedTextWins(t *testing.T) {
	md := model.ResolvedMetadata{ResolvedURL: "u", Description: strings.Repeat("长", 80)}
	outcomes := []Outcome{
		{State: StateMobileJSON, Text: "手机接口返回的正文"},
		{State: StateStructuredResolve, Resolved: &md},
	}
	got := Merge(testMerge, Input{}, outcomes, 0)
	if got.Text != "手机接口返回的正文" {
		t.Fatalf("Text = %q", got.Text)
	}
}

func TestMerge_EngagementNeverClearedByAbsentCounts(t *testing.T) {
	md := model.ResolvedMetadata{
		ResolvedURL: "u",
		Engagement:  model.PartialEngagement{Likes: model.Count(5), Comments: model.Count(2)},
	}
	outcomes := []Outcome{
		{State: StateMobileJSON, Engagement: model.PartialEngagement{Shares: model.Count(9)}},
		{State: StateBrowser, Text: "浏览器抓取到的完整正文", Engagement: model.PartialEngagement{Likes: model.Count(7)}},
		{State: StateStructuredResolve, Resolved: &md},
	}
	got := Merge(testMerge, Input{}, outcomes, 1).Engagement.Counts()
	want := model.EngagementCounts{Likes: 7, Comments: 2, Shares: 9}
	if got != want {
		t.Fatalf("Engagement = %+v, want %+v", got, want)
	}
}

func TestMerge_PublishDatePrecedence(t *testing.T) {
	resolvedAt := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	hintAt := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	md := model.ResolvedMetadata{ResolvedURL: "u", PublishedAt: &resolvedAt}
	outcomes := []Outcome{{State: StateStructuredResolve, Resolved: &md}}

	in := Input{ShareText: "舞台直播 20240615 https://v.douyin.com/x/", Hint: model.ShareHint{PublishDate: &hintAt}}
	got := Merge(testMerge, in, outcomes, -1).PublishedAt
	if got == nil || got.Year() != 2024 || got.Month() != time.June || got.Day() != 15 {
		t.Fatalf("PublishedAt = %v, want date stamp", got)
	}

	in.ShareText = "没有日期"
	if got := Merge(testMerge, in, outcomes, -1).PublishedAt; got == nil || !got.Equal(resolvedAt) {
		t.Fatalf("PublishedAt = %v, want resolver date", got)
	}

	if got := Merge(testMerge, in, nil, -1).PublishedAt; got == nil || !got.Equal(hintAt) {
		t.Fatalf("PublishedAt = %v, want hint date", got)
	}
}

func TestMerge_MediaUnionAndContentType(t *testing.T) {
	img := model.NewImage("https://wx1.sinaimg.cn/large/a.jpg")
	md := model.ResolvedMetadata{ResolvedURL: "u", Media: []model.MediaItem{img}, ContentType: model.ContentUnknown}
	outcomes := []Outcome{
		{State: StateMobileJSON, Media: []model.MediaItem{img, model.NewImage("https://wx1.sinaimg.cn/large/b.jpg")}},
		{State: StateStructuredResolve, Resolved: &md},
	}
	got := Merge(testMerge, Input{Hint: model.ShareHint{LooksLikeVideo: true}}, outcomes, -1)
	if len(got.Media) != 2 {
		t.Fatalf("Media = %+v", got.Media)
	}
	if got.ContentType != model.ContentImage {
		t.Fatalf("ContentType = %q, media evidence should beat the keyword hint", got.ContentType)
	}

	got = Merge(testMerge, Input{Hint: model.ShareHint{LooksLikeVideo: true}}, nil, -1)
	if got.ContentType != model.ContentVideo {
		t.Fatalf("ContentType = %q, want hint signal", got.ContentType)
	}
	if got = Merge(testMerge, Input{}, nil, -1); got.ContentType != model.ContentUnknown {
		t.Fatalf("ContentType = %q, want unknown default", got.ContentType)
	}
}
