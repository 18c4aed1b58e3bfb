package browser

import (
	"testing"

	"fan-feed-go/internal/config"
)

func TestScrapePage_LongestTextImagesAndEngagement(t *testing.T) {
	rendered := `<html><head><title>微博正文</title></head><body>
<div class="weibo-text">短文</div>
<div class="m-text-box">这是一条比较长的微博正文，包含了完整的内容。</div>
<div class="pic"><img src="//wx1.sinaimg.cn/orj360/a.jpg"></div>
<img src="https://wx2.sinaimg.cn/large/b.jpg">
<img src="https://wx2.sinaimg.cn/large/b.jpg">
<img src="data:image/png;base64,xxx" class="pic">
<footer>
<span>转发 12</span>
<span>评论 3</span>
<span>1.2万 赞</span>
</footer>
</body></html>`

	res := ScrapePage(rendered, "https://m.weibo.cn/detail/1", DefaultSelectors)
	if res.Text != "这是一条比较长的微博正文，包含了完整的内容。" {
		t.Fatalf("Text=%q", res.Text)
	}
	if len(res.Media) != 2 {
		t.Fatalf("Media=%+v", res.Media)
	}
	if res.Media[0].SourceURL != "https://wx2.sinaimg.cn/large/b.jpg" && res.Media[1].SourceURL != "https://wx2.sinaimg.cn/large/b.jpg" {
		t.Fatalf("missing deduped image: %+v", res.Media)
	}
	if res.Engagement.Likes == nil || *res.Engagement.Likes != 12000 {
		t.Fatalf("Likes=%v", res.Engagement.Likes)
	}
	if res.Engagement.Comments == nil || *res.Engagement.Comments != 3 {
		t.Fatalf("Comments=%v", res.Engagement.Comments)
	}
	if res.Engagement.Shares == nil || *res.Engagement.Shares != 12 {
		t.Fatalf("Shares=%v", res.Engagement.Shares)
	}
}

func TestScrapePage_NoCountsStayAbsent(t *testing.T) {
	res := ScrapePage(`<html><body><div class="desc">普通的描述内容没有数字</div></body></html>`, "https://www.xiaohongshu.com/explore/1", DefaultSelectors)
	if res.Text == "" {
		t.Fatalf("expected text")
	}
	if !res.Engagement.IsEmpty() {
		t.Fatalf("expected no engagement, got %+v", res.Engagement)
	}
}

func TestNewRendererFromConfig_DisabledByDefault(t *testing.T) {
	r, err := NewRendererFromConfig(config.Config{BrowserEnabled: false, BrowserDriver: "playwright"}, nil)
	if err != nil || r != nil {
		t.Fatalf("disabled browser should yield nil renderer, got %v %v", r, err)
	}
	r, err = NewRendererFromConfig(config.Config{BrowserEnabled: true, BrowserDriver: "chromedp"}, nil)
	if err != nil {
		t.Fatalf("chromedp renderer err: %v", err)
	}
	if _, ok := r.(*ChromedpRenderer); !ok {
		t.Fatalf("expected chromedp renderer, got %T", r)
	}
	if _, err := NewRendererFromConfig(config.Config{BrowserEnabled: true, BrowserDriver: "selenium"}, nil); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}

func TestBuildChromeArgs(t *testing.T) {
	args := buildChromeArgs(CDPOptions{DebugPort: 9333, UserAgent: "ua", Headless: true, ProxyServer: "http://1.2.3.4:80"}, "/tmp/x")
	want := map[string]bool{
		"--remote-debugging-port=9333":     false,
		"--window-size=375,667":            false,
		"--user-agent=ua":                  false,
		"--proxy-server=http://1.2.3.4:80": false,
		"--headless=new":                   false,
	}
	for _, a := range args {
		if _, ok := want[a]; ok {
			want[a] = true
		}
	}
	for k, seen := range want {
		if !seen {
			t.Fatalf("missing arg %s in %v", k, args)
		}
	}
}
