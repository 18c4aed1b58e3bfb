package weibo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fan-feed-go/internal/cascade"
	"fan-feed-go/internal/config"
	"fan-feed-go/internal/extract"
	"fan-feed-go/internal/platform"
	"fan-feed-go/internal/scrape"
)

func TestPlatform_MobileJSONWins(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		_, _ = w.Write([]byte(cardsFixture))
	}))
	defer srv.Close()

	p := New(platform.Deps{Config: config.Config{
		CascadeMinTextLen:    10,
		WeiboMobileEndpoints: []string{srv.URL + "/index?type=uid&value={uid}"},
	}})
	in, err := p.Prepare(context.Background(), platform.FetchRequest{
		ShareText: "今天的彩排照片 https://weibo.com/1234567890/NzAbCdEf1",
	})
	if err != nil {
		t.Fatalf("Prepare err=%v", err)
	}
	if in.PostID != "NzAbCdEf1" || in.UID != "1234567890" {
		t.Fatalf("input=%+v", in)
	}
	// The id parsed from a desktop link is the bid.
	res := p.Pipeline().Run(context.Background(), in)
	if !res.Success || res.ExtractionMethod != string(cascade.StateMobileJSON) {
		t.Fatalf("result=%+v", res)
	}
	if hits != 1 {
		t.Fatalf("hits=%d", hits)
	}
	if len(res.Attempts) != 1 || res.Attempts[0].Strategy != cascade.StateMobileJSON {
		t.Fatalf("attempts=%+v", res.Attempts)
	}
	if res.Engagement == nil || res.Engagement.Likes != 1200 {
		t.Fatalf("engagement=%+v", res.Engagement)
	}
	if len(res.Media) != 2 || !strings.HasPrefix(res.Media[0].DisplayURL, "/proxy?url=") {
		t.Fatalf("media=%+v", res.Media)
	}
}

func TestPlatform_PrepareRejectsForeignHost(t *testing.T) {
	p := New(platform.Deps{})
	_, err := p.Prepare(context.Background(), platform.FetchRequest{URL: "https://example.com/post/1"})
	if !scrape.IsInvalidInput(err) {
		t.Fatalf("err=%v", err)
	}
	_, err = p.Prepare(context.Background(), platform.FetchRequest{ShareText: "没有链接的分享"})
	if !scrape.IsInvalidInput(err) {
		t.Fatalf("err=%v", err)
	}
}

func TestPlatform_States(t *testing.T) {
	p := New(platform.Deps{})
	want := []cascade.State{
		cascade.StateMobileJSON,
		cascade.StateRSS,
		cascade.StateStructuredResolve,
		cascade.StateShareTextOnly,
		cascade.StateManualAssistant,
	}
	got := p.Pipeline().States()
	if len(got) != len(want) {
		t.Fatalf("states=%v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("states=%v", got)
		}
	}
}

func TestMapStatus_FromRenderData(t *testing.T) {
	html := `<html><script>var $render_data = [{"status":{"id":"1","text":"渲染数据里的微博正文内容","user":{"screen_name":"小鹿"},"attitudes_count":3}}][0] || {};</script></html>`
	md, name, ok := extract.Run(Strategies(), html)
	if !ok || name != "weibo_render_data" {
		t.Fatalf("ok=%v name=%q", ok, name)
	}
	if md.Description != "渲染数据里的微博正文内容" || md.Author != "小鹿" {
		t.Fatalf("md=%+v", md)
	}
	if md.Engagement.Likes == nil || *md.Engagement.Likes != 3 {
		t.Fatalf("engagement=%+v", md.Engagement)
	}
}

func TestClientHelper(t *testing.T) {
	resp, err := ClientHelper(HelperRequest{URL: "https://weibo.com/1/Ab"})
	if err != nil || resp.Script == "" || resp.Data != nil {
		t.Fatalf("resp=%+v err=%v", resp, err)
	}
	if !strings.Contains(resp.Script, `"https://weibo.com/1/Ab"`) || !strings.Contains(resp.Script, HelperEndpoint) {
		t.Fatalf("script not templated")
	}

	resp, err = ClientHelper(HelperRequest{
		URL: "https://weibo.com/1/Ab",
		ClientData: &ClientData{
			Text:        "  手动抓取的  正文 #话题# ",
			Images:      []string{"https://wx1.sinaimg.cn/orj360/a.jpg", "https://wx1.sinaimg.cn/large/a.jpg", ""},
			PublishedAt: "2024-10-01 12:00",
		},
	})
	if err != nil || resp.Data == nil {
		t.Fatalf("resp=%+v err=%v", resp, err)
	}
	d := resp.Data
	if d.ExtractionMethod != "client_helper" || d.Text != "手动抓取的 正文 #话题#" {
		t.Fatalf("data=%+v", d)
	}
	if len(d.Media) != 1 || d.PublishedAt == nil || len(d.Hashtags) != 1 {
		t.Fatalf("data=%+v", d)
	}
	if d.Engagement != nil {
		t.Fatalf("engagement should be absent, got %+v", d.Engagement)
	}

	if _, err := ClientHelper(HelperRequest{}); !scrape.IsInvalidInput(err) {
		t.Fatalf("err=%v", err)
	}
}
