package weibo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fan-feed-go/internal/model"
	"fan-feed-go/internal/scrape"
)

const cardsFixture = `{
  "ok": 1,
  "data": {
    "cards": [
      {"card_type": 9, "mblog": {"id": "111", "text": "other post"}},
      {"card_type": 9, "mblog": {
        "id": "4987654321012345",
        "bid": "NzAbCdEf1",
        "text": "今天的<br/>彩排照片 <a href=\"/n/x\">@朋友</a>",
        "created_at": "Tue Oct 01 12:00:00 +0800 2024",
        "attitudes_count": 1200,
        "comments_count": "35",
        "reposts_count": 8,
        "user": {"id": 1234567890, "screen_name": "小鹿"},
        "pics": [
          {"pid": "a", "large": {"url": "https://wx1.sinaimg.cn/large/a.jpg"}},
          {"pid": "b", "large": {"url": "https://wx1.sinaimg.cn/large/b.jpg"}}
        ]
      }}
    ]
  }
}`

func TestPickStatus_Shapes(t *testing.T) {
	decode := func(s string) any {
		var v any
		if err := json.Unmarshal([]byte(s), &v); err != nil {
			t.Fatalf("fixture: %v", err)
		}
		return v
	}
	if st := PickStatus(decode(cardsFixture), "4987654321012345"); st == nil || st["bid"] != "NzAbCdEf1" {
		t.Fatalf("cards shape: %v", st)
	}
	if st := PickStatus(decode(`{"data":{"id":"1","text":"direct"}}`), "1"); st == nil || st["text"] != "direct" {
		t.Fatalf("data shape: %v", st)
	}
	if st := PickStatus(decode(`{"data":{"statuses":[{"idstr":"9","text":"x"},{"idstr":"7","text":"y"}]}}`), "7"); st == nil || st["text"] != "y" {
		t.Fatalf("statuses shape: %v", st)
	}
	if st := PickStatus(decode(`{"id":"5","text":"root"}`), "5"); st == nil || st["text"] != "root" {
		t.Fatalf("root shape: %v", st)
	}
	if st := PickStatus(decode(`{"data":{"cards":[{"mblog":{"id":"7","text":""}}],"statuses":[{"idstr":"7","text":"<br/>"},{"mid":"7","text":"正文在这里"}]}}`), "7"); st == nil || st["text"] != "正文在这里" {
		t.Fatalf("empty-text matches should be skipped, got %v", st)
	}
	if st := PickStatus(decode(`{"ok":0,"msg":"gone"}`), "5"); st != nil {
		t.Fatalf("expected nil, got %v", st)
	}
}

func TestClientFindStatus_SkipsFailingEndpoints(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/broken":
			w.WriteHeader(http.StatusInternalServerError)
		case "/risk":
			_, _ = w.Write([]byte(`<html>请完成验证 captcha</html>`))
		case "/index":
			if r.URL.Query().Get("value") != "1234567890" {
				t.Errorf("uid not expanded: %s", r.URL.RawQuery)
			}
			if r.Header.Get("X-Requested-With") == "" {
				t.Errorf("missing mobile json headers")
			}
			_, _ = w.Write([]byte(cardsFixture))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient([]string{
		srv.URL + "/broken?id={id}",
		srv.URL + "/risk?id={id}",
		srv.URL + "/index?type=uid&value={uid}",
	}, 5)
	status, endpoint, err := c.FindStatus(context.Background(), "4987654321012345", "1234567890")
	if err != nil {
		t.Fatalf("FindStatus err=%v", err)
	}
	if !strings.Contains(endpoint, "/index") {
		t.Fatalf("endpoint=%s", endpoint)
	}

	out := StatusOutcome(status, "https://m.weibo.cn/detail/4987654321012345")
	if out.Text != "今天的\n彩排照片 @朋友" {
		t.Fatalf("text=%q", out.Text)
	}
	if out.Author != "小鹿" || out.SourceURL != "https://weibo.com/1234567890/NzAbCdEf1" {
		t.Fatalf("author=%q source=%q", out.Author, out.SourceURL)
	}
	c1 := out.Engagement.Counts()
	if c1.Likes != 1200 || c1.Comments != 35 || c1.Shares != 8 {
		t.Fatalf("engagement=%+v", c1)
	}
	if out.PublishedAt == nil || out.PublishedAt.UTC().Format("2006-01-02T15") != "2024-10-01T04" {
		t.Fatalf("publishedAt=%v", out.PublishedAt)
	}
	if len(out.Media) != 2 || out.ContentType != model.ContentImage {
		t.Fatalf("media=%+v type=%s", out.Media, out.ContentType)
	}
}

func TestClientFindStatus_AllFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":0}`))
	}))
	defer srv.Close()

	c := NewClient([]string{srv.URL + "/show?id={id}", srv.URL + "/index?value={uid}"}, 5)
	_, _, err := c.FindStatus(context.Background(), "42", "")
	if err == nil {
		t.Fatalf("expected error")
	}
	if scrape.KindOf(err) != scrape.ErrorKindEmpty {
		t.Fatalf("kind=%s", scrape.KindOf(err))
	}
}
