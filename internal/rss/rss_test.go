package rss

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fan-feed-go/internal/config"
	"fan-feed-go/internal/scrape"
)

const feedXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>某人的微博</title>
<item>
  <title>短</title>
  <description>短</description>
  <link>https://weibo.com/123/N1</link>
  <pubDate>Fri, 15 Mar 2024 12:00:00 +0800</pubDate>
</item>
<item>
  <title>目标微博</title>
  <description><![CDATA[今天的舞台太精彩了，感谢大家的支持！<br><img src="https://wx1.sinaimg.cn/large/pic1.jpg">]]></description>
  <link>https://weibo.com/123/TARGET42</link>
  <pubDate>Thu, 14 Mar 2024 12:00:00 +0800</pubDate>
</item>
<item>
  <title>较早的一条比较长的微博内容在这里</title>
  <description>较早的一条比较长的微博内容在这里</description>
  <link>https://weibo.com/123/OLD</link>
  <pubDate>Wed, 13 Mar 2024 12:00:00 +0800</pubDate>
</item>
</channel></rss>`

func TestFind_MatchesPostIDAndSkipsFailingEndpoints(t *testing.T) {
	config.AppConfig = config.Config{}
	var hits []string
	mux := http.NewServeMux()
	mux.HandleFunc("/down/weibo/user/123", func(w http.ResponseWriter, r *http.Request) {
		hits = append(hits, "down")
		w.WriteHeader(http.StatusBadGateway)
	})
	mux.HandleFunc("/up/weibo/user/123", func(w http.ResponseWriter, r *http.Request) {
		hits = append(hits, "up")
		_, _ = w.Write([]byte(feedXML))
	})
	mux.HandleFunc("/never/weibo/user/123", func(w http.ResponseWriter, r *http.Request) {
		hits = append(hits, "never")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f := NewFetcher("weibo", 5)
	it, ep, err := f.Find(context.Background(), Query{
		Templates:  []string{"{rsshub}/down/weibo/user/{uid}", "{rsshub}/up/weibo/user/{uid}", "{rsshub}/never/weibo/user/{uid}"},
		Vars:       map[string]string{"rsshub": srv.URL, "uid": "123"},
		PostID:     "TARGET42",
		MinTextLen: 10,
	})
	if err != nil {
		t.Fatalf("Find err: %v", err)
	}
	if !strings.HasSuffix(ep, "/up/weibo/user/123") {
		t.Fatalf("endpoint=%q", ep)
	}
	if strings.Join(hits, ",") != "down,up" {
		t.Fatalf("endpoints tried=%v", hits)
	}
	if !strings.HasPrefix(it.Text, "今天的舞台太精彩了") {
		t.Fatalf("Text=%q", it.Text)
	}
	if len(it.Media) != 1 || it.Media[0].SourceURL != "https://wx1.sinaimg.cn/large/pic1.jpg" {
		t.Fatalf("Media=%+v", it.Media)
	}
	if it.PublishedAt == nil || it.PublishedAt.Day() != 14 {
		t.Fatalf("PublishedAt=%v", it.PublishedAt)
	}
}

func TestSelectItem_FallsBackToRecentLongText(t *testing.T) {
	config.AppConfig = config.Config{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(feedXML))
	}))
	defer srv.Close()

	it, _, err := NewFetcher("weibo", 5).Find(context.Background(), Query{
		Templates:  []string{srv.URL + "/feed"},
		PostID:     "UNKNOWN",
		MinTextLen: 10,
	})
	if err != nil {
		t.Fatalf("Find err: %v", err)
	}
	if it.Link != "https://weibo.com/123/TARGET42" {
		t.Fatalf("expected newest item with long text, got %q", it.Link)
	}
}

func TestEndpoints_DropsUnfilledTemplates(t *testing.T) {
	got := Endpoints([]string{"{rsshub}/weibo/user/{uid}", "https://static/feed"}, map[string]string{"rsshub": "https://hub", "uid": ""})
	if len(got) != 1 || got[0] != "https://static/feed" {
		t.Fatalf("Endpoints=%v", got)
	}
}

func TestFind_NoEndpoints(t *testing.T) {
	config.AppConfig = config.Config{}
	if _, _, err := NewFetcher("xhs", 1).Find(context.Background(), Query{Templates: []string{"{rsshub}/x/{uid}"}}); err == nil {
		t.Fatalf("expected error without endpoints")
	}
}

func TestLatest_NewestFirstWithLimitAndDefaultUID(t *testing.T) {
	config.AppConfig = config.Config{}
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		_, _ = w.Write([]byte(feedXML))
	}))
	defer srv.Close()

	f := NewFetcher("weibo", 5)
	pr := Profile{Templates: []string{"{rsshub}/weibo/user/{uid}"}, RSSHub: srv.URL, DefaultUID: "123", MinTextLen: 10}
	items, ep, err := f.Latest(context.Background(), pr, "", 10)
	if err != nil {
		t.Fatalf("Latest err: %v", err)
	}
	if ep != srv.URL+"/weibo/user/123" || paths[0] != "/weibo/user/123" {
		t.Fatalf("endpoint=%q paths=%v", ep, paths)
	}
	if len(items) != 2 || items[0].Link != "https://weibo.com/123/TARGET42" || items[1].Link != "https://weibo.com/123/OLD" {
		t.Fatalf("items=%+v", items)
	}

	items, _, _ = f.Latest(context.Background(), pr, "456", 1)
	if len(items) != 1 || paths[len(paths)-1] != "/weibo/user/456" {
		t.Fatalf("limit/uid not honored: items=%d paths=%v", len(items), paths)
	}

	if _, _, err := f.Latest(context.Background(), Profile{Templates: pr.Templates}, "", 5); !scrape.IsInvalidInput(err) {
		t.Fatalf("missing uid should be invalid input, got %v", err)
	}
}
