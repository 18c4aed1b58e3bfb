package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"fan-feed-go/internal/config"
)

func TestClientGet_FollowsRedirectsAndSendsLocaleHeaders(t *testing.T) {
	config.AppConfig = config.Config{UserAgentMobile: "test-mobile-ua", AcceptLanguage: "zh-CN,zh;q=0.9"}

	var gotLang, gotUA string
	mux := http.NewServeMux()
	mux.HandleFunc("/short", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/video/123", http.StatusFound)
	})
	mux.HandleFunc("/video/123", func(w http.ResponseWriter, r *http.Request) {
		gotLang = r.Header.Get("Accept-Language")
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte("ok"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient(ClientOptions{Platform: "douyin", Headers: MobileHeaders("")})
	page, err := c.Get(context.Background(), srv.URL+"/short", nil)
	if err != nil {
		t.Fatalf("Get err: %v", err)
	}
	if page.FinalURL != srv.URL+"/video/123" {
		t.Fatalf("FinalURL=%q", page.FinalURL)
	}
	if string(page.Body) != "ok" {
		t.Fatalf("Body=%q", page.Body)
	}
	if gotLang != "zh-CN,zh;q=0.9" || gotUA != "test-mobile-ua" {
		t.Fatalf("headers not sent: lang=%q ua=%q", gotLang, gotUA)
	}
}

func TestClientGet_NonSuccessIsHTTPError(t *testing.T) {
	config.AppConfig = config.Config{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(ClientOptions{Platform: "weibo"})
	page, err := c.Get(context.Background(), srv.URL, nil)
	if err == nil {
		t.Fatalf("expected error for 503")
	}
	if KindOf(err) != ErrorKindHTTP {
		t.Fatalf("kind=%s", KindOf(err))
	}
	if page.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("StatusCode=%d", page.StatusCode)
	}
}
