package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fan-feed-go/internal/auth"
	"fan-feed-go/internal/cascade"
	"fan-feed-go/internal/config"
	"fan-feed-go/internal/model"
	"fan-feed-go/internal/platform"
	"fan-feed-go/internal/rss"
	"fan-feed-go/internal/scrape"
	"fan-feed-go/internal/store"
)

// stubPlatform accepts example.com links and "fetches" a fixed text.
type stubPlatform struct{ text string }

func (stubPlatform) Name() model.Platform { return "stub" }

func (stubPlatform) ParseShareText(text string) model.ShareHint {
	h := model.EmptyHint()
	h.Title = strings.TrimSpace(text)
	return h
}

func (p stubPlatform) Pipeline() *cascade.Orchestrator {
	return cascade.New("stub", cascade.Options{},
		cascade.Func(cascade.StateMobileJSON, func(ctx context.Context, in *cascade.Input) cascade.Outcome {
			if p.text == "" {
				return cascade.Outcome{Err: scrape.NewEmptyError("stub", in.URL, "nothing")}
			}
			return cascade.Outcome{Text: p.text, SourceURL: in.URL}
		}),
	)
}

func (stubPlatform) Prepare(_ context.Context, req platform.FetchRequest) (cascade.Input, error) {
	return platform.PrepareInput("stub", []string{"example.com"}, func(s string) model.ShareHint { return model.EmptyHint() }, req)
}

func (stubPlatform) Resolve(_ context.Context, rawURL string) model.ResolvedMetadata {
	md := model.Unresolved(rawURL)
	md.Title = "resolved"
	return md
}

// feedStub is a weibo-named platform whose feed mirror returns fixed items,
// oldest first.
type feedStub struct {
	stubPlatform
	items   []rss.Item
	gotUID  string
	gotSize int
}

func (*feedStub) Name() model.Platform { return model.PlatformWeibo }

func (f *feedStub) Latest(_ context.Context, uid string, limit int) ([]rss.Item, string, error) {
	f.gotUID, f.gotSize = uid, limit
	if uid == "missing" {
		return nil, "", scrape.NewInvalidInputError("weibo", "", "no profile uid configured")
	}
	return f.items, "https://rsshub.example/weibo/user/" + uid, nil
}

type testEnv struct {
	srv     *Server
	handler http.Handler
	token   string
}

func newTestEnv(t *testing.T, text string) *testEnv {
	t.Helper()
	config.AppConfig = config.Config{}
	cfg := config.Config{RateLimitLoginPerMin: 3, RateLimitFetchPerMin: 100}
	mgr := auth.NewManager(auth.Options{Username: "admin", Password: "pw", Secret: "secret"})
	srv := NewServer(Options{
		Config: cfg,
		Store:  store.New(store.NewMemoryRepository(), 3),
		Auth:   mgr,
		Services: map[string]*platform.Service{
			"stub": platform.NewService(stubPlatform{text: text}, nil, 0),
		},
		Media: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("media:" + r.URL.Query().Get("url")))
		}),
	})
	t.Cleanup(srv.Close)
	tok, err := mgr.Login("admin", "pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	return &testEnv{srv: srv, handler: srv.Handler(), token: tok.Token}
}

func (e *testEnv) do(method, path string, body any, authed bool) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	r := httptest.NewRequest(method, path, &buf)
	r.Header.Set("Content-Type", "application/json")
	if authed {
		r.Header.Set("Authorization", "Bearer "+e.token)
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, r)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func postBody(text string) map[string]any {
	return map[string]any{
		"platform":    "weibo",
		"text":        text,
		"sourceUrl":   "https://weibo.com/1/abc",
		"publishedAt": time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC),
		"media": []map[string]any{
			{"kind": "image", "sourceUrl": "https://wx1.sinaimg.cn/large/a.jpg"},
		},
	}
}

func TestHealthz(t *testing.T) {
	e := newTestEnv(t, "")
	for _, p := range []string{"/healthz", "/api/health"} {
		w := e.do(http.MethodGet, p, nil, false)
		if w.Code != http.StatusOK {
			t.Fatalf("%s code=%d", p, w.Code)
		}
	}
}

func TestLoginFlow(t *testing.T) {
	e := newTestEnv(t, "")

	w := e.do(http.MethodPost, "/api/admin/login", map[string]string{"username": "admin", "password": "pw"}, false)
	if w.Code != http.StatusOK {
		t.Fatalf("login code=%d body=%s", w.Code, w.Body.String())
	}
	var ok struct {
		Success bool   `json:"success"`
		Token   string `json:"token"`
	}
	decode(t, w, &ok)
	if !ok.Success || ok.Token == "" {
		t.Fatalf("unexpected login body: %s", w.Body.String())
	}

	w = e.do(http.MethodPost, "/api/admin/login", map[string]string{"username": "admin", "password": "bad"}, false)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad login code=%d", w.Code)
	}
	var fail struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	decode(t, w, &fail)
	if fail.Success || fail.Error != "Invalid credentials" {
		t.Fatalf("unexpected failure body: %s", w.Body.String())
	}

	w = e.do(http.MethodPost, "/api/admin/login", map[string]string{"username": "admin"}, false)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing password code=%d", w.Code)
	}

	w = e.do(http.MethodPost, "/api/admin/login", map[string]string{"username": "admin", "password": "pw"}, false)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("fourth login in a minute should be limited, code=%d", w.Code)
	}
}

func TestPostLifecycle(t *testing.T) {
	e := newTestEnv(t, "")

	if w := e.do(http.MethodPost, "/api/posts", postBody("hello"), false); w.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated create code=%d", w.Code)
	}
	if w := e.do(http.MethodPost, "/api/posts", map[string]any{"platform": "weibo"}, true); w.Code != http.StatusBadRequest {
		t.Fatalf("invalid create code=%d", w.Code)
	}

	w := e.do(http.MethodPost, "/api/posts", postBody("hello"), true)
	if w.Code != http.StatusCreated {
		t.Fatalf("create code=%d body=%s", w.Code, w.Body.String())
	}
	var created struct {
		Post model.Post `json:"post"`
	}
	decode(t, w, &created)
	id := created.Post.ID
	if id == "" {
		t.Fatalf("missing id: %s", w.Body.String())
	}

	w = e.do(http.MethodGet, "/api/posts", nil, false)
	var list struct {
		Posts []model.Post `json:"posts"`
		Count int          `json:"count"`
	}
	decode(t, w, &list)
	if list.Count != 1 || list.Posts[0].ID != id {
		t.Fatalf("unexpected list: %s", w.Body.String())
	}
	if got := list.Posts[0].Media[0].DisplayURL; !strings.HasPrefix(got, "/proxy?url=") {
		t.Fatalf("display url not proxied: %q", got)
	}

	w = e.do(http.MethodPatch, "/api/posts/"+id+"/engagement", map[string]any{"likes": 42}, true)
	if w.Code != http.StatusOK {
		t.Fatalf("engagement code=%d body=%s", w.Code, w.Body.String())
	}
	var updated struct {
		Post model.Post `json:"post"`
	}
	decode(t, w, &updated)
	if updated.Post.Engagement.Likes != 42 || updated.Post.EngagementUpdatedAt == nil {
		t.Fatalf("engagement not applied: %+v", updated.Post)
	}

	w = e.do(http.MethodPut, "/api/posts/"+id, postBody("edited"), true)
	if w.Code != http.StatusOK {
		t.Fatalf("update code=%d body=%s", w.Code, w.Body.String())
	}
	if w := e.do(http.MethodPut, "/api/posts/missing", postBody("x"), true); w.Code != http.StatusNotFound {
		t.Fatalf("update missing code=%d", w.Code)
	}

	w = e.do(http.MethodGet, "/api/posts/"+id, nil, false)
	var one struct {
		Post model.Post `json:"post"`
	}
	decode(t, w, &one)
	if one.Post.Text != "edited" {
		t.Fatalf("text=%q", one.Post.Text)
	}

	w = e.do(http.MethodGet, "/api/posts/export.xlsx", nil, true)
	if w.Code != http.StatusOK || !strings.Contains(w.Header().Get("Content-Disposition"), ".xlsx") {
		t.Fatalf("export code=%d headers=%v", w.Code, w.Header())
	}

	if w := e.do(http.MethodDelete, "/api/posts/"+id, nil, true); w.Code != http.StatusOK {
		t.Fatalf("delete code=%d", w.Code)
	}
	if w := e.do(http.MethodDelete, "/api/posts/"+id, nil, true); w.Code != http.StatusNotFound {
		t.Fatalf("second delete code=%d", w.Code)
	}
}

func TestFetchRoutes(t *testing.T) {
	e := newTestEnv(t, "a long enough post body for the cascade")

	w := e.do(http.MethodPost, "/api/stub/fetch", map[string]string{"url": "https://example.com/p/1"}, false)
	if w.Code != http.StatusOK {
		t.Fatalf("fetch code=%d body=%s", w.Code, w.Body.String())
	}
	var res cascade.Result
	decode(t, w, &res)
	if !res.Success || res.ExtractionMethod != string(cascade.StateMobileJSON) {
		t.Fatalf("unexpected result: %s", w.Body.String())
	}

	if w := e.do(http.MethodPost, "/api/stub/fetch", map[string]string{"url": "https://other.org/p/1"}, false); w.Code != http.StatusBadRequest {
		t.Fatalf("foreign host code=%d", w.Code)
	}
	if w := e.do(http.MethodPost, "/api/stub/fetch", map[string]string{}, false); w.Code != http.StatusBadRequest {
		t.Fatalf("empty request code=%d", w.Code)
	}
	if w := e.do(http.MethodPost, "/api/nope/fetch", map[string]string{"url": "https://example.com/"}, false); w.Code != http.StatusNotFound {
		t.Fatalf("unknown platform code=%d", w.Code)
	}

	w = e.do(http.MethodPost, "/api/stub/resolve", map[string]string{"url": "https://example.com/p/1"}, false)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"resolved"`) {
		t.Fatalf("resolve code=%d body=%s", w.Code, w.Body.String())
	}

	w = e.do(http.MethodPost, "/api/stub/parse", map[string]string{"shareText": " title "}, false)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"title"`) {
		t.Fatalf("parse code=%d body=%s", w.Code, w.Body.String())
	}

	w = e.do(http.MethodGet, "/api/platforms", nil, false)
	if !strings.Contains(w.Body.String(), `"mobile_json"`) || !strings.Contains(w.Body.String(), `"manual_assistant"`) {
		t.Fatalf("platforms body=%s", w.Body.String())
	}
}

func TestProfileFeed(t *testing.T) {
	e := newTestEnv(t, "")
	older := time.Date(2024, 3, 13, 4, 0, 0, 0, time.UTC)
	newer := older.Add(24 * time.Hour)
	stub := &feedStub{items: []rss.Item{
		{Text: "较早的一条动态内容比较长", Link: "https://weibo.com/123/A", PublishedAt: &older,
			Media: []model.MediaItem{model.NewImage("https://wx1.sinaimg.cn/large/a.jpg")}},
		{Text: "   ", Link: "https://weibo.com/123/BLANK", PublishedAt: &newer},
		{Text: "最新的一条动态内容也够长", Link: "https://weibo.com/123/B", PublishedAt: &newer},
	}}
	e.srv.services["weibo"] = platform.NewService(stub, nil, 0)

	w := e.do(http.MethodGet, "/api/feed/weibo?uid=123&limit=500", nil, false)
	if w.Code != http.StatusOK {
		t.Fatalf("feed code=%d body=%s", w.Code, w.Body.String())
	}
	if stub.gotUID != "123" || stub.gotSize != maxFeedLimit {
		t.Fatalf("uid=%q limit=%d", stub.gotUID, stub.gotSize)
	}
	var res struct {
		Success bool         `json:"success"`
		Source  string       `json:"source"`
		Data    []model.Post `json:"data"`
	}
	decode(t, w, &res)
	if !res.Success || res.Source != "https://rsshub.example/weibo/user/123" || len(res.Data) != 2 {
		t.Fatalf("feed body=%s", w.Body.String())
	}
	first, second := res.Data[0], res.Data[1]
	if first.SourceURL != "https://weibo.com/123/B" || second.SourceURL != "https://weibo.com/123/A" {
		t.Fatalf("feed not newest first: %s, %s", first.SourceURL, second.SourceURL)
	}
	if first.Verified || first.Source != model.SourceRSSFeed || first.Platform != model.PlatformWeibo || !strings.HasPrefix(first.ID, "rss_") {
		t.Fatalf("unexpected post %+v", first)
	}
	if len(second.Media) != 1 || !strings.HasPrefix(second.Media[0].DisplayURL, model.ProxyPath+"?url=") {
		t.Fatalf("media not proxied: %+v", second.Media)
	}

	if w := e.do(http.MethodGet, "/api/feed/weibo?uid=missing", nil, false); w.Code != http.StatusBadRequest {
		t.Fatalf("missing uid code=%d", w.Code)
	}
	if w := e.do(http.MethodGet, "/api/feed/stub", nil, false); w.Code != http.StatusNotFound {
		t.Fatalf("non-feed platform code=%d", w.Code)
	}
}

func TestFetchFailureStillAnswers200(t *testing.T) {
	e := newTestEnv(t, "")
	w := e.do(http.MethodPost, "/api/stub/fetch", map[string]string{"url": "https://example.com/p/1"}, false)
	if w.Code != http.StatusOK {
		t.Fatalf("code=%d", w.Code)
	}
	var res cascade.Result
	decode(t, w, &res)
	if res.ExtractionMethod != string(cascade.StateManualAssistant) || res.ManualAssistant == nil {
		t.Fatalf("expected manual assistant: %s", w.Body.String())
	}
}

func TestWeiboClientHelper(t *testing.T) {
	e := newTestEnv(t, "")
	w := e.do(http.MethodPost, "/api/weibo/client-helper", map[string]any{"url": "https://weibo.com/1/abc"}, false)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"script"`) {
		t.Fatalf("script code=%d body=%s", w.Code, w.Body.String())
	}
	if w := e.do(http.MethodPost, "/api/weibo/client-helper", map[string]any{}, false); w.Code != http.StatusBadRequest {
		t.Fatalf("missing url code=%d", w.Code)
	}
}

func TestMediaProxyAndLogsRoutes(t *testing.T) {
	e := newTestEnv(t, "")
	w := e.do(http.MethodGet, "/api/media-proxy?url=x", nil, false)
	if w.Body.String() != "media:x" {
		t.Fatalf("media proxy body=%q", w.Body.String())
	}
	if w := e.do(http.MethodGet, "/api/logs", nil, false); w.Code != http.StatusUnauthorized {
		t.Fatalf("logs without token code=%d", w.Code)
	}
	if w := e.do(http.MethodGet, "/api/logs?limit=5", nil, true); w.Code != http.StatusOK {
		t.Fatalf("logs code=%d", w.Code)
	}
}
