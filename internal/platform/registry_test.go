package platform

import (
	"context"
	"testing"

	"fan-feed-go/internal/cascade"
	"fan-feed-go/internal/model"
	"fan-feed-go/internal/scrape"
)

type stubPlatform struct{}

func (stubPlatform) Name() model.Platform { return "foo" }

func (stubPlatform) ParseShareText(string) model.ShareHint { return model.EmptyHint() }

func (stubPlatform) Pipeline() *cascade.Orchestrator { return cascade.New("foo", cascade.Options{}) }

func (stubPlatform) Resolve(context.Context, string) model.ResolvedMetadata {
	return model.Unresolved("")
}

func (stubPlatform) Prepare(context.Context, FetchRequest) (cascade.Input, error) {
	return cascade.Input{}, nil
}

func TestRegisterAndNew(t *testing.T) {
	mu.Lock()
	orig, origCanonical := factories, canonical
	factories, canonical = map[string]Factory{}, map[string]string{}
	mu.Unlock()
	t.Cleanup(func() {
		mu.Lock()
		factories, canonical = orig, origCanonical
		mu.Unlock()
	})

	Register("foo", []string{"bar", "Baz"}, func(Deps) Platform { return stubPlatform{} })

	if !Exists("foo") || !Exists("bar") || !Exists("baz") {
		t.Fatalf("expected Exists to be true for registered names")
	}
	if Exists("unknown") {
		t.Fatalf("expected Exists to be false for unknown")
	}
	if c, ok := Canonical("BAZ"); !ok || c != "foo" {
		t.Fatalf("Canonical(BAZ) = %q %v", c, ok)
	}
	if names := Names(); len(names) != 1 || names[0] != "foo" {
		t.Fatalf("Names() = %v", names)
	}
	if _, err := New("bar", Deps{}); err != nil {
		t.Fatalf("New(bar) err: %v", err)
	}
	if _, err := New("unknown", Deps{}); err == nil {
		t.Fatalf("expected error for unknown platform")
	}
}

func TestPrepareInput(t *testing.T) {
	parse := func(s string) model.ShareHint {
		h := model.EmptyHint()
		h.OriginalText = s
		return h
	}
	domains := []string{"weibo.com", "weibo.cn"}

	in, err := PrepareInput(model.PlatformWeibo, domains, parse, FetchRequest{ShareText: "看看 https://m.weibo.cn/detail/123 "})
	if err != nil {
		t.Fatalf("PrepareInput: %v", err)
	}
	if in.URL != "https://m.weibo.cn/detail/123" || in.Hint.CanonicalURL != in.URL || in.Platform != model.PlatformWeibo {
		t.Fatalf("unexpected input %+v", in)
	}

	cases := []FetchRequest{
		{},
		{ShareText: "没有链接的分享"},
		{URL: "not a url"},
		{URL: "https://www.douyin.com/video/1"},
	}
	for _, req := range cases {
		if _, err := PrepareInput(model.PlatformWeibo, domains, parse, req); !scrape.IsInvalidInput(err) {
			t.Fatalf("PrepareInput(%+v) err = %v, want invalid input", req, err)
		}
	}
}
