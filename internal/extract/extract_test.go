package extract

import (
	"net/url"
	"strings"
	"testing"

	"fan-feed-go/internal/model"

	"github.com/PuerkitoBio/goquery"
)

func titleMapper(obj map[string]any) (model.ResolvedMetadata, bool) {
	md := model.ResolvedMetadata{Title: Str(obj, "title"), Description: Str(obj, "desc")}
	return md, md.Title != "" || md.Description != ""
}

func TestStrategyExtract_PlainJSONWithUndefined(t *testing.T) {
	html := `<script>window.__INITIAL_STATE__={"note":{"noteDetailMap":{"abc":{"note":{"title":"标题","desc":"a {brace} \"q\"","x":undefined}}}}}</script>`
	s := Strategy{
		Name:     "xhs-initial-state",
		Patterns: []Pattern{{Name: "initial-state", Marker: "window.__INITIAL_STATE__="}},
		Paths:    []string{"note.noteDetailMap.*.note"},
		Map:      titleMapper,
	}
	md, ok := s.Extract(html)
	if !ok {
		t.Fatalf("expected extraction")
	}
	if md.Title != "标题" || md.Description != `a {brace} "q"` {
		t.Fatalf("unexpected metadata: %+v", md)
	}
	if md.ExtractionMethod != model.ExtractionStructuredJSON {
		t.Fatalf("ExtractionMethod=%s", md.ExtractionMethod)
	}
}

func TestStrategyExtract_URIEncodedBlob(t *testing.T) {
	payload := `{"app":{"videoDetail":{"title":"编码标题"}}}`
	html := `<script id="RENDER_DATA" type="application/json">` + url.PathEscape(payload) + `</script>`
	s := Strategy{
		Name:     "render-data",
		Patterns: []Pattern{{Name: "render-data", Regexp: renderDataRe}},
		Paths:    []string{"app.videoDetail"},
		Map:      titleMapper,
	}
	md, ok := s.Extract(html)
	if !ok || md.Title != "编码标题" {
		t.Fatalf("Extract=%+v ok=%v", md, ok)
	}
}

func TestStrategyExtract_JSLiteralFallback(t *testing.T) {
	html := `<script>window.__NUXT__={data:[{videoDetail:{title:'字面量',desc:"d",}}]};</script>`
	s := Strategy{
		Name:     "nuxt",
		Patterns: []Pattern{{Name: "nuxt", Marker: "window.__NUXT__="}},
		Paths:    []string{"data.0.videoDetail"},
		Map:      titleMapper,
	}
	md, ok := s.Extract(html)
	if !ok || md.Title != "字面量" {
		t.Fatalf("Extract=%+v ok=%v", md, ok)
	}
}

func TestStrategyExtract_UnknownShapeIsNoResult(t *testing.T) {
	html := `<script>window.__INITIAL_STATE__={"somethingElse":{"deep":{"note":{"title":"x"}}}}</script>`
	s := Strategy{
		Name:     "xhs",
		Patterns: []Pattern{{Marker: "window.__INITIAL_STATE__="}},
		Paths:    []string{"note.note", "data.note"},
		Map:      titleMapper,
	}
	if _, ok := s.Extract(html); ok {
		t.Fatalf("unrecognised structure must not extract")
	}
	if _, ok := s.Extract(`<script>window.__INITIAL_STATE__={broken</script>`); ok {
		t.Fatalf("broken json must not extract")
	}
}

func TestStrategyExtract_MapperPanicIsNoResult(t *testing.T) {
	s := Strategy{
		Patterns: []Pattern{{Marker: "STATE="}},
		Paths:    []string{"a"},
		Map: func(obj map[string]any) (model.ResolvedMetadata, bool) {
			panic("schema drift")
		},
	}
	if _, ok := s.Extract(`STATE={"a":{"b":1}}`); ok {
		t.Fatalf("panicking mapper must not extract")
	}
}

func TestRun_FallsThroughStrategies(t *testing.T) {
	first := Strategy{Name: "first", Patterns: []Pattern{{Marker: "NOPE="}}, Paths: []string{"x"}, Map: titleMapper}
	second := Strategy{Name: "second", Patterns: []Pattern{{Marker: "STATE="}}, Paths: []string{"x"}, Map: titleMapper}
	md, name, ok := Run([]Strategy{first, second}, `STATE={"x":{"title":"t"}}`)
	if !ok || name != "second" || md.Title != "t" {
		t.Fatalf("Run=%+v %q %v", md, name, ok)
	}
}

func TestUintParsesDisplayCounts(t *testing.T) {
	obj := map[string]any{"stats": map[string]any{"digg": "1.2万", "neg": float64(-1)}, "share": "3,456"}
	if n := Uint(obj, "stats.missing", "stats.digg"); n == nil || *n != 12000 {
		t.Fatalf("digg=%v", n)
	}
	if n := Uint(obj, "stats.neg"); n != nil {
		t.Fatalf("negative count accepted: %v", *n)
	}
	if n := Uint(obj, "share"); n == nil || *n != 3456 {
		t.Fatalf("share=%v", n)
	}
}

func TestMetaTagsFallback(t *testing.T) {
	html := `<html><head><title>页面标题 - 抖音</title>
<meta property="og:description" content="描述文字">
<meta property="og:image" content="//p3.douyinpic.com/cover.jpg">
<script type="application/ld+json">{"@type":"VideoObject","uploadDate":"2024-03-15T10:00:00+08:00"}</script>
</head><body></body></html>`
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatal(err)
	}
	md, ok := MetaTags(doc, []string{" - 抖音"})
	if !ok {
		t.Fatalf("expected meta extraction")
	}
	if md.Title != "页面标题" || md.Description != "描述文字" {
		t.Fatalf("unexpected: %+v", md)
	}
	if md.ThumbnailURL != "https://p3.douyinpic.com/cover.jpg" {
		t.Fatalf("ThumbnailURL=%q", md.ThumbnailURL)
	}
	if md.PublishedAt == nil || md.PublishedAt.Day() != 15 {
		t.Fatalf("PublishedAt=%v", md.PublishedAt)
	}
	if md.ExtractionMethod != model.ExtractionMetaTags {
		t.Fatalf("ExtractionMethod=%s", md.ExtractionMethod)
	}
}

func TestLooksLikeVideoPage(t *testing.T) {
	cases := []struct {
		html string
		want bool
	}{
		{html: `<video src="x"></video>`, want: true},
		{html: `<meta property="og:video:url" content="x">`, want: true},
		{html: `<script>var u="https://cdn/x.mp4?a=1"</script>`, want: true},
		{html: `<img src="x.jpg">`, want: false},
	}
	for _, tc := range cases {
		doc, _ := goquery.NewDocumentFromReader(strings.NewReader(tc.html))
		if got := LooksLikeVideoPage(doc, tc.html); got != tc.want {
			t.Fatalf("LooksLikeVideoPage(%q)=%v", tc.html, got)
		}
	}
}
