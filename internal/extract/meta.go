package extract

import (
	"strings"
	"time"

	"fan-feed-go/internal/model"
	"fan-feed-go/internal/sharetext"

	"github.com/PuerkitoBio/goquery"
)

// MetaTags reads OpenGraph, named meta tags, <title> and JSON-LD dates.
// titleSuffixes such as " - 抖音" are trimmed from titles.
func MetaTags(doc *goquery.Document, titleSuffixes []string) (model.ResolvedMetadata, bool) {
	var md model.ResolvedMetadata
	if doc == nil {
		return md, false
	}

	md.Title = firstNonEmpty(
		metaContent(doc, `meta[property="og:title"]`),
		metaContent(doc, `meta[name="og:title"]`),
		metaContent(doc, `meta[name="title"]`),
		strings.TrimSpace(doc.Find("title").First().Text()),
	)
	for _, suf := range titleSuffixes {
		md.Title = strings.TrimSpace(strings.TrimSuffix(md.Title, suf))
	}
	md.Description = firstNonEmpty(
		metaContent(doc, `meta[property="og:description"]`),
		metaContent(doc, `meta[name="og:description"]`),
		metaContent(doc, `meta[name="description"]`),
	)
	md.ThumbnailURL = model.NormalizeMediaURL(firstNonEmpty(
		metaContent(doc, `meta[property="og:image"]`),
		metaContent(doc, `meta[name="og:image"]`),
		metaContent(doc, `meta[name="image"]`),
		metaContent(doc, `meta[itemprop="image"]`),
	))
	md.Author = firstNonEmpty(
		metaContent(doc, `meta[name="author"]`),
		metaContent(doc, `meta[property="article:author"]`),
		metaContent(doc, `meta[property="og:article:author"]`),
	)
	if t := firstNonEmpty(
		metaContent(doc, `meta[property="article:published_time"]`),
		metaContent(doc, `meta[property="og:release_date"]`),
		metaContent(doc, `meta[itemprop="datePublished"]`),
	); t != "" {
		md.PublishedAt = sharetext.ParseLoose(t)
	}
	if md.PublishedAt == nil {
		md.PublishedAt = jsonLDDate(doc)
	}

	if md.Title == "" && md.Description == "" && md.ThumbnailURL == "" {
		return model.ResolvedMetadata{}, false
	}
	if md.ThumbnailURL != "" {
		md.Media = []model.MediaItem{model.NewImage(md.ThumbnailURL)}
	}
	md.ExtractionMethod = model.ExtractionMetaTags
	return md, true
}

func metaContent(doc *goquery.Document, selector string) string {
	v, _ := doc.Find(selector).First().Attr("content")
	return strings.TrimSpace(v)
}

func jsonLDDate(doc *goquery.Document) *time.Time {
	var out *time.Time
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		root, ok := Decode(s.Text())
		if !ok {
			return true
		}
		for _, node := range ldNodes(root) {
			if t := sharetext.ParseLoose(Any(node, "datePublished", "uploadDate", "dateCreated")); t != nil {
				out = t
				return false
			}
		}
		return true
	})
	return out
}

func ldNodes(root any) []map[string]any {
	switch v := root.(type) {
	case map[string]any:
		out := []map[string]any{v}
		for _, g := range Arr(v["@graph"]) {
			if m := Obj(g); m != nil {
				out = append(out, m)
			}
		}
		return out
	case []any:
		var out []map[string]any
		for _, it := range v {
			out = append(out, ldNodes(it)...)
		}
		return out
	}
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
