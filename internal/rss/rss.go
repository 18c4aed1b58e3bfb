// Package rss reads posts back out of RSS/Atom mirrors of a user's timeline.
package rss

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"time"

	"fan-feed-go/internal/logger"
	"fan-feed-go/internal/model"
	"fan-feed-go/internal/proxy"
	"fan-feed-go/internal/scrape"
	"fan-feed-go/internal/sharetext"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

// recentWindow is how many of the newest items are considered when no item
// mentions the post id.
const recentWindow = 5

type Item struct {
	Text        string
	Title       string
	Link        string
	Author      string
	PublishedAt *time.Time
	Media       []model.MediaItem
}

type Query struct {
	// Templates may use {rsshub}, {uid} and {id}.
	Templates  []string
	Vars       map[string]string
	PostID     string
	MinTextLen int
}

type Fetcher struct {
	platform string
	client   *scrape.Client
}

func NewFetcher(platform string, timeoutSec int) *Fetcher {
	h := scrape.DesktopHeaders("")
	h["accept"] = "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8"
	return &Fetcher{
		platform: platform,
		client: scrape.NewClient(scrape.ClientOptions{
			Platform:   platform,
			Headers:    h,
			TimeoutSec: timeoutSec,
		}),
	}
}

func (f *Fetcher) InitProxyPool(pool *proxy.Pool) {
	f.client.InitProxyPool(pool)
}

var placeholderRe = regexp.MustCompile(`\{[a-z]+\}`)

// Endpoints expands templates, dropping any that still need a variable.
func Endpoints(templates []string, vars map[string]string) []string {
	out := make([]string, 0, len(templates))
	for _, tpl := range templates {
		u := tpl
		for k, v := range vars {
			if strings.TrimSpace(v) == "" {
				continue
			}
			u = strings.ReplaceAll(u, "{"+k+"}", v)
		}
		if placeholderRe.MatchString(u) {
			continue
		}
		out = append(out, u)
	}
	return out
}

// Find returns the first item with text from the first endpoint that has
// one. Endpoint failures are logged and skipped.
func (f *Fetcher) Find(ctx context.Context, q Query) (Item, string, error) {
	endpoints := Endpoints(q.Templates, q.Vars)
	if len(endpoints) == 0 {
		return Item{}, "", scrape.NewInvalidInputError(f.platform, "", "no usable rss endpoint")
	}
	parser := gofeed.NewParser()
	var lastErr error
	for _, ep := range endpoints {
		page, err := f.client.Get(ctx, ep, nil)
		if err != nil {
			lastErr = err
			logger.Debug("rss endpoint failed", "platform", f.platform, "endpoint", ep, "error_kind", scrape.KindOf(err))
			if ctx.Err() != nil {
				break
			}
			continue
		}
		feed, err := parser.ParseString(string(page.Body))
		if err != nil {
			lastErr = scrape.NewParseError(f.platform, ep, err)
			logger.Debug("rss parse failed", "platform", f.platform, "endpoint", ep, "err", err)
			continue
		}
		if it, ok := SelectItem(feed, q.PostID, q.MinTextLen); ok {
			return it, ep, nil
		}
		lastErr = scrape.NewEmptyError(f.platform, ep, "no matching feed item")
	}
	return Item{}, "", lastErr
}

// Profile is where one platform's timeline mirrors live.
type Profile struct {
	Templates  []string
	RSSHub     string
	DefaultUID string
	MinTextLen int
}

// Latest returns up to limit of the newest items with text from the first
// mirror that has any, newest first. An empty uid falls back to DefaultUID.
func (f *Fetcher) Latest(ctx context.Context, pr Profile, uid string, limit int) ([]Item, string, error) {
	if uid = strings.TrimSpace(uid); uid == "" {
		uid = pr.DefaultUID
	}
	if uid == "" {
		return nil, "", scrape.NewInvalidInputError(f.platform, "", "no profile uid configured")
	}
	endpoints := Endpoints(pr.Templates, map[string]string{"rsshub": pr.RSSHub, "uid": uid})
	if len(endpoints) == 0 {
		return nil, "", scrape.NewInvalidInputError(f.platform, "", "no usable rss endpoint")
	}
	parser := gofeed.NewParser()
	var lastErr error
	for _, ep := range endpoints {
		page, err := f.client.Get(ctx, ep, nil)
		if err != nil {
			lastErr = err
			logger.Debug("rss endpoint failed", "platform", f.platform, "endpoint", ep, "error_kind", scrape.KindOf(err))
			if ctx.Err() != nil {
				break
			}
			continue
		}
		feed, err := parser.ParseString(string(page.Body))
		if err != nil {
			lastErr = scrape.NewParseError(f.platform, ep, err)
			continue
		}
		if items := Recent(feed, limit, pr.MinTextLen); len(items) > 0 {
			logger.Info("profile feed fetched", "platform", f.platform, "endpoint", ep, "items", len(items))
			return items, ep, nil
		}
		lastErr = scrape.NewEmptyError(f.platform, ep, "feed has no usable items")
	}
	return nil, "", lastErr
}

// Recent converts the newest items whose text reaches minText, newest first.
// Undated items keep their feed order after the dated ones.
func Recent(feed *gofeed.Feed, limit, minText int) []Item {
	if feed == nil {
		return nil
	}
	if limit <= 0 {
		limit = 10
	}
	out := make([]Item, 0, min(limit, len(feed.Items)))
	for _, it := range feed.Items {
		if it == nil {
			continue
		}
		item := convert(it)
		if sharetext.RuneLen(item.Text) < minText || item.Text == "" {
			continue
		}
		out = append(out, item)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].PublishedAt, out[j].PublishedAt
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		}
		return a.After(*b)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// SelectItem prefers the item that mentions postID, else the newest item
// among the first few whose text is longer than minText.
func SelectItem(feed *gofeed.Feed, postID string, minText int) (Item, bool) {
	if feed == nil || len(feed.Items) == 0 {
		return Item{}, false
	}
	items := append([]*gofeed.Item(nil), feed.Items...)
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].PublishedParsed, items[j].PublishedParsed
		if a == nil || b == nil {
			return false
		}
		return a.After(*b)
	})

	if postID = strings.TrimSpace(postID); postID != "" {
		for _, it := range items {
			if mentions(it, postID) {
				out := convert(it)
				if out.Text != "" {
					return out, true
				}
			}
		}
	}
	for i, it := range items {
		if i >= recentWindow {
			break
		}
		out := convert(it)
		if sharetext.RuneLen(out.Text) > minText {
			return out, true
		}
	}
	return Item{}, false
}

func mentions(it *gofeed.Item, id string) bool {
	for _, s := range []string{it.Link, it.GUID, it.Description, it.Content} {
		if strings.Contains(s, id) {
			return true
		}
	}
	return false
}

func convert(it *gofeed.Item) Item {
	body := it.Description
	if strings.TrimSpace(it.Content) != "" {
		body = it.Content
	}
	out := Item{
		Title:       strings.TrimSpace(it.Title),
		Link:        strings.TrimSpace(it.Link),
		Text:        sharetext.StripTags(body),
		PublishedAt: it.PublishedParsed,
	}
	if out.Text == "" {
		out.Text = sharetext.StripTags(out.Title)
	}
	if it.Author != nil {
		out.Author = strings.TrimSpace(it.Author.Name)
	} else if len(it.Authors) > 0 && it.Authors[0] != nil {
		out.Author = strings.TrimSpace(it.Authors[0].Name)
	}
	if out.PublishedAt == nil {
		out.PublishedAt = it.UpdatedParsed
	}
	out.Media = mediaFrom(body, it)
	return out
}

func mediaFrom(body string, it *gofeed.Item) []model.MediaItem {
	var media []model.MediaItem
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(body)); err == nil {
		doc.Find("img").Each(func(_ int, s *goquery.Selection) {
			if src, ok := s.Attr("src"); ok && strings.TrimSpace(src) != "" {
				media = append(media, model.NewImage(src))
			}
		})
		doc.Find("video").Each(func(_ int, s *goquery.Selection) {
			src, _ := s.Attr("src")
			if src == "" {
				src, _ = s.Find("source").First().Attr("src")
			}
			poster, _ := s.Attr("poster")
			if strings.TrimSpace(src) != "" {
				media = append(media, model.NewVideo(src, poster))
			}
		})
	}
	for _, enc := range it.Enclosures {
		if enc == nil || enc.URL == "" {
			continue
		}
		switch {
		case strings.HasPrefix(enc.Type, "image/"):
			media = append(media, model.NewImage(enc.URL))
		case strings.HasPrefix(enc.Type, "video/"):
			media = append(media, model.NewVideo(enc.URL, ""))
		}
	}
	if it.Image != nil && it.Image.URL != "" {
		media = append(media, model.NewImage(it.Image.URL))
	}
	return model.DedupeMedia(media)
}
