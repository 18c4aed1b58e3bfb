package cascade

import (
	"context"
	"strings"
	"time"

	"fan-feed-go/internal/browser"
	"fan-feed-go/internal/model"
	"fan-feed-go/internal/rss"
	"fan-feed-go/internal/scrape"
)

type URLResolver interface {
	Resolve(ctx context.Context, rawURL string) model.ResolvedMetadata
}

type FeedFinder interface {
	Find(ctx context.Context, q rss.Query) (rss.Item, string, error)
}

// ResolveStrategy follows the input URL and offers the longer of the
// resolved title and description as text.
type ResolveStrategy struct {
	Resolver URLResolver
	// Filter may blank out text that is known to be site chrome.
	Filter func(text string) string
}

func (s ResolveStrategy) Name() State { return StateStructuredResolve }

func (s ResolveStrategy) Attempt(ctx context.Context, in *Input) Outcome {
	target := in.URL
	if target == "" {
		target = in.Hint.CanonicalURL
	}
	if target == "" {
		return Outcome{Err: scrape.NewInvalidInputError(string(in.Platform), "", "no url to resolve")}
	}
	md := s.Resolver.Resolve(ctx, target)
	text := longer(md.Description, md.Title)
	if s.Filter != nil {
		text = s.Filter(text)
	}
	return Outcome{
		Text:        text,
		Title:       md.Title,
		Author:      md.Author,
		SourceURL:   md.ResolvedURL,
		Media:       md.Media,
		PublishedAt: md.PublishedAt,
		Engagement:  md.Engagement,
		ContentType: md.ContentType,
		Method:      md.ExtractionMethod,
		Resolved:    &md,
	}
}

// RSSStrategy reads the post back from a feed mirror of the author's
// timeline. It needs a uid; without one it yields nothing.
type RSSStrategy struct {
	Finder     FeedFinder
	Templates  []string
	RSSHub     string
	DefaultUID string
	MinTextLen int
}

func (s RSSStrategy) Name() State { return StateRSS }

func (s RSSStrategy) Attempt(ctx context.Context, in *Input) Outcome {
	uid := in.UID
	if uid == "" {
		uid = s.DefaultUID
	}
	if uid == "" {
		return Outcome{Err: scrape.NewInvalidInputError(string(in.Platform), in.URL, "no user id for rss")}
	}
	item, endpoint, err := s.Finder.Find(ctx, rss.Query{
		Templates:  s.Templates,
		Vars:       map[string]string{"rsshub": s.RSSHub, "uid": uid, "id": in.PostID},
		PostID:     in.PostID,
		MinTextLen: s.MinTextLen,
	})
	if err != nil {
		return Outcome{Err: err}
	}
	src := item.Link
	if src == "" {
		src = endpoint
	}
	return Outcome{
		Text:        item.Text,
		Title:       item.Title,
		Author:      item.Author,
		SourceURL:   src,
		Media:       item.Media,
		PublishedAt: item.PublishedAt,
	}
}

// BrowserStrategy renders candidate pages in a real browser and scrapes the
// DOM. The first candidate with text wins.
type BrowserStrategy struct {
	Renderer   browser.Renderer
	Selectors  browser.Selectors
	Candidates func(in *Input) []string
	Budget     time.Duration
}

func (s BrowserStrategy) Name() State { return StateBrowser }

func (s BrowserStrategy) Timeout() time.Duration { return s.Budget }

func (s BrowserStrategy) Attempt(ctx context.Context, in *Input) Outcome {
	if s.Renderer == nil {
		return Outcome{}
	}
	urls := []string{in.URL}
	if s.Candidates != nil {
		urls = s.Candidates(in)
	}
	var lastErr error
	for _, u := range urls {
		if strings.TrimSpace(u) == "" {
			continue
		}
		html, err := s.Renderer.Render(ctx, u)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			continue
		}
		page := browser.ScrapePage(html, u, s.Selectors)
		if strings.TrimSpace(page.Text) == "" {
			continue
		}
		return Outcome{
			Text:       page.Text,
			SourceURL:  u,
			Media:      page.Media,
			Engagement: page.Engagement,
		}
	}
	return Outcome{Err: lastErr}
}

// ShareTextStrategy uses the cleaned share text itself.
type ShareTextStrategy struct{}

func (ShareTextStrategy) Name() State { return StateShareTextOnly }

func (ShareTextStrategy) Attempt(_ context.Context, in *Input) Outcome {
	text := in.Hint.OriginalText
	if strings.TrimSpace(text) == "" {
		text = in.Hint.RawDescription
	}
	return Outcome{
		Text:        strings.TrimSpace(text),
		Title:       in.Hint.Title,
		Author:      in.Hint.Author,
		SourceURL:   in.Hint.CanonicalURL,
		PublishedAt: in.Hint.PublishDate,
	}
}
