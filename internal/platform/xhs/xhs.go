// Package xhs resolves Xiaohongshu (RED) notes from share strings and links.
package xhs

import (
	"context"
	"strings"
	"time"

	"fan-feed-go/internal/browser"
	"fan-feed-go/internal/cascade"
	"fan-feed-go/internal/config"
	"fan-feed-go/internal/extract"
	"fan-feed-go/internal/logger"
	"fan-feed-go/internal/model"
	"fan-feed-go/internal/platform"
	"fan-feed-go/internal/resolve"
	"fan-feed-go/internal/rss"
	"fan-feed-go/internal/sharetext"
)

var DefaultRSSTemplates = []string{"{rsshub}/xiaohongshu/user/{uid}/notes"}

var guide = cascade.ManualGuide{
	Steps: []string{
		"Open the note in the Xiaohongshu app or website",
		"Copy the note text into the text field",
		"Long-press each image and copy its address into the Media section",
		"Copy the like, comment and share counts",
		"Set the post date shown at the bottom of the note",
	},
	Tips: map[string]string{
		"text":   "The share string only names the author; the note body must be copied from the note itself",
		"images": "Image addresses on xhscdn.com are shown through the media proxy",
	},
}

// siteChrome are page titles the site serves instead of note content.
var siteChrome = []string{"小红书", "小红书 - 你的生活指南", "小红书_沪ICP备13030189号"}

type Platform struct {
	cfg      config.Config
	feeds    *rss.Fetcher
	profile  rss.Profile
	resolver *resolve.Resolver
	pipeline *cascade.Orchestrator
}

var (
	_ platform.Platform   = (*Platform)(nil)
	_ platform.FeedLister = (*Platform)(nil)
)

func New(d platform.Deps) *Platform {
	cfg := d.Config
	p := &Platform{
		cfg:   cfg,
		feeds: rss.NewFetcher(string(model.PlatformXHS), cfg.HttpTimeoutSec),
		resolver: resolve.New(resolve.Options{
			Platform:      string(model.PlatformXHS),
			Referer:       "https://www.xiaohongshu.com/",
			Strategies:    Strategies(),
			TitleSuffixes: []string{"- 小红书"},
			TimeoutSec:    cfg.HttpTimeoutSec,
		}),
	}
	if d.Proxy != nil {
		p.feeds.InitProxyPool(d.Proxy)
		p.resolver.InitProxyPool(d.Proxy)
	}

	templates := cfg.XhsRSSTemplates
	if len(templates) == 0 {
		templates = DefaultRSSTemplates
	}
	p.profile = rss.Profile{
		Templates:  templates,
		RSSHub:     cfg.RSSHubURL,
		DefaultUID: cfg.XhsDefaultUID,
		MinTextLen: cfg.CascadeMinTextLen,
	}
	strategies := []cascade.Strategy{
		cascade.RSSStrategy{
			Finder:     p.feeds,
			Templates:  p.profile.Templates,
			RSSHub:     p.profile.RSSHub,
			DefaultUID: p.profile.DefaultUID,
			MinTextLen: p.profile.MinTextLen,
		},
	}
	if d.Renderer != nil {
		strategies = append(strategies, cascade.BrowserStrategy{
			Renderer:   d.Renderer,
			Selectors:  browser.DefaultSelectors,
			Candidates: BrowserCandidates,
			Budget:     time.Duration(cfg.BrowserPageTimeoutSec) * time.Second,
		})
	}
	strategies = append(strategies,
		cascade.ResolveStrategy{Resolver: p.resolver, Filter: FilterChrome},
		cascade.ShareTextStrategy{},
	)

	p.pipeline = cascade.New(model.PlatformXHS, cascade.Options{
		MinTextLen:      cfg.CascadeMinTextLen,
		StrategyTimeout: time.Duration(cfg.StrategyTimeoutSec) * time.Second,
		Merge: cascade.MergeOptions{
			SubstantialTextLen: cfg.MergeSubstantialTextLen,
			MinHintTextLen:     cfg.MergeMinHintTextLen,
		},
		Manual:   guide,
		Recorder: d.Recorder,
	}, strategies...)
	return p
}

func (p *Platform) Name() model.Platform { return model.PlatformXHS }

func (p *Platform) ParseShareText(text string) model.ShareHint { return ParseShareText(text) }

func (p *Platform) Pipeline() *cascade.Orchestrator { return p.pipeline }

// Latest lists the profile's newest posts from its feed mirrors.
func (p *Platform) Latest(ctx context.Context, uid string, limit int) ([]rss.Item, string, error) {
	return p.feeds.Latest(ctx, p.profile, uid, limit)
}

func (p *Platform) Resolve(ctx context.Context, rawURL string) model.ResolvedMetadata {
	return p.resolver.Resolve(ctx, rawURL)
}

// Prepare validates the request and expands xhslink short links to the
// explore URL.
func (p *Platform) Prepare(ctx context.Context, req platform.FetchRequest) (cascade.Input, error) {
	in, err := platform.PrepareInput(model.PlatformXHS, Domains, ParseShareText, req)
	if err != nil {
		return in, err
	}
	in.PostID = ExtractNoteID(in.URL)
	in.UID = ExtractUserID(in.URL)
	if strings.Contains(in.URL, "xhslink.com") {
		expanded := p.resolver.FollowRedirects(ctx, in.URL)
		if id := ExtractNoteID(expanded); id != "" && expanded != in.URL {
			logger.Debug("xhs short link expanded", "url", in.URL, "expanded", expanded)
			in.PostID = id
			in.Hint.CanonicalURL = expanded
		}
	}
	if in.PostID == "" {
		in.PostID = in.Hint.NoteOrVideoID
	}
	return in, nil
}

func BrowserCandidates(in *cascade.Input) []string {
	var out []string
	if in.Hint.CanonicalURL != "" && in.Hint.CanonicalURL != in.URL {
		out = append(out, in.Hint.CanonicalURL)
	}
	if in.PostID != "" && !strings.Contains(in.URL, "xhslink.com") {
		out = append(out, "https://www.xiaohongshu.com/explore/"+in.PostID)
	}
	if in.URL != "" {
		out = append(out, in.URL)
	}
	return out
}

// FilterChrome drops resolved text that is only the site's own title or too
// short to be a note.
func FilterChrome(text string) string {
	text = strings.TrimSpace(text)
	for _, c := range siteChrome {
		if text == c {
			return ""
		}
	}
	if sharetext.RuneLen(text) <= 10 {
		return ""
	}
	return text
}

// Strategies are the embedded-state variants of note pages.
func Strategies() []extract.Strategy {
	return []extract.Strategy{
		{
			Name:     "xhs_initial_state",
			Patterns: []extract.Pattern{extract.InitialState, extract.SSRState},
			Paths: []string{
				"note.noteDetailMap.*.note",
				"note.note",
				"data.note",
				"data.pageProps.note",
				"noteData.data.noteData",
			},
			Map: mapNote,
		},
	}
}

func mapNote(obj map[string]any) (model.ResolvedMetadata, bool) {
	n, ok := noteFromMap(obj)
	if !ok {
		return model.ResolvedMetadata{}, false
	}
	return n.Metadata()
}
