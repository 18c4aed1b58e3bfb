// Package weibo resolves Weibo statuses from share strings and links.
package weibo

import (
	"context"
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
	"fan-feed-go/internal/scrape"
	"fan-feed-go/internal/sharetext"
)

var DefaultRSSTemplates = []string{
	"{rsshub}/weibo/user/{uid}",
	"https://rss.nixnet.services/weibo/user/{uid}",
}

var guide = cascade.ManualGuide{
	Steps: []string{
		"Open the Weibo post in another tab",
		`Copy the Chinese text and paste in "Original Chinese Text" field`,
		`Right-click images → "Copy image address" → Add to Media section`,
		"Copy engagement numbers (likes, comments, shares)",
		"Set the correct post time from Weibo timestamp",
	},
	Tips: map[string]string{
		"text":       "Select all Chinese text from the post and Ctrl+C",
		"images":     "Right-click each image → Copy image address → Paste in Media URL",
		"engagement": "Look for numbers next to ❤️ 💬 🔄 icons on Weibo",
		"time":       "Click the timestamp on Weibo to see exact post time",
	},
}

// Platform wires the Weibo fetchers into one cascade.
type Platform struct {
	cfg      config.Config
	mobile   *Client
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
		cfg:    cfg,
		mobile: NewClient(cfg.WeiboMobileEndpoints, cfg.HttpTimeoutSec),
		feeds:  rss.NewFetcher(string(model.PlatformWeibo), cfg.HttpTimeoutSec),
		resolver: resolve.New(resolve.Options{
			Platform:      string(model.PlatformWeibo),
			Referer:       "https://m.weibo.cn/",
			Strategies:    Strategies(),
			TitleSuffixes: []string{"- 微博", "_微博"},
			TimeoutSec:    cfg.HttpTimeoutSec,
		}),
	}
	if d.Proxy != nil {
		p.mobile.InitProxyPool(d.Proxy)
		p.feeds.InitProxyPool(d.Proxy)
		p.resolver.InitProxyPool(d.Proxy)
	}

	templates := cfg.WeiboRSSTemplates
	if len(templates) == 0 {
		templates = DefaultRSSTemplates
	}
	p.profile = rss.Profile{
		Templates:  templates,
		RSSHub:     cfg.RSSHubURL,
		DefaultUID: cfg.WeiboDefaultUID,
		MinTextLen: cfg.CascadeMinTextLen,
	}
	strategies := []cascade.Strategy{
		cascade.Func(cascade.StateMobileJSON, p.fetchMobile),
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
		cascade.ResolveStrategy{Resolver: p.resolver},
		cascade.ShareTextStrategy{},
	)

	p.pipeline = cascade.New(model.PlatformWeibo, cascade.Options{
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

func (p *Platform) Name() model.Platform { return model.PlatformWeibo }

func (p *Platform) ParseShareText(text string) model.ShareHint { return ParseShareText(text) }

func (p *Platform) Pipeline() *cascade.Orchestrator { return p.pipeline }

// Latest lists the profile's newest posts from its feed mirrors.
func (p *Platform) Latest(ctx context.Context, uid string, limit int) ([]rss.Item, string, error) {
	return p.feeds.Latest(ctx, p.profile, uid, limit)
}

func (p *Platform) Resolve(ctx context.Context, rawURL string) model.ResolvedMetadata {
	return p.resolver.Resolve(ctx, rawURL)
}

// Prepare validates the request and recovers the status id, expanding t.cn
// short links when needed. A link whose id stays unknown is still usable by
// the later strategies.
func (p *Platform) Prepare(ctx context.Context, req platform.FetchRequest) (cascade.Input, error) {
	in, err := platform.PrepareInput(model.PlatformWeibo, Domains, ParseShareText, req)
	if err != nil {
		return in, err
	}
	id, uid, err := ParseStatusID(in.URL)
	if err != nil {
		expanded := p.resolver.FollowRedirects(ctx, in.URL)
		if expanded != in.URL {
			logger.Debug("weibo short link expanded", "url", in.URL, "expanded", expanded)
			id, uid, err = ParseStatusID(expanded)
			if err == nil {
				in.Hint.CanonicalURL = expanded
			}
		}
	}
	if err != nil {
		logger.Debug("weibo status id unknown", "url", in.URL, "err", err)
	}
	if id == "" {
		id = in.Hint.NoteOrVideoID
	}
	in.PostID = id
	in.UID = uid
	return in, nil
}

func (p *Platform) fetchMobile(ctx context.Context, in *cascade.Input) cascade.Outcome {
	if in.PostID == "" {
		return cascade.Outcome{Err: scrape.NewInvalidInputError("weibo", in.URL, "no status id")}
	}
	status, endpoint, err := p.mobile.FindStatus(ctx, in.PostID, in.UID)
	if err != nil {
		return cascade.Outcome{Err: err}
	}
	logger.Debug("weibo status found", "id", in.PostID, "endpoint", endpoint)
	if in.UID == "" {
		in.UID = extract.Str(status, "user.idstr", "user.id")
	}
	return StatusOutcome(status, in.URL)
}

// BrowserCandidates lists the pages worth rendering, lightest first.
func BrowserCandidates(in *cascade.Input) []string {
	var out []string
	if in.PostID != "" {
		out = append(out,
			"https://m.weibo.cn/detail/"+in.PostID,
			"https://weibo.cn/status/"+in.PostID,
		)
	}
	if in.URL != "" {
		out = append(out, in.URL)
	}
	return out
}

// Strategies are the embedded-state variants of status pages.
func Strategies() []extract.Strategy {
	return []extract.Strategy{
		{
			Name:     "weibo_render_data",
			Patterns: []extract.Pattern{extract.WeiboRender, extract.InitialState},
			Paths:    []string{"0.status", "status", "data.status"},
			Map:      mapStatus,
		},
	}
}

func mapStatus(status map[string]any) (model.ResolvedMetadata, bool) {
	out := StatusOutcome(status, "")
	if out.Text == "" {
		return model.ResolvedMetadata{}, false
	}
	md := model.ResolvedMetadata{
		Title:       sharetext.Truncate(out.Text, 60),
		Author:      out.Author,
		Description: out.Text,
		PublishedAt: out.PublishedAt,
		ContentType: out.ContentType,
		Engagement:  out.Engagement,
		Media:       out.Media,
	}
	if len(out.Media) > 0 {
		md.ThumbnailURL = out.Media[0].SourceURL
		if out.Media[0].PosterURL != "" {
			md.ThumbnailURL = out.Media[0].PosterURL
		}
	}
	return md, true
}
