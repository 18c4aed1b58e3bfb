// Package douyin resolves Douyin videos and image posts from share strings
// and links.
package douyin

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

var DefaultRSSTemplates = []string{"{rsshub}/douyin/user/{uid}"}

var guide = cascade.ManualGuide{
	Steps: []string{
		"Open the Douyin link in the app or a browser",
		"Copy the video description into the text field",
		"Copy the cover image address into the Media section",
		"Copy the like, comment and share counts",
		"Set the post time shown under the video",
	},
	Tips: map[string]string{
		"text":  "Tap the description to expand it before copying",
		"video": "The video is linked as an outbound card; no file upload is needed",
	},
}

type Platform struct {
	cfg      config.Config
	items    *Client
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
		items: NewClient(cfg.DouyinItemInfoEndpoints, cfg.HttpTimeoutSec),
		feeds: rss.NewFetcher(string(model.PlatformDouyin), cfg.HttpTimeoutSec),
		resolver: resolve.New(resolve.Options{
			Platform:      string(model.PlatformDouyin),
			Referer:       "https://www.douyin.com/",
			Strategies:    Strategies(),
			TitleSuffixes: []string{"- 抖音"},
			TimeoutSec:    cfg.HttpTimeoutSec,
		}),
	}
	if d.Proxy != nil {
		p.items.InitProxyPool(d.Proxy)
		p.feeds.InitProxyPool(d.Proxy)
		p.resolver.InitProxyPool(d.Proxy)
	}

	templates := cfg.DouyinRSSTemplates
	if len(templates) == 0 {
		templates = DefaultRSSTemplates
	}
	p.profile = rss.Profile{
		Templates:  templates,
		RSSHub:     cfg.RSSHubURL,
		DefaultUID: cfg.DouyinDefaultUID,
		MinTextLen: cfg.CascadeMinTextLen,
	}
	strategies := []cascade.Strategy{
		cascade.Func(cascade.StateMobileJSON, p.fetchItem),
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

	p.pipeline = cascade.New(model.PlatformDouyin, cascade.Options{
		MinTextLen:      cfg.CascadeMinTextLen,
		StrategyTimeout: time.Duration(cfg.StrategyTimeoutSec) * time.Second,
		Merge: cascade.MergeOptions{
			SubstantialTextLen: cfg.MergeSubstantialTextLen,
			MinHintTextLen:     cfg.MergeMinHintTextLen,
			VideoCard:          true,
		},
		Manual:   guide,
		Recorder: d.Recorder,
	}, strategies...)
	return p
}

func (p *Platform) Name() model.Platform { return model.PlatformDouyin }

func (p *Platform) ParseShareText(text string) model.ShareHint { return ParseShareText(text) }

func (p *Platform) Pipeline() *cascade.Orchestrator { return p.pipeline }

// Latest lists the profile's newest posts from its feed mirrors.
func (p *Platform) Latest(ctx context.Context, uid string, limit int) ([]rss.Item, string, error) {
	return p.feeds.Latest(ctx, p.profile, uid, limit)
}

func (p *Platform) Resolve(ctx context.Context, rawURL string) model.ResolvedMetadata {
	return p.resolver.Resolve(ctx, rawURL)
}

// Prepare validates the request and expands v.douyin.com links to obtain the
// numeric aweme id the item-info API needs.
func (p *Platform) Prepare(ctx context.Context, req platform.FetchRequest) (cascade.Input, error) {
	in, err := platform.PrepareInput(model.PlatformDouyin, Domains, ParseShareText, req)
	if err != nil {
		return in, err
	}
	link := ParseLink(in.URL)
	if link.AwemeID == "" {
		expanded := p.resolver.FollowRedirects(ctx, in.URL)
		if expanded != in.URL {
			logger.Debug("douyin short link expanded", "url", in.URL, "expanded", expanded)
			full := ParseLink(expanded)
			if full.SecUID == "" {
				full.SecUID = link.SecUID
			}
			link = full
			if link.AwemeID != "" {
				in.Hint.CanonicalURL = "https://www.douyin.com/video/" + link.AwemeID
			}
		}
	}
	in.PostID = link.AwemeID
	in.UID = link.SecUID
	return in, nil
}

func (p *Platform) fetchItem(ctx context.Context, in *cascade.Input) cascade.Outcome {
	if in.PostID == "" {
		return cascade.Outcome{Err: scrape.NewInvalidInputError("douyin", in.URL, "no aweme id")}
	}
	item, endpoint, err := p.items.FindItem(ctx, in.PostID)
	if err != nil {
		return cascade.Outcome{Err: err}
	}
	logger.Debug("douyin item found", "id", in.PostID, "endpoint", endpoint)
	if in.UID == "" {
		in.UID = item.Author.SecUID
	}
	return item.Outcome()
}

func BrowserCandidates(in *cascade.Input) []string {
	var out []string
	if in.PostID != "" {
		out = append(out,
			"https://www.iesdouyin.com/share/video/"+in.PostID+"/",
			"https://www.douyin.com/video/"+in.PostID,
		)
	}
	if in.URL != "" {
		out = append(out, in.URL)
	}
	return out
}

// Strategies are the embedded-state variants seen on video pages.
func Strategies() []extract.Strategy {
	paths := []string{
		"loaderData.*.videoInfoRes.item_list.0",
		"loaderData.*.videoDetail",
		"app.videoDetail",
		"videoDetail",
		"awemeDetail",
		"aweme.detail",
		"props.pageProps.videoDetail",
	}
	return []extract.Strategy{
		{Name: "douyin_render_data", Patterns: []extract.Pattern{extract.RenderData}, Paths: paths, Map: mapAweme},
		{Name: "douyin_router_data", Patterns: []extract.Pattern{extract.RouterData}, Paths: paths, Map: mapAweme},
		{Name: "douyin_ssr_state", Patterns: []extract.Pattern{extract.SSRState, extract.PlainState, extract.NuxtState}, Paths: paths, Map: mapAweme},
	}
}

// mapAweme reads both the API's snake_case aweme and the web app's
// camelCase video detail.
func mapAweme(obj map[string]any) (model.ResolvedMetadata, bool) {
	desc := sharetext.CollapseSpace(extract.Str(obj, "desc", "title", "content"))
	if desc == "" {
		return model.ResolvedMetadata{}, false
	}
	md := model.ResolvedMetadata{
		Title:       desc,
		Description: desc,
		Author:      extract.Str(obj, "author.nickname", "authorInfo.nickname"),
		PublishedAt: sharetext.ParseLoose(extract.Any(obj, "createTime", "create_time", "publishTime")),
		Engagement: model.PartialEngagement{
			Likes:    extract.Uint(obj, "stats.diggCount", "statistics.digg_count"),
			Comments: extract.Uint(obj, "stats.commentCount", "statistics.comment_count"),
			Shares:   extract.Uint(obj, "stats.shareCount", "statistics.share_count"),
		},
		ThumbnailURL: model.NormalizeMediaURL(extract.Str(obj,
			"video.cover.url_list.0", "video.cover", "video.origin_cover.url_list.0", "video.originCover", "cover")),
	}
	var media []model.MediaItem
	for _, img := range extract.Arr(extract.Any(obj, "images")) {
		if u := extract.Str(extract.Obj(img), "url_list.0", "urlList.0", "url"); u != "" {
			media = append(media, model.NewImage(u))
		}
	}
	play := extract.Str(obj, "video.play_addr.url_list.0", "video.playAddr.0.src", "video.playUrl", "video.play_url", "playUrl")
	if play != "" && len(media) == 0 {
		media = append(media, model.NewVideo(play, md.ThumbnailURL))
	}
	md.Media = model.DedupeMedia(media)
	md.ContentType = model.ContentTypeOf(md.Media)
	if play != "" || (extract.Any(obj, "video") != nil && len(media) == 0) {
		md.ContentType = model.ContentVideo
	}
	return md, true
}
