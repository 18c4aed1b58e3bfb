package weibo

import (
	"fan-feed-go/internal/cascade"
	"fan-feed-go/internal/extract"
	"fan-feed-go/internal/model"
	"fan-feed-go/internal/sharetext"
)

// StatusOutcome maps a mobile-API status onto a cascade outcome.
func StatusOutcome(status map[string]any, fallbackURL string) cascade.Outcome {
	media := StatusMedia(status)
	out := cascade.Outcome{
		Text:   StatusText(status),
		Author: extract.Str(status, "user.screen_name"),
		Media:  media,
		Engagement: model.PartialEngagement{
			Likes:    extract.Uint(status, "attitudes_count"),
			Comments: extract.Uint(status, "comments_count"),
			Shares:   extract.Uint(status, "reposts_count"),
		},
		PublishedAt: sharetext.ParseLoose(extract.Any(status, "created_at")),
		ContentType: model.ContentTypeOf(media),
		SourceURL:   fallbackURL,
	}
	uid := extract.Str(status, "user.idstr", "user.id")
	bid := extract.Str(status, "bid", "mblogid")
	if uid != "" && bid != "" {
		out.SourceURL = "https://weibo.com/" + uid + "/" + bid
	}
	return out
}
