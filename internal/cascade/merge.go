package cascade

import (
	"strings"
	"time"

	"fan-feed-go/internal/model"
	"fan-feed-go/internal/sharetext"
)

type MergeOptions struct {
	// SubstantialTextLen is the length a resolved title or description must
	// exceed to beat the share text.
	SubstantialTextLen int
	MinHintTextLen     int
	// VideoCard attaches an outbound video card when no playable video was
	// recovered.
	VideoCard bool
}

type Merged struct {
	Text        string
	Title       string
	Author      string
	SourceURL   string
	Media       []model.MediaItem
	PublishedAt *time.Time
	Engagement  model.PartialEngagement
	ContentType model.ContentType
	Hashtags    []string
}

func fetchedState(s State) bool {
	return s == StateMobileJSON || s == StateRSS || s == StateBrowser
}

// Merge combines the outcomes of one run. accepted indexes the accepted
// outcome or is -1.
func Merge(opts MergeOptions, in Input, outcomes []Outcome, accepted int) Merged {
	var fetched *Outcome
	if accepted >= 0 && accepted < len(outcomes) && fetchedState(outcomes[accepted].State) {
		fetched = &outcomes[accepted]
	}
	var resolved *model.ResolvedMetadata
	for i := range outcomes {
		if outcomes[i].Resolved != nil {
			resolved = outcomes[i].Resolved
			break
		}
	}
	hint := in.Hint

	var out Merged
	out.Text = mergeText(opts, in, fetched, resolved, outcomes)

	switch {
	case fetched != nil && fetched.Title != "":
		out.Title = fetched.Title
	case resolved != nil && resolved.Title != "":
		out.Title = resolved.Title
	default:
		out.Title = hint.Title
	}
	switch {
	case fetched != nil && fetched.Author != "":
		out.Author = fetched.Author
	case resolved != nil && resolved.Author != "":
		out.Author = resolved.Author
	default:
		out.Author = hint.Author
	}

	switch {
	case fetched != nil && fetched.SourceURL != "":
		out.SourceURL = fetched.SourceURL
	case resolved != nil && resolved.ResolvedURL != "":
		out.SourceURL = resolved.ResolvedURL
	case in.URL != "":
		out.SourceURL = in.URL
	default:
		out.SourceURL = hint.CanonicalURL
	}

	// Resolved metadata is the stalest source, scraped counts the freshest.
	if resolved != nil {
		out.Engagement = out.Engagement.Overlay(resolved.Engagement)
	}
	for i, o := range outcomes {
		if i != accepted && o.Resolved == nil {
			out.Engagement = out.Engagement.Overlay(o.Engagement)
		}
	}
	if accepted >= 0 && accepted < len(outcomes) {
		out.Engagement = out.Engagement.Overlay(outcomes[accepted].Engagement)
	}

	out.PublishedAt = mergeDate(in, out.Text, fetched, resolved, outcomes)

	var media []model.MediaItem
	if accepted >= 0 && accepted < len(outcomes) {
		media = append(media, outcomes[accepted].Media...)
	}
	for i, o := range outcomes {
		if i != accepted && o.Resolved == nil {
			media = append(media, o.Media...)
		}
	}
	if resolved != nil {
		media = append(media, resolved.Media...)
	}
	media = model.DedupeMedia(media)
	if opts.VideoCard && !hasVideo(media) && out.SourceURL != "" {
		poster := ""
		if resolved != nil {
			poster = resolved.ThumbnailURL
		}
		if poster == "" {
			for _, m := range media {
				if m.Kind == model.MediaImage {
					poster = m.SourceURL
					break
				}
			}
		}
		media = append(media, model.NewVideoFrame(out.SourceURL, poster))
	}
	out.Media = media

	out.ContentType = mergeContentType(fetched, resolved, media, hint)

	out.Hashtags = mergeTags(hint.Hashtags, sharetext.Hashtags(out.Text))
	return out
}

func mergeText(opts MergeOptions, in Input, fetched *Outcome, resolved *model.ResolvedMetadata, outcomes []Outcome) string {
	if fetched != nil && strings.TrimSpace(fetched.Text) != "" {
		return strings.TrimSpace(fetched.Text)
	}
	var resolvedText string
	if resolved != nil {
		resolvedText = longer(resolved.Description, resolved.Title)
		if sharetext.RuneLen(resolvedText) > opts.SubstantialTextLen {
			return strings.TrimSpace(resolvedText)
		}
	}
	if sharetext.RuneLen(in.Hint.OriginalText) >= opts.MinHintTextLen && strings.TrimSpace(in.Hint.OriginalText) != "" {
		return strings.TrimSpace(in.Hint.OriginalText)
	}
	if raw := sharetext.CollapseSpace(in.ShareText); raw != "" {
		return raw
	}
	if strings.TrimSpace(resolvedText) != "" {
		return strings.TrimSpace(resolvedText)
	}
	var best string
	for _, o := range outcomes {
		best = longer(best, o.Text)
	}
	return strings.TrimSpace(best)
}

func mergeDate(in Input, text string, fetched *Outcome, resolved *model.ResolvedMetadata, outcomes []Outcome) *time.Time {
	if d := sharetext.DateStamp(in.ShareText); d != nil {
		return d
	}
	if d := sharetext.DateStamp(text); d != nil {
		return d
	}
	if fetched != nil && fetched.PublishedAt != nil {
		return fetched.PublishedAt
	}
	for _, o := range outcomes {
		if o.Resolved == nil && o.PublishedAt != nil {
			return o.PublishedAt
		}
	}
	if resolved != nil && resolved.PublishedAt != nil {
		return resolved.PublishedAt
	}
	return in.Hint.PublishDate
}

func mergeContentType(fetched *Outcome, resolved *model.ResolvedMetadata, media []model.MediaItem, hint model.ShareHint) model.ContentType {
	known := func(c model.ContentType) bool { return c != "" && c != model.ContentUnknown }
	if resolved != nil && known(resolved.ContentType) {
		return resolved.ContentType
	}
	if fetched != nil && known(fetched.ContentType) {
		return fetched.ContentType
	}
	if c := model.ContentTypeOf(media); known(c) {
		return c
	}
	if hint.LooksLikeVideo {
		return model.ContentVideo
	}
	return model.ContentUnknown
}

func hasVideo(items []model.MediaItem) bool {
	for _, m := range items {
		if m.Kind == model.MediaVideo {
			return true
		}
	}
	return false
}

func longer(a, b string) string {
	if sharetext.RuneLen(b) > sharetext.RuneLen(a) {
		return b
	}
	return a
}

func mergeTags(lists ...[]string) []string {
	out := []string{}
	seen := map[string]struct{}{}
	for _, l := range lists {
		for _, t := range l {
			if _, ok := seen[t]; ok || t == "" {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}
