package api

import (
	"crypto/sha1"
	"encoding/hex"
	"net/http"
	"strconv"
	"time"

	"fan-feed-go/internal/logger"
	"fan-feed-go/internal/model"
	"fan-feed-go/internal/platform"
	"fan-feed-go/internal/rss"
	"fan-feed-go/internal/scrape"
	"fan-feed-go/internal/store"
)

const (
	defaultFeedLimit = 10
	maxFeedLimit     = 50
)

// handleFeed lists a profile's newest posts straight from its feed mirrors.
// Nothing is stored; the posts come back unverified.
func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	svc, ok := s.service(w, r)
	if !ok {
		return
	}
	lister, ok := svc.Platform.(platform.FeedLister)
	if !ok {
		writeError(w, http.StatusNotFound, "Feed not available for "+string(svc.Platform.Name()))
		return
	}
	q := r.URL.Query()
	limit := defaultFeedLimit
	if n, err := strconv.Atoi(q.Get("limit")); err == nil {
		limit = max(1, min(n, maxFeedLimit))
	}

	items, endpoint, err := lister.Latest(r.Context(), q.Get("uid"), limit)
	if err != nil {
		if scrape.IsInvalidInput(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		logger.Warn("profile feed failed", "platform", string(svc.Platform.Name()), "error_kind", scrape.KindOf(err), "err", err)
		writeError(w, http.StatusBadGateway, "No feed source answered")
		return
	}

	now := time.Now().UTC()
	posts := make([]model.Post, 0, len(items))
	for _, it := range items {
		post, ok := s.feedPost(svc.Platform.Name(), it, endpoint, now)
		if ok {
			posts = append(posts, withDisplayURLs(post))
		}
	}
	store.SortPosts(posts)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"data":        posts,
		"source":      endpoint,
		"lastUpdated": now,
	})
}

func (s *Server) feedPost(p model.Platform, it rss.Item, endpoint string, now time.Time) (model.Post, bool) {
	link := it.Link
	if link == "" {
		link = endpoint
	}
	published := it.PublishedAt
	if published == nil {
		published = &now
	}
	unverified := false
	d := model.PostDraft{
		Platform:    string(p),
		Text:        it.Text,
		Media:       it.Media,
		SourceURL:   link,
		PublishedAt: published,
		Verified:    &unverified,
		Source:      model.SourceRSSFeed,
	}
	if err := s.store.ValidateDraft(d); err != nil {
		logger.Debug("feed item skipped", "platform", string(p), "link", link, "err", err)
		return model.Post{}, false
	}
	post := store.DraftPost(d)
	sum := sha1.Sum([]byte(link + "\n" + it.Text))
	post.ID = "rss_" + hex.EncodeToString(sum[:8])
	post.AddedAt = now
	return post, true
}
