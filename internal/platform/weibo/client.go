package weibo

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"fan-feed-go/internal/extract"
	"fan-feed-go/internal/logger"
	"fan-feed-go/internal/proxy"
	"fan-feed-go/internal/rss"
	"fan-feed-go/internal/scrape"
	"fan-feed-go/internal/sharetext"
)

var DefaultMobileEndpoints = []string{
	"https://m.weibo.cn/statuses/show?id={id}",
	"https://m.weibo.cn/api/statuses/show?id={id}",
	"https://weibo.cn/ajax/statuses/show?id={id}",
	"https://m.weibo.cn/api/container/getIndex?type=uid&value={uid}",
}

// Client reads statuses from the mobile site's JSON endpoints.
type Client struct {
	client    *scrape.Client
	endpoints []string
}

func NewClient(endpoints []string, timeoutSec int) *Client {
	if len(endpoints) == 0 {
		endpoints = DefaultMobileEndpoints
	}
	return &Client{
		client: scrape.NewClient(scrape.ClientOptions{
			Platform:   "weibo",
			Headers:    scrape.MobileJSONHeaders("https://m.weibo.cn/"),
			TimeoutSec: timeoutSec,
		}),
		endpoints: endpoints,
	}
}

func (c *Client) InitProxyPool(pool *proxy.Pool) {
	c.client.InitProxyPool(pool)
}

// FindStatus walks the endpoints in order and returns the first status with
// text. Failing endpoints are skipped.
func (c *Client) FindStatus(ctx context.Context, id, uid string) (map[string]any, string, error) {
	endpoints := rss.Endpoints(c.endpoints, map[string]string{"id": id, "uid": uid})
	if len(endpoints) == 0 {
		return nil, "", scrape.NewInvalidInputError("weibo", "", "no status id or uid")
	}
	var lastErr error
	for _, ep := range endpoints {
		page, err := c.client.Get(ctx, ep, nil)
		if err != nil {
			lastErr = err
			logger.Debug("weibo endpoint failed", "endpoint", ep, "error_kind", scrape.KindOf(err))
			if ctx.Err() != nil {
				break
			}
			continue
		}
		if hint := scrape.DetectRiskHint(string(page.Body)); hint != "" {
			lastErr = scrape.NewRiskHintError("weibo", ep, hint)
			logger.Warn("weibo endpoint served a risk page", "endpoint", ep, "error_kind", scrape.ErrorKindRiskHint, "hint", hint)
			continue
		}
		var root any
		if err := json.Unmarshal(page.Body, &root); err != nil {
			lastErr = scrape.NewParseError("weibo", ep, err)
			continue
		}
		if status := PickStatus(root, id); status != nil {
			return status, ep, nil
		}
		lastErr = scrape.NewEmptyError("weibo", ep, fmt.Sprintf("no status %s in response", id))
	}
	return nil, "", lastErr
}

// PickStatus finds the status in any of the response shapes the mobile
// endpoints use: data itself, data.cards[].mblog, data.statuses[] or the
// root object. A match with no text is skipped in favour of the next one.
func PickStatus(root any, id string) map[string]any {
	m := extract.Obj(root)
	if m == nil {
		return nil
	}
	data := extract.Obj(m["data"])
	if data != nil {
		if hasText(data) {
			return data
		}
		for _, card := range extract.Arr(data["cards"]) {
			cm := extract.Obj(card)
			if mb := extract.Obj(cm["mblog"]); mb != nil && usable(mb, id) {
				return mb
			}
			for _, sub := range extract.Arr(cm["card_group"]) {
				if mb := extract.Obj(extract.Obj(sub)["mblog"]); mb != nil && usable(mb, id) {
					return mb
				}
			}
		}
		for _, st := range extract.Arr(data["statuses"]) {
			if sm := extract.Obj(st); sm != nil && usable(sm, id) {
				return sm
			}
		}
	}
	if hasText(m) {
		return m
	}
	return nil
}

func hasText(m map[string]any) bool {
	return extract.Str(m, "text", "raw_text") != ""
}

func usable(m map[string]any, id string) bool {
	return matchesID(m, id) && StatusText(m) != ""
}

func matchesID(m map[string]any, id string) bool {
	id = strings.TrimSpace(id)
	if id == "" {
		return false
	}
	for _, k := range []string{"id", "idstr", "mid", "bid"} {
		if extract.Str(m, k) == id {
			return true
		}
	}
	return false
}

// StatusText is the plain text of a status, preferring the long-text body.
func StatusText(status map[string]any) string {
	text := sharetext.StripTags(extract.Str(status, "text", "raw_text"))
	if long := sharetext.StripTags(extract.Str(status, "longText.longTextContent")); sharetext.RuneLen(long) > sharetext.RuneLen(text) {
		text = long
	}
	return text
}
