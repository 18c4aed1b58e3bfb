package douyin

import (
	"context"
	"encoding/json"

	"fan-feed-go/internal/logger"
	"fan-feed-go/internal/proxy"
	"fan-feed-go/internal/rss"
	"fan-feed-go/internal/scrape"
)

var DefaultItemInfoEndpoints = []string{
	"https://www.iesdouyin.com/web/api/v2/aweme/iteminfo/?item_ids={id}",
	"https://www.douyin.com/web/api/v2/aweme/iteminfo/?item_ids={id}",
}

// Client reads single awemes from the public item-info endpoints, which need
// no request signing.
type Client struct {
	client    *scrape.Client
	endpoints []string
}

func NewClient(endpoints []string, timeoutSec int) *Client {
	if len(endpoints) == 0 {
		endpoints = DefaultItemInfoEndpoints
	}
	return &Client{
		client: scrape.NewClient(scrape.ClientOptions{
			Platform:   "douyin",
			Headers:    scrape.MobileJSONHeaders("https://www.douyin.com/"),
			TimeoutSec: timeoutSec,
		}),
		endpoints: endpoints,
	}
}

func (c *Client) InitProxyPool(pool *proxy.Pool) {
	c.client.InitProxyPool(pool)
}

// FindItem returns the aweme from the first endpoint that has it.
func (c *Client) FindItem(ctx context.Context, awemeID string) (VideoDetail, string, error) {
	if !isDigits(awemeID) {
		return VideoDetail{}, "", scrape.NewInvalidInputError("douyin", "", "numeric aweme id required")
	}
	var lastErr error
	for _, ep := range rss.Endpoints(c.endpoints, map[string]string{"id": awemeID}) {
		page, err := c.client.Get(ctx, ep, nil)
		if err != nil {
			lastErr = err
			logger.Debug("douyin endpoint failed", "endpoint", ep, "error_kind", scrape.KindOf(err))
			if ctx.Err() != nil {
				break
			}
			continue
		}
		var resp ItemInfoResponse
		if err := json.Unmarshal(page.Body, &resp); err != nil {
			if hint := scrape.DetectRiskHint(string(page.Body)); hint != "" {
				lastErr = scrape.NewRiskHintError("douyin", ep, hint)
			} else {
				lastErr = scrape.NewParseError("douyin", ep, err)
			}
			continue
		}
		item, ok := resp.First()
		if !ok {
			lastErr = scrape.NewEmptyError("douyin", ep, "empty item list")
			continue
		}
		return item, ep, nil
	}
	if lastErr == nil {
		lastErr = scrape.NewInvalidInputError("douyin", "", "no item-info endpoint")
	}
	return VideoDetail{}, "", lastErr
}
