package platform

import (
	"strings"

	"fan-feed-go/internal/cascade"
	"fan-feed-go/internal/model"
	"fan-feed-go/internal/resolve"
	"fan-feed-go/internal/scrape"
	"fan-feed-go/internal/sharetext"
)

// PrepareInput validates a request against the platform's domains. The URL
// comes from the request, else from the share text. A request with neither,
// or with a URL on another site, is invalid input.
func PrepareInput(p model.Platform, domains []string, parse func(string) model.ShareHint, req FetchRequest) (cascade.Input, error) {
	rawURL := strings.TrimSpace(req.URL)
	share := strings.TrimSpace(req.ShareText)

	hint := model.EmptyHint()
	if share != "" {
		hint = parse(share)
	}
	if rawURL == "" {
		rawURL = hint.CanonicalURL
	}
	if rawURL == "" && share != "" {
		rawURL = sharetext.FindURL(share, nil)
	}
	if rawURL == "" {
		return cascade.Input{}, scrape.NewInvalidInputError(string(p), "", "url or share text containing a link is required")
	}
	if !resolve.IsHTTPURL(rawURL) {
		return cascade.Input{}, scrape.NewInvalidInputError(string(p), rawURL, "malformed url")
	}
	if !resolve.HostMatches(rawURL, domains...) {
		return cascade.Input{}, scrape.NewInvalidInputError(string(p), rawURL, "not a "+string(p)+" link")
	}
	if hint.CanonicalURL == "" {
		hint.CanonicalURL = rawURL
	}
	return cascade.Input{
		Platform:  p,
		URL:       rawURL,
		ShareText: share,
		Hint:      hint,
	}, nil
}
