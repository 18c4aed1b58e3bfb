// Package browser renders pages in a real Chromium when cheaper fetches fail,
// and scrapes post content out of the rendered DOM.
package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fan-feed-go/internal/config"
	"fan-feed-go/internal/logger"
	"fan-feed-go/internal/proxy"
)

const (
	mobileWidth  = 375
	mobileHeight = 667
)

// Renderer loads a URL and returns the page HTML after scripts have run.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
	Close() error
}

type RendererOptions struct {
	UserAgent         string
	Headless          bool
	UseCDP            bool
	CDPPort           int
	CustomBrowserPath string
	UserDataDir       string
	ProxyServer       string
	StealthScriptPath string
	LaunchTimeout     time.Duration
	PageTimeout       time.Duration
	// Settle is how long to wait after DOM ready for client rendering.
	Settle time.Duration
}

func OptionsFromConfig(cfg config.Config) RendererOptions {
	pageTimeout := time.Duration(cfg.BrowserPageTimeoutSec) * time.Second
	if pageTimeout <= 0 {
		pageTimeout = 15 * time.Second
	}
	launch := time.Duration(cfg.BrowserLaunchTimeout) * time.Second
	if launch <= 0 {
		launch = 60 * time.Second
	}
	return RendererOptions{
		UserAgent:         cfg.UserAgentMobile,
		Headless:          cfg.Headless,
		UseCDP:            cfg.EnableCDPMode,
		CDPPort:           cfg.CDPDebugPort,
		CustomBrowserPath: cfg.CustomBrowserPath,
		UserDataDir:       cfg.UserDataDir,
		StealthScriptPath: cfg.StealthScriptPath,
		LaunchTimeout:     launch,
		PageTimeout:       pageTimeout,
		Settle:            1500 * time.Millisecond,
	}
}

// NewRendererFromConfig returns nil when browser automation is disabled. A
// proxy pool, when given, picks the browser's --proxy-server at launch.
func NewRendererFromConfig(cfg config.Config, pool *proxy.Pool) (Renderer, error) {
	if !cfg.BrowserEnabled {
		return nil, nil
	}
	opts := OptionsFromConfig(cfg)
	if pool != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		pr, err := pool.GetOrRefresh(ctx)
		cancel()
		if err != nil {
			logger.Warn("browser starts without proxy", "err", err)
		} else {
			opts.ProxyServer = pr.ChromeProxyServer()
		}
	}
	switch strings.ToLower(strings.TrimSpace(cfg.BrowserDriver)) {
	case "", "playwright":
		return NewPlaywrightRenderer(opts), nil
	case "chromedp":
		return NewChromedpRenderer(opts), nil
	default:
		return nil, fmt.Errorf("unknown browser driver: %s", cfg.BrowserDriver)
	}
}
