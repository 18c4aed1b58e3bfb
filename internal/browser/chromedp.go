package browser

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// ChromedpRenderer launches a fresh headless Chrome per render. It needs no
// Node driver, which suits slim container images.
type ChromedpRenderer struct {
	opts    RendererOptions
	stealth string
}

func NewChromedpRenderer(opts RendererOptions) *ChromedpRenderer {
	return &ChromedpRenderer{opts: opts, stealth: loadStealthScript(opts.StealthScriptPath)}
}

func (r *ChromedpRenderer) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserAgent(r.opts.UserAgent),
		chromedp.WindowSize(mobileWidth, mobileHeight),
		chromedp.Flag("headless", r.opts.Headless),
		chromedp.Flag("lang", "zh-CN"),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("no-default-browser-check", true),
	)
	if path := r.opts.CustomBrowserPath; path != "" {
		opts = append(opts, chromedp.ExecPath(path))
	} else if path, err := FindBrowser(""); err == nil {
		opts = append(opts, chromedp.ExecPath(path))
	}
	if r.opts.ProxyServer != "" {
		opts = append(opts, chromedp.ProxyServer(r.opts.ProxyServer))
	}
	return opts
}

func (r *ChromedpRenderer) Render(ctx context.Context, url string) (string, error) {
	allocCtx, cancel := chromedp.NewExecAllocator(ctx, r.allocatorOptions()...)
	defer cancel()
	tabCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()
	tabCtx, cancel = context.WithTimeout(tabCtx, r.opts.PageTimeout)
	defer cancel()

	var html string
	err := chromedp.Run(tabCtx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(r.stealth).Do(ctx)
			return err
		}),
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(r.opts.Settle),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("chromedp render %s: %w", url, err)
	}
	return html, nil
}

func (r *ChromedpRenderer) Close() error { return nil }
