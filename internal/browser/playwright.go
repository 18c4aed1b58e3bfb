package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"fan-feed-go/internal/logger"

	"github.com/playwright-community/playwright-go"
)

// PlaywrightRenderer starts Chromium on first use and reuses it. With CDP
// enabled it attaches to (or launches) a debuggable Chrome instead.
type PlaywrightRenderer struct {
	opts    RendererOptions
	stealth string

	mu      sync.Mutex
	pw      *playwright.Playwright
	cdp     *CDPSession
	bctx    playwright.BrowserContext
	cleanup func()
}

func NewPlaywrightRenderer(opts RendererOptions) *PlaywrightRenderer {
	return &PlaywrightRenderer{opts: opts, stealth: loadStealthScript(opts.StealthScriptPath)}
}

func (r *PlaywrightRenderer) ensureStarted() (playwright.BrowserContext, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.bctx != nil {
		return r.bctx, nil
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}

	if r.opts.UseCDP {
		launchCtx, cancel := context.WithTimeout(context.Background(), r.opts.LaunchTimeout)
		defer cancel()
		sess, err := StartOrConnectCDP(launchCtx, pw, CDPOptions{
			DebugPort:         r.opts.CDPPort,
			UserAgent:         r.opts.UserAgent,
			CustomBrowserPath: r.opts.CustomBrowserPath,
			UserDataDir:       r.opts.UserDataDir,
			Headless:          r.opts.Headless,
			ProxyServer:       r.opts.ProxyServer,
			LaunchTimeout:     r.opts.LaunchTimeout,
		})
		if err != nil {
			_ = pw.Stop()
			return nil, err
		}
		r.pw, r.cdp, r.bctx = pw, sess, sess.Context
	} else {
		dir, cleanup, err := prepareProfile(r.opts.UserDataDir)
		if err != nil {
			_ = pw.Stop()
			return nil, err
		}
		launch := playwright.BrowserTypeLaunchPersistentContextOptions{
			Headless:  playwright.Bool(r.opts.Headless),
			Viewport:  &playwright.Size{Width: mobileWidth, Height: mobileHeight},
			UserAgent: playwright.String(r.opts.UserAgent),
			Locale:    playwright.String("zh-CN"),
			IsMobile:  playwright.Bool(true),
			HasTouch:  playwright.Bool(true),
		}
		if r.opts.CustomBrowserPath != "" {
			launch.ExecutablePath = playwright.String(r.opts.CustomBrowserPath)
		}
		if r.opts.ProxyServer != "" {
			launch.Proxy = &playwright.Proxy{Server: r.opts.ProxyServer}
		}
		bctx, err := pw.Chromium.LaunchPersistentContext(dir, launch)
		if err != nil {
			cleanup()
			_ = pw.Stop()
			return nil, fmt.Errorf("launch chromium: %w", err)
		}
		r.pw, r.bctx, r.cleanup = pw, bctx, cleanup
	}

	if err := injectStealth(r.bctx, r.stealth); err != nil {
		logger.Warn("inject stealth failed", "err", err)
	}
	return r.bctx, nil
}

func (r *PlaywrightRenderer) Render(ctx context.Context, url string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	bctx, err := r.ensureStarted()
	if err != nil {
		return "", err
	}
	page, err := bctx.NewPage()
	if err != nil {
		return "", fmt.Errorf("new page: %w", err)
	}
	defer page.Close()

	timeoutMs := float64(r.opts.PageTimeout.Milliseconds())
	if dl, ok := ctx.Deadline(); ok {
		if left := float64(time.Until(dl).Milliseconds()); left < timeoutMs {
			timeoutMs = left
		}
	}
	if timeoutMs <= 0 {
		return "", context.DeadlineExceeded
	}
	if _, err := page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(timeoutMs),
	}); err != nil {
		return "", fmt.Errorf("goto %s: %w", url, err)
	}
	if r.opts.Settle > 0 {
		page.WaitForTimeout(float64(r.opts.Settle.Milliseconds()))
	}
	return page.Content()
}

func (r *PlaywrightRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cdp != nil {
		r.cdp.Close()
	} else if r.bctx != nil {
		_ = r.bctx.Close()
	}
	if r.cleanup != nil {
		r.cleanup()
	}
	var err error
	if r.pw != nil {
		err = r.pw.Stop()
	}
	r.pw, r.cdp, r.bctx, r.cleanup = nil, nil, nil, nil
	return err
}
