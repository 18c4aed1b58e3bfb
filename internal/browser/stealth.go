package browser

import (
	"os"
	"strings"

	"fan-feed-go/internal/logger"

	"github.com/playwright-community/playwright-go"
)

// mobileStealth makes a headless desktop Chromium look like the phone the
// viewport claims to be. Weibo and XHS serve their lighter mobile markup only
// when touch and platform agree with the user agent.
const mobileStealth = `(() => {
  const define = (obj, key, value) => {
    try { Object.defineProperty(obj, key, { get: () => value }); } catch (e) {}
  };
  define(navigator, 'webdriver', undefined);
  define(navigator, 'platform', 'iPhone');
  define(navigator, 'maxTouchPoints', 5);
  define(navigator, 'languages', ['zh-CN', 'zh']);
  define(navigator, 'hardwareConcurrency', 6);
  try { window.chrome = window.chrome || { runtime: {} }; } catch (e) {}
  try {
    if (!('ontouchstart' in window)) { window.ontouchstart = null; }
  } catch (e) {}
})();`

// loadStealthScript prefers a script file (for example a stealth.min.js
// bundle) and falls back to the built-in mobile overrides.
func loadStealthScript(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return mobileStealth
	}
	b, err := os.ReadFile(path)
	if err != nil || strings.TrimSpace(string(b)) == "" {
		logger.Warn("stealth script unreadable, using built-in", "path", path, "err", err)
		return mobileStealth
	}
	return string(b)
}

func injectStealth(bctx playwright.BrowserContext, script string) error {
	if bctx == nil || script == "" {
		return nil
	}
	return bctx.AddInitScript(playwright.Script{Content: playwright.String(script)})
}
