package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/exec"
	"runtime"
	"time"

	"fan-feed-go/internal/logger"

	"github.com/playwright-community/playwright-go"
)

type CDPOptions struct {
	DebugPort         int
	UserAgent         string
	CustomBrowserPath string
	UserDataDir       string
	Headless          bool
	ProxyServer       string
	LaunchTimeout     time.Duration
}

// CDPSession is a Chromium reached over the DevTools protocol. Cmd is nil
// when an already running browser was attached.
type CDPSession struct {
	Cmd     *exec.Cmd
	Browser playwright.Browser
	Context playwright.BrowserContext
}

func (s *CDPSession) Close() {
	if s == nil {
		return
	}
	if s.Browser != nil {
		_ = s.Browser.Close()
	}
	if s.Cmd != nil && s.Cmd.Process != nil {
		_ = s.Cmd.Process.Kill()
		_ = s.Cmd.Wait()
	}
}

// StartOrConnectCDP attaches to a browser already listening on DebugPort, or
// launches one with a phone-sized window and waits for its endpoint.
func StartOrConnectCDP(ctx context.Context, pw *playwright.Playwright, opts CDPOptions) (*CDPSession, error) {
	if pw == nil {
		return nil, fmt.Errorf("playwright is nil")
	}
	if opts.DebugPort <= 0 {
		opts.DebugPort = 9222
	}
	if opts.LaunchTimeout <= 0 {
		opts.LaunchTimeout = 60 * time.Second
	}
	endpoint := fmt.Sprintf("http://127.0.0.1:%d", opts.DebugPort)

	sess := &CDPSession{}
	wsURL, err := probeCDP(ctx, endpoint)
	if err != nil {
		cmd, err := launchForCDP(opts)
		if err != nil {
			return nil, err
		}
		sess.Cmd = cmd

		waitCtx, cancel := context.WithTimeout(ctx, opts.LaunchTimeout)
		wsURL, err = waitCDP(waitCtx, endpoint)
		cancel()
		if err != nil {
			sess.Close()
			return nil, fmt.Errorf("cdp not ready on port %d: %w", opts.DebugPort, err)
		}
		logger.Info("browser launched for cdp", "port", opts.DebugPort)
	} else {
		logger.Info("attached to running browser", "port", opts.DebugPort)
	}

	sess.Browser, err = pw.Chromium.ConnectOverCDP(wsURL)
	if err != nil {
		sess.Close()
		return nil, fmt.Errorf("connect over cdp: %w", err)
	}

	if contexts := sess.Browser.Contexts(); len(contexts) > 0 {
		sess.Context = contexts[0]
		return sess, nil
	}
	sess.Context, err = sess.Browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent: playwright.String(opts.UserAgent),
		Viewport:  &playwright.Size{Width: mobileWidth, Height: mobileHeight},
		Locale:    playwright.String("zh-CN"),
		IsMobile:  playwright.Bool(true),
		HasTouch:  playwright.Bool(true),
	})
	if err != nil {
		sess.Close()
		return nil, fmt.Errorf("new context: %w", err)
	}
	return sess, nil
}

// launchForCDP starts the browser detached from any request context; the
// session's Close ends it.
func launchForCDP(opts CDPOptions) (*exec.Cmd, error) {
	bin, err := FindBrowser(opts.CustomBrowserPath)
	if err != nil {
		return nil, err
	}
	dir := opts.UserDataDir
	if dir == "" {
		dir = "browser_data/cdp"
	}
	profile, _, err := prepareProfile(dir)
	if err != nil {
		return nil, fmt.Errorf("prepare browser profile: %w", err)
	}
	cmd := exec.Command(bin, buildChromeArgs(opts, profile)...)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start browser: %w", err)
	}
	return cmd, nil
}

// probeCDP returns the browser websocket URL advertised by /json/version.
func probeCDP(ctx context.Context, endpoint string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"/json/version", nil)
	if err != nil {
		return "", err
	}
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var body struct {
		WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK || body.WebSocketDebuggerURL == "" {
		return "", fmt.Errorf("no debugger url (status %d)", resp.StatusCode)
	}
	return body.WebSocketDebuggerURL, nil
}

func waitCDP(ctx context.Context, endpoint string) (string, error) {
	tick := time.NewTicker(250 * time.Millisecond)
	defer tick.Stop()
	for {
		if ws, err := probeCDP(ctx, endpoint); err == nil {
			return ws, nil
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-tick.C:
		}
	}
}

// buildChromeArgs launches a phone-sized window so the sites serve their
// mobile markup.
func buildChromeArgs(opts CDPOptions, profile string) []string {
	args := []string{
		fmt.Sprintf("--remote-debugging-port=%d", opts.DebugPort),
		"--user-data-dir=" + profile,
		fmt.Sprintf("--window-size=%d,%d", mobileWidth, mobileHeight),
		"--lang=zh-CN",
		"--no-first-run",
		"--no-default-browser-check",
		"--disable-blink-features=AutomationControlled",
		"--disable-dev-shm-usage",
	}
	if opts.UserAgent != "" {
		args = append(args, "--user-agent="+opts.UserAgent)
	}
	if opts.ProxyServer != "" {
		args = append(args, "--proxy-server="+opts.ProxyServer)
	}
	if opts.Headless {
		args = append(args, "--headless=new", "--disable-gpu")
	}
	if runtime.GOOS == "linux" {
		args = append(args, "--password-store=basic", "--use-mock-keychain")
	}
	return args
}
