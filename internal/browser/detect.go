package browser

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// browserCandidates lists executable names looked up on PATH and absolute
// install locations, per OS. Container images usually ship chromium or
// chrome-headless-shell.
func browserCandidates(goos string) (names, paths []string) {
	names = []string{
		"chromium",
		"chromium-browser",
		"google-chrome-stable",
		"google-chrome",
		"chrome-headless-shell",
		"headless-shell",
	}
	switch goos {
	case "darwin":
		paths = []string{
			"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
			"/Applications/Chromium.app/Contents/MacOS/Chromium",
		}
	case "windows":
		names = []string{"chrome.exe", "msedge.exe"}
		paths = []string{
			`C:\Program Files\Google\Chrome\Application\chrome.exe`,
			`C:\Program Files (x86)\Microsoft\Edge\Application\msedge.exe`,
		}
	default:
		paths = []string{"/usr/bin/chromium", "/headless-shell/headless-shell"}
	}
	return names, paths
}

// FindBrowser returns custom when it exists, then CHROME_PATH, then the
// first installed candidate.
func FindBrowser(custom string) (string, error) {
	if custom = strings.TrimSpace(custom); custom != "" {
		if _, err := os.Stat(custom); err != nil {
			return "", fmt.Errorf("custom browser path: %w", err)
		}
		return custom, nil
	}
	if env := strings.TrimSpace(os.Getenv("CHROME_PATH")); env != "" {
		if _, err := os.Stat(env); err == nil {
			return env, nil
		}
	}

	names, paths := browserCandidates(runtime.GOOS)
	for _, name := range names {
		if p, err := exec.LookPath(name); err == nil {
			return p, nil
		}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("no chromium found (tried %s); set CUSTOM_BROWSER_PATH", strings.Join(names, ", "))
}
