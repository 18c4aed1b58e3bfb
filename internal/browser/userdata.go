package browser

import (
	"os"
	"path/filepath"
	"strings"
)

// chromeLocks are left behind when Chromium is killed, and make the next
// launch against the same profile exit immediately.
var chromeLocks = []string{"SingletonLock", "SingletonSocket", "SingletonCookie"}

// prepareProfile returns a profile directory for Chromium. An empty base
// yields a throwaway directory removed by cleanup; a named base is kept so
// cookies survive restarts.
func prepareProfile(base string) (dir string, cleanup func(), err error) {
	base = strings.TrimSpace(base)
	if base == "" {
		dir, err = os.MkdirTemp("", "fan-feed-render-")
		if err != nil {
			return "", nil, err
		}
		return dir, func() { _ = os.RemoveAll(dir) }, nil
	}

	dir, err = filepath.Abs(base)
	if err != nil {
		return "", nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", nil, err
	}
	for _, name := range chromeLocks {
		_ = os.Remove(filepath.Join(dir, name))
	}
	return dir, func() {}, nil
}
