package scrape

import (
	"context"
	"time"
)

func Sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	if ctx == nil {
		time.Sleep(d)
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// WithTimeout bounds a single upstream call. Non-positive seconds fall back to
// ten seconds so no call runs unbounded.
func WithTimeout(ctx context.Context, sec int) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if sec <= 0 {
		sec = 10
	}
	return context.WithTimeout(ctx, time.Duration(sec)*time.Second)
}
