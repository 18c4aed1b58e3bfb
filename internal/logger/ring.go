package logger

import (
	"log/slog"
	"strings"
	"sync"
)

// Event is one log record as served by /api/logs and /ws/logs.
type Event struct {
	Seq      uint64         `json:"seq"`
	Time     string         `json:"time"`
	Level    string         `json:"level"`
	Msg      string         `json:"msg"`
	Platform string         `json:"platform,omitempty"`
	Attrs    map[string]any `json:"attrs,omitempty"`
}

// Query selects events. Zero values match everything; Limit keeps the
// newest matches.
type Query struct {
	Limit int
	// Level is the minimum level name, such as "warn".
	Level    string
	Platform string
	// Since skips events with Seq <= Since, letting a client resume.
	Since uint64
}

func (q Query) match(e Event) bool {
	if e.Seq <= q.Since {
		return false
	}
	if q.Platform != "" && !strings.EqualFold(e.Platform, q.Platform) {
		return false
	}
	return q.Level == "" || levelOf(e.Level) >= ParseLevel(q.Level)
}

// ParseLevel maps a level name to slog; unknown names are info.
func ParseLevel(v string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func levelOf(name string) slog.Level {
	if name == "" {
		return slog.LevelInfo
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo
	}
	return l
}

const ringSize = 2000

// ring is a fixed circular buffer; next is the slot the next event takes.
type ring struct {
	mu     sync.Mutex
	events []Event
	next   int
	full   bool
	seq    uint64
}

var recent = &ring{events: make([]Event, ringSize)}

// RingCapacity is the most events Recent can ever return.
func RingCapacity() int { return ringSize }

func (r *ring) add(e Event) Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	e.Seq = r.seq
	r.events[r.next] = e
	r.next = (r.next + 1) % len(r.events)
	if r.next == 0 {
		r.full = true
	}
	return e
}

// ordered returns a copy of the buffer oldest first.
func (r *ring) ordered() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.full {
		return append([]Event(nil), r.events[:r.next]...)
	}
	out := make([]Event, 0, len(r.events))
	out = append(out, r.events[r.next:]...)
	return append(out, r.events[:r.next]...)
}

func (r *ring) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = make([]Event, ringSize)
	r.next, r.full, r.seq = 0, false, 0
}

// Recent returns the newest events matching q, oldest first.
func Recent(q Query) []Event {
	all := recent.ordered()
	out := make([]Event, 0, len(all))
	for _, e := range all {
		if q.match(e) {
			out = append(out, e)
		}
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[len(out)-q.Limit:]
	}
	return out
}
