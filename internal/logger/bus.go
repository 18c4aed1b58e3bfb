package logger

import (
	"sync"
	"sync/atomic"
)

// subscriber receives live events matching its query. Slow readers lose
// events rather than stall logging; dropped counts what they missed.
type subscriber struct {
	ch      chan Event
	q       Query
	dropped atomic.Uint64
}

type bus struct {
	mu   sync.RWMutex
	subs map[*subscriber]struct{}
}

var live = &bus{subs: map[*subscriber]struct{}{}}

func (b *bus) publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for s := range b.subs {
		if !s.q.match(e) {
			continue
		}
		select {
		case s.ch <- e:
		default:
			s.dropped.Add(1)
		}
	}
}

func (b *bus) active() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs) > 0
}

// Subscription is a live feed of log events.
type Subscription struct {
	C    <-chan Event
	sub  *subscriber
	once sync.Once
}

// Dropped reports how many events were skipped because C was full.
func (s *Subscription) Dropped() uint64 { return s.sub.dropped.Load() }

// Close stops delivery and closes C.
func (s *Subscription) Close() {
	s.once.Do(func() {
		live.mu.Lock()
		delete(live.subs, s.sub)
		live.mu.Unlock()
		close(s.sub.ch)
	})
}

// Subscribe starts a live feed filtered by q. Limit and Since are ignored.
func Subscribe(q Query) *Subscription {
	q.Limit, q.Since = 0, 0
	s := &subscriber{ch: make(chan Event, 256), q: q}
	live.mu.Lock()
	live.subs[s] = struct{}{}
	live.mu.Unlock()
	return &Subscription{C: s.ch, sub: s}
}
