package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	key       string
	value     []byte
	expiresAt time.Time
}

// MemoryCache is a process-local LRU bounded by total value bytes. Expired
// entries are dropped when touched or when space is needed.
type MemoryCache struct {
	maxBytes int
	maxValue int

	mu    sync.Mutex
	used  int
	order *list.List
	items map[string]*list.Element
	now   func() time.Time
}

// NewMemoryCache bounds the cache to maxBytes in total and maxValue per
// entry. Zero means unbounded.
func NewMemoryCache(maxBytes, maxValue int) *MemoryCache {
	return &MemoryCache{
		maxBytes: maxBytes,
		maxValue: maxValue,
		order:    list.New(),
		items:    make(map[string]*list.Element),
		now:      time.Now,
	}
}

func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[key]
	if !ok {
		return nil, false, nil
	}
	e := el.Value.(*memoryEntry)
	if c.expired(e) {
		c.remove(el)
		return nil, false, nil
	}
	c.order.MoveToFront(el)
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, true, nil
}

// Set silently skips values larger than the per-entry limit.
func (c *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.maxValue > 0 && len(value) > c.maxValue {
		return nil
	}
	e := &memoryEntry{key: key, value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = c.now().Add(ttl)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		c.remove(el)
	}
	c.items[key] = c.order.PushFront(e)
	c.used += len(e.value)
	c.shrink()
	return nil
}

func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		c.remove(el)
	}
	return nil
}

func (c *MemoryCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	c.items = make(map[string]*list.Element)
	c.used = 0
	return nil
}

// Len reports the number of live entries.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *MemoryCache) expired(e *memoryEntry) bool {
	return !e.expiresAt.IsZero() && c.now().After(e.expiresAt)
}

func (c *MemoryCache) remove(el *list.Element) {
	e := c.order.Remove(el).(*memoryEntry)
	delete(c.items, e.key)
	c.used -= len(e.value)
}

// shrink drops expired entries first, then least recently used ones, until
// the byte budget holds.
func (c *MemoryCache) shrink() {
	if c.maxBytes <= 0 || c.used <= c.maxBytes {
		return
	}
	for el := c.order.Back(); el != nil; {
		prev := el.Prev()
		if c.expired(el.Value.(*memoryEntry)) {
			c.remove(el)
		}
		el = prev
	}
	for c.used > c.maxBytes && c.order.Len() > 1 {
		c.remove(c.order.Back())
	}
}
