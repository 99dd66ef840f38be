package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

type memoryItem struct {
	entry   Entry
	expires time.Time
}

// MemoryPageCache keeps entries in process. Expired entries are never served
// and are swept by a janitor goroutine.
type MemoryPageCache struct {
	mu     sync.RWMutex
	items  map[string]memoryItem
	prefix string
	now    func() time.Time

	stop chan struct{}
	once sync.Once
}

// NewMemoryPageCache starts a cache whose janitor runs every interval.
// A non-positive interval disables the janitor.
func NewMemoryPageCache(prefix string, interval time.Duration) *MemoryPageCache {
	c := &MemoryPageCache{
		items:  make(map[string]memoryItem),
		prefix: prefix,
		now:    time.Now,
		stop:   make(chan struct{}),
	}
	if interval > 0 {
		go c.janitor(interval)
	}
	return c
}

func (c *MemoryPageCache) Get(_ context.Context, key string) (*Entry, error) {
	c.mu.RLock()
	item, ok := c.items[key]
	c.mu.RUnlock()
	if !ok || !c.now().Before(item.expires) {
		return nil, ErrCacheMiss
	}
	entry := item.entry
	entry.Body = append([]byte(nil), item.entry.Body...)
	return &entry, nil
}

func (c *MemoryPageCache) Set(_ context.Context, key string, entry *Entry, ttl time.Duration) error {
	stored := *entry
	stored.Body = append([]byte(nil), entry.Body...)

	c.mu.Lock()
	c.items[key] = memoryItem{entry: stored, expires: c.now().Add(ttl)}
	c.mu.Unlock()
	return nil
}

func (c *MemoryPageCache) Clear(_ context.Context) error {
	c.mu.Lock()
	for key := range c.items {
		if strings.HasPrefix(key, c.prefix+":") {
			delete(c.items, key)
		}
	}
	c.mu.Unlock()
	return nil
}

// Len reports the number of stored entries, expired ones included.
func (c *MemoryPageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *MemoryPageCache) Close() error {
	c.once.Do(func() { close(c.stop) })
	return nil
}

func (c *MemoryPageCache) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.deleteExpired()
		case <-c.stop:
			return
		}
	}
}

func (c *MemoryPageCache) deleteExpired() {
	now := c.now()
	c.mu.Lock()
	for key, item := range c.items {
		if !now.Before(item.expires) {
			delete(c.items, key)
		}
	}
	c.mu.Unlock()
}

var _ PageCache = (*MemoryPageCache)(nil)
