package cache

import (
	"sync"
	"time"
)

const (
	defaultTTL = 5 * time.Second
	// expired entries are swept once this many writes have happened
	sweepEvery = 256
)

// Cache is a small in-process key/value store where every entry lives for the
// same TTL. Expired entries are dropped lazily on read and by a periodic sweep
// on write.
type Cache[V any] struct {
	mu     sync.RWMutex
	ttl    time.Duration
	items  map[string]item[V]
	writes int
	now    func() time.Time
}

type item[V any] struct {
	value     V
	expiresAt time.Time
}

func (it item[V]) expired(now time.Time) bool {
	return now.After(it.expiresAt)
}

func New[V any](ttl time.Duration) *Cache[V] {
	if ttl <= 0 {
		ttl = defaultTTL
	}

	return &Cache[V]{
		ttl:   ttl,
		items: make(map[string]item[V]),
		now:   time.Now,
	}
}

func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	it, ok := c.items[key]
	c.mu.RUnlock()

	if ok && !it.expired(c.now()) {
		return it.value, true
	}

	if ok {
		c.mu.Lock()
		// a concurrent Set may have refreshed the entry meanwhile
		if cur, still := c.items[key]; still && cur.expired(c.now()) {
			delete(c.items, key)
		}
		c.mu.Unlock()
	}

	var zero V
	return zero, false
}

func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.items[key] = item[V]{value: value, expiresAt: now.Add(c.ttl)}

	c.writes++
	if c.writes%sweepEvery == 0 {
		for k, it := range c.items {
			if it.expired(now) {
				delete(c.items, k)
			}
		}
	}
}

func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

func (c *Cache[V]) Clear() {
	c.mu.Lock()
	clear(c.items)
	c.mu.Unlock()
}

// Len counts stored entries, including expired ones not yet swept.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
