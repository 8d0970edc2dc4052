// Package cache provides a small in-process TTL+LRU cache used by the
// store layer to avoid repeated round trips, most notably the persisted
// message count per session that gates suffix-only remote writes.
package cache

import (
	"container/list"
	"strconv"
	"sync"
	"time"
)

// Cache is an LRU cache with per-entry TTL.
type Cache struct {
	capacity   int
	defaultTTL time.Duration

	mu    sync.Mutex
	items map[string]*item
	order *list.List
}

type item struct {
	key       string
	value     []byte
	expiresAt time.Time
	element   *list.Element
}

// New creates a cache. Non-positive arguments fall back to defaults.
func New(capacity int, defaultTTL time.Duration) *Cache {
	if capacity <= 0 {
		capacity = 512
	}
	if defaultTTL <= 0 {
		defaultTTL = 10 * time.Minute
	}
	return &Cache{
		capacity:   capacity,
		defaultTTL: defaultTTL,
		items:      make(map[string]*item),
		order:      list.New(),
	}
}

// Get retrieves a value, honoring expiry.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	it, ok := c.items[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(it.expiresAt) {
		c.remove(it)
		return nil, false
	}
	c.order.MoveToFront(it.element)
	return it.value, true
}

// Set stores a value with the default TTL.
func (c *Cache) Set(key string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if it, ok := c.items[key]; ok {
		it.value = value
		it.expiresAt = time.Now().Add(c.defaultTTL)
		c.order.MoveToFront(it.element)
		return
	}

	for len(c.items) >= c.capacity {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.remove(oldest.Value.(*item))
	}

	it := &item{
		key:       key,
		value:     value,
		expiresAt: time.Now().Add(c.defaultTTL),
	}
	it.element = c.order.PushFront(it)
	c.items[key] = it
}

// Delete removes a key. Removing an absent key is a no-op.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if it, ok := c.items[key]; ok {
		c.remove(it)
	}
}

// Len returns the number of live entries, including any not yet expired-swept.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *Cache) remove(it *item) {
	c.order.Remove(it.element)
	delete(c.items, it.key)
}

// GetCount retrieves an integer value, such as a persisted message count.
func (c *Cache) GetCount(key string) (int, bool) {
	raw, ok := c.Get(key)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(string(raw))
	if err != nil {
		return 0, false
	}
	return n, true
}

// SetCount stores an integer value.
func (c *Cache) SetCount(key string, n int) {
	c.Set(key, []byte(strconv.Itoa(n)))
}
