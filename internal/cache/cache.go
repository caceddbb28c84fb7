// Package cache holds parsed ingestion results between requests.
package cache

import (
	"sync"
	"time"
)

type Observer interface {
	CacheHit()
	CacheMiss()
}

type entry[T any] struct {
	val T
	exp time.Time
}

// Cache is a TTL map safe for concurrent use. A zero TTL keeps entries until
// they are invalidated.
type Cache[T any] struct {
	mu  sync.RWMutex
	m   map[string]entry[T]
	ttl time.Duration
	obs Observer
	now func() time.Time
}

func New[T any](ttl time.Duration, obs Observer) *Cache[T] {
	return &Cache[T]{m: make(map[string]entry[T]), ttl: ttl, obs: obs, now: time.Now}
}

func (c *Cache[T]) Get(key string) (T, bool) {
	var zero T
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok || c.expired(e) {
		if c.obs != nil {
			c.obs.CacheMiss()
		}
		return zero, false
	}
	if c.obs != nil {
		c.obs.CacheHit()
	}
	return e.val, true
}

func (c *Cache[T]) Set(key string, v T) {
	var exp time.Time
	if c.ttl > 0 {
		exp = c.now().Add(c.ttl)
	}
	c.mu.Lock()
	c.m[key] = entry[T]{val: v, exp: exp}
	c.mu.Unlock()
}

func (c *Cache[T]) Delete(key string) {
	c.mu.Lock()
	delete(c.m, key)
	c.mu.Unlock()
}

// Purge drops every entry and returns how many there were.
func (c *Cache[T]) Purge() int {
	c.mu.Lock()
	n := len(c.m)
	c.m = make(map[string]entry[T])
	c.mu.Unlock()
	return n
}

// Len counts entries, expired ones included until they are overwritten.
func (c *Cache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}

func (c *Cache[T]) expired(e entry[T]) bool {
	return !e.exp.IsZero() && c.now().After(e.exp)
}
