// Package cache provides a small in-memory cache for fetched pages. The
// analyzer reads the homepage several times (form detection, probe baseline,
// JS comparison); caching keeps that at one network round trip.
package cache

import (
	"sync"
	"time"

	"github.com/use-agent/scout/fetch"
)

// entry holds a cached response with its creation timestamp.
type entry struct {
	response  *fetch.Response
	createdAt time.Time
}

// Cache is an in-memory response cache keyed by URL. Safe for concurrent use.
type Cache struct {
	mu         sync.RWMutex
	store      map[string]*entry
	maxEntries int
	ttl        time.Duration
}

// New creates a Cache with the given capacity and entry TTL. A background
// goroutine evicts expired entries every minute.
func New(maxEntries int, ttl time.Duration) *Cache {
	c := &Cache{
		store:      make(map[string]*entry),
		maxEntries: maxEntries,
		ttl:        ttl,
	}
	go c.cleanupLoop()
	return c
}

// Get retrieves a cached response if it exists and is still fresh.
func (c *Cache) Get(url string) (*fetch.Response, bool) {
	c.mu.RLock()
	e, ok := c.store[url]
	c.mu.RUnlock()

	if !ok || time.Since(e.createdAt) > c.ttl {
		return nil, false
	}
	return e.response, true
}

// Set stores a response. At capacity one arbitrary entry is evicted
// (map iteration order is random in Go).
func (c *Cache) Set(url string, resp *fetch.Response) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.store) >= c.maxEntries {
		for k := range c.store {
			delete(c.store, k)
			break
		}
	}
	c.store[url] = &entry{response: resp, createdAt: time.Now()}
}

func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-c.ttl)
		c.mu.Lock()
		for k, e := range c.store {
			if e.createdAt.Before(cutoff) {
				delete(c.store, k)
			}
		}
		c.mu.Unlock()
	}
}
