// Package cache provides an in-memory snapshot cache keyed by username.
package cache

import (
	"strings"
	"sync"
	"time"

	"github.com/tikscope/tikscope/models"
)

// entry holds a cached snapshot with its creation timestamp.
type entry struct {
	snapshot  *models.AccountSnapshot
	createdAt time.Time
}

// Cache is a bounded in-memory cache of account snapshots.
// It is safe for concurrent use.
type Cache struct {
	mu         sync.RWMutex
	store      map[string]*entry
	maxEntries int
}

// New creates a Cache holding at most maxEntries snapshots. A background
// goroutine evicts entries older than 24 hours every 5 minutes; fresher
// staleness bounds are enforced per-lookup via maxAge.
func New(maxEntries int) *Cache {
	c := &Cache{
		store:      make(map[string]*entry),
		maxEntries: maxEntries,
	}

	go c.cleanupLoop()
	return c
}

// Key normalizes a username into a cache key. Profile handles are
// case-insensitive upstream, so the cache is too.
func Key(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// Get retrieves a cached snapshot if it is younger than maxAge seconds.
// maxAge <= 0 disables the lookup (force-fresh).
func (c *Cache) Get(key string, maxAgeSec int) (*models.AccountSnapshot, bool) {
	if maxAgeSec <= 0 {
		return nil, false
	}

	c.mu.RLock()
	e, ok := c.store[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if time.Since(e.createdAt) > time.Duration(maxAgeSec)*time.Second {
		return nil, false
	}
	return e.snapshot, true
}

// Set stores a snapshot. If the cache is at capacity, a random entry is
// evicted to make room (map iteration order is random in Go).
func (c *Cache) Set(key string, snap *models.AccountSnapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.store) >= c.maxEntries {
		for k := range c.store {
			delete(c.store, k)
			break
		}
	}

	c.store[key] = &entry{
		snapshot:  snap,
		createdAt: time.Now(),
	}
}

// cleanupLoop evicts entries older than 24 hours every 5 minutes.
func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-24 * time.Hour)
		c.mu.Lock()
		for k, e := range c.store {
			if e.createdAt.Before(cutoff) {
				delete(c.store, k)
			}
		}
		c.mu.Unlock()
	}
}
