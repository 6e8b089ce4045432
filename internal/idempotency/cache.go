package idempotency

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/codex-k8s/http-executor/internal/protocol"
)

// Cache stores successful tool responses for a limited time.
type Cache struct {
	store      *gocache.Cache
	ttl        time.Duration
	maxEntries int
}

// NewCache creates a cache with the given default ttl and max entries.
func NewCache(ttl time.Duration, maxEntries int) *Cache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	return &Cache{
		store:      gocache.New(ttl, 2*ttl),
		ttl:        ttl,
		maxEntries: maxEntries,
	}
}

// Get retrieves a cached response if present and not expired.
func (c *Cache) Get(key string) (protocol.ToolResponse, bool) {
	if c == nil || key == "" {
		return protocol.ToolResponse{}, false
	}
	value, ok := c.store.Get(key)
	if !ok {
		return protocol.ToolResponse{}, false
	}
	resp, ok := value.(protocol.ToolResponse)
	return resp, ok
}

// Set stores a response with the default ttl.
func (c *Cache) Set(key string, value protocol.ToolResponse) {
	c.SetWithTTL(key, value, 0)
}

// SetWithTTL stores a response; ttl <= 0 uses the cache default.
func (c *Cache) SetWithTTL(key string, value protocol.ToolResponse, ttl time.Duration) {
	if c == nil || key == "" {
		return
	}
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	if _, exists := c.store.Get(key); !exists {
		c.makeRoom()
	}
	c.store.Set(key, value, ttl)
}

// Len returns the number of stored entries, expired ones included until cleanup.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	return c.store.ItemCount()
}

// makeRoom drops expired entries and, when still full, the entry closest to
// expiry.
func (c *Cache) makeRoom() {
	if c.store.ItemCount() < c.maxEntries {
		return
	}
	c.store.DeleteExpired()
	for c.store.ItemCount() >= c.maxEntries {
		oldestKey := ""
		var oldest int64
		for key, item := range c.store.Items() {
			if oldestKey == "" || item.Expiration < oldest {
				oldestKey = key
				oldest = item.Expiration
			}
		}
		if oldestKey == "" {
			return
		}
		c.store.Delete(oldestKey)
	}
}
