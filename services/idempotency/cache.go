package idempotency

import (
	"container/list"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Key identifies a create attempt: the same tenant replaying the same
// client-supplied Idempotency-Key for the same resource is treated as a
// retry while the entry is cached.
type Key struct {
	TenantID       string
	Resource       string
	IdempotencyKey string
}

// String returns a string representation of the key.
func (k Key) String() string {
	return k.TenantID + ":" + k.Resource + ":" + k.IdempotencyKey
}

// Entry is what a replayed create echoes back instead of inserting again.
type Entry struct {
	ID         uuid.UUID
	NaturalKey string
}

// cacheEntry represents a single cache entry with TTL.
type cacheEntry struct {
	key        Key
	value      Entry
	insertedAt time.Time
	element    *list.Element // For LRU tracking
}

// isExpired checks if the cache entry has expired.
func (e *cacheEntry) isExpired(ttl time.Duration) bool {
	return time.Since(e.insertedAt) > ttl
}

// Cache is a bounded in-memory LRU cache with TTL for recent creates.
// Thread-safe.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
	lruList *list.List // Doubly linked list for LRU tracking
	maxSize int
	ttl     time.Duration
	hits    uint64
	misses  uint64
}

// NewCache creates a new Cache with the specified max size and TTL.
func NewCache(maxSize int, ttl time.Duration) *Cache {
	if maxSize <= 0 {
		maxSize = 1024
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Cache{
		entries: make(map[string]*cacheEntry),
		lruList: list.New(),
		maxSize: maxSize,
		ttl:     ttl,
	}
}

// Get retrieves a cached create result. The second return is false when the
// key is absent or expired.
func (c *Cache) Get(key Key) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	keyStr := key.String()
	entry, exists := c.entries[keyStr]

	if !exists || entry.isExpired(c.ttl) {
		c.misses++
		if exists {
			c.removeEntry(keyStr)
		}
		return Entry{}, false
	}

	// Move to front (most recently used)
	c.lruList.MoveToFront(entry.element)
	c.hits++

	return entry.value, true
}

// Put records a successful create.
func (c *Cache) Put(key Key, value Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	keyStr := key.String()

	if entry, exists := c.entries[keyStr]; exists {
		entry.value = value
		entry.insertedAt = time.Now()
		c.lruList.MoveToFront(entry.element)
		return
	}

	// Evict least recently used entry if cache is full
	if c.lruList.Len() >= c.maxSize {
		c.evictLRU()
	}

	entry := &cacheEntry{
		key:        key,
		value:      value,
		insertedAt: time.Now(),
	}

	entry.element = c.lruList.PushFront(keyStr)
	c.entries[keyStr] = entry
}

// Invalidate removes a specific cache entry.
func (c *Cache) Invalidate(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.removeEntry(key.String())
}

// Len returns the current number of entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.lruList.Len()
}

// Stats returns cache statistics.
func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return CacheStats{
		Size:    c.lruList.Len(),
		MaxSize: c.maxSize,
		Hits:    c.hits,
		Misses:  c.misses,
	}
}

// CacheStats represents cache statistics.
type CacheStats struct {
	Size    int    `json:"size"`
	MaxSize int    `json:"max_size"`
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
}

// removeEntry removes an entry from the cache (must be called with lock held).
func (c *Cache) removeEntry(keyStr string) {
	if entry, exists := c.entries[keyStr]; exists {
		c.lruList.Remove(entry.element)
		delete(c.entries, keyStr)
	}
}

// evictLRU evicts the least recently used entry (must be called with lock held).
func (c *Cache) evictLRU() {
	backElement := c.lruList.Back()
	if backElement != nil {
		keyStr := backElement.Value.(string)
		c.lruList.Remove(backElement)
		delete(c.entries, keyStr)
	}
}
