package idempotency

import (
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_GetPut(t *testing.T) {
	key := Key{TenantID: "tenant-a", Resource: "employees", IdempotencyKey: "req-1"}

	t.Run("miss on empty cache", func(t *testing.T) {
		cache := NewCache(10, time.Minute)

		_, ok := cache.Get(key)
		assert.False(t, ok)
		assert.Equal(t, uint64(1), cache.Stats().Misses)
	})

	t.Run("hit after put", func(t *testing.T) {
		cache := NewCache(10, time.Minute)
		entry := Entry{ID: uuid.New(), NaturalKey: "ana@example.com"}

		cache.Put(key, entry)
		got, ok := cache.Get(key)

		require.True(t, ok)
		assert.Equal(t, entry, got)
		assert.Equal(t, 1, cache.Len())
		assert.Equal(t, uint64(1), cache.Stats().Hits)
	})

	t.Run("tenant and resource scope the key", func(t *testing.T) {
		cache := NewCache(10, time.Minute)
		cache.Put(key, Entry{ID: uuid.New()})

		_, ok := cache.Get(Key{TenantID: "tenant-b", Resource: "employees", IdempotencyKey: "req-1"})
		assert.False(t, ok)
		_, ok = cache.Get(Key{TenantID: "tenant-a", Resource: "documents", IdempotencyKey: "req-1"})
		assert.False(t, ok)
	})

	t.Run("put overwrites an existing entry", func(t *testing.T) {
		cache := NewCache(10, time.Minute)
		cache.Put(key, Entry{NaturalKey: "old"})
		cache.Put(key, Entry{NaturalKey: "new"})

		got, ok := cache.Get(key)
		require.True(t, ok)
		assert.Equal(t, "new", got.NaturalKey)
		assert.Equal(t, 1, cache.Len())
	})
}

func TestCache_TTL(t *testing.T) {
	key := Key{TenantID: "tenant-a", Resource: "employees", IdempotencyKey: "req-1"}

	cache := NewCache(10, 10*time.Millisecond)
	cache.Put(key, Entry{ID: uuid.New()})

	_, ok := cache.Get(key)
	require.True(t, ok)

	time.Sleep(20 * time.Millisecond)

	_, ok = cache.Get(key)
	assert.False(t, ok)
	assert.Equal(t, 0, cache.Len(), "expired entries are removed on access")
}

func TestCache_LRUEviction(t *testing.T) {
	cache := NewCache(3, time.Minute)

	for i := 0; i < 3; i++ {
		cache.Put(Key{TenantID: "tenant-a", Resource: "employees", IdempotencyKey: "req-" + strconv.Itoa(i)}, Entry{})
	}

	// Touch req-0 so req-1 becomes the eviction candidate.
	_, ok := cache.Get(Key{TenantID: "tenant-a", Resource: "employees", IdempotencyKey: "req-0"})
	require.True(t, ok)

	cache.Put(Key{TenantID: "tenant-a", Resource: "employees", IdempotencyKey: "req-3"}, Entry{})

	assert.Equal(t, 3, cache.Len())
	_, ok = cache.Get(Key{TenantID: "tenant-a", Resource: "employees", IdempotencyKey: "req-1"})
	assert.False(t, ok, "least recently used entry is evicted")
	_, ok = cache.Get(Key{TenantID: "tenant-a", Resource: "employees", IdempotencyKey: "req-0"})
	assert.True(t, ok)
	_, ok = cache.Get(Key{TenantID: "tenant-a", Resource: "employees", IdempotencyKey: "req-3"})
	assert.True(t, ok)
}

func TestCache_Invalidate(t *testing.T) {
	key := Key{TenantID: "tenant-a", Resource: "employees", IdempotencyKey: "req-1"}

	cache := NewCache(10, time.Minute)
	cache.Put(key, Entry{ID: uuid.New()})
	cache.Invalidate(key)

	_, ok := cache.Get(key)
	assert.False(t, ok)
	assert.Equal(t, 0, cache.Len())
}

func TestCache_Defaults(t *testing.T) {
	cache := NewCache(0, 0)
	stats := cache.Stats()
	assert.Equal(t, 1024, stats.MaxSize)
}
