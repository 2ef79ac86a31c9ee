// Package memory implements the per-request shared memory used by agents
// to exchange intermediate results, plus a bounded LRU cache for query
// results so identical queries within one request hit the backend once.
package memory

import (
	"container/list"
	"crypto/md5"
	"encoding/hex"
	"strings"
	"sync"
)

// DefaultCacheCapacity bounds the query cache when no capacity is given.
const DefaultCacheCapacity = 100

// SharedMemory is a concurrency-safe key-value store with an attached
// LRU query cache. One instance lives for the duration of a request.
type SharedMemory struct {
	mu       sync.Mutex
	store    map[string]any
	cache    map[string]*list.Element
	order    *list.List
	capacity int
}

type cacheEntry struct {
	key   string
	value string
}

// New creates a shared memory with the given cache capacity.
// Non-positive capacities fall back to DefaultCacheCapacity.
func New(capacity int) *SharedMemory {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	return &SharedMemory{
		store:    make(map[string]any),
		cache:    make(map[string]*list.Element),
		order:    list.New(),
		capacity: capacity,
	}
}

// Set stores value under key.
func (m *SharedMemory) Set(key string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[key] = value
}

// Get returns the value under key.
func (m *SharedMemory) Get(key string) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.store[key]
	return v, ok
}

// Keys returns all store keys in unspecified order.
func (m *SharedMemory) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.store))
	for k := range m.store {
		keys = append(keys, k)
	}
	return keys
}

// CacheKey derives the cache key for a query against a database. The
// query is lowercased and whitespace-collapsed before hashing, so
// formatting-only variants of the same query share one entry.
func CacheKey(database, query string) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(query), " "))
	sum := md5.Sum([]byte(normalized))
	return database + ":" + hex.EncodeToString(sum[:])
}

// GetCached returns the cached result for a query, marking the entry
// most recently used on a hit.
func (m *SharedMemory) GetCached(database, query string) (string, bool) {
	key := CacheKey(database, query)
	m.mu.Lock()
	defer m.mu.Unlock()
	elem, ok := m.cache[key]
	if !ok {
		return "", false
	}
	m.order.MoveToFront(elem)
	return elem.Value.(*cacheEntry).value, true
}

// PutCached stores a query result, evicting the least recently used
// entry when the cache is full.
func (m *SharedMemory) PutCached(database, query, result string) {
	key := CacheKey(database, query)
	m.mu.Lock()
	defer m.mu.Unlock()
	if elem, ok := m.cache[key]; ok {
		elem.Value.(*cacheEntry).value = result
		m.order.MoveToFront(elem)
		return
	}
	if m.order.Len() >= m.capacity {
		oldest := m.order.Back()
		if oldest != nil {
			m.order.Remove(oldest)
			delete(m.cache, oldest.Value.(*cacheEntry).key)
		}
	}
	m.cache[key] = m.order.PushFront(&cacheEntry{key: key, value: result})
}

// CacheLen returns the number of cached query results.
func (m *SharedMemory) CacheLen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.order.Len()
}
