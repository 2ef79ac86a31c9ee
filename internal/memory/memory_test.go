package memory

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheKeyNormalization(t *testing.T) {
	a := CacheKey("kgnormal", "MATCH (n) RETURN n")
	b := CacheKey("kgnormal", "  match   (n)\nRETURN n  ")
	c := CacheKey("kgfibo", "MATCH (n) RETURN n")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestCacheHitReturnsIdenticalBytes(t *testing.T) {
	m := New(10)
	result := `[{"n":{"name":"Acme"}}]`
	m.PutCached("kgnormal", "MATCH (n) RETURN n", result)

	got, ok := m.GetCached("kgnormal", "match (n) return n")
	require.True(t, ok)
	assert.Equal(t, result, got)
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	m := New(3)
	for i := 0; i < 3; i++ {
		m.PutCached("db", fmt.Sprintf("query %d", i), fmt.Sprintf("result %d", i))
	}

	// Touch query 0 so query 1 becomes the eviction candidate.
	_, ok := m.GetCached("db", "query 0")
	require.True(t, ok)

	m.PutCached("db", "query 3", "result 3")

	_, ok = m.GetCached("db", "query 1")
	assert.False(t, ok)
	_, ok = m.GetCached("db", "query 0")
	assert.True(t, ok)
	_, ok = m.GetCached("db", "query 3")
	assert.True(t, ok)
	assert.Equal(t, 3, m.CacheLen())
}

func TestPutCachedUpdatesInPlace(t *testing.T) {
	m := New(2)
	m.PutCached("db", "q", "old")
	m.PutCached("db", "q", "new")

	got, ok := m.GetCached("db", "q")
	require.True(t, ok)
	assert.Equal(t, "new", got)
	assert.Equal(t, 1, m.CacheLen())
}

func TestStoreRoundTrip(t *testing.T) {
	m := New(0)
	m.Set("agent_result:kgnormal", map[string]any{"response": "ok"})

	v, ok := m.Get("agent_result:kgnormal")
	require.True(t, ok)
	assert.Equal(t, "ok", v.(map[string]any)["response"])
	assert.Contains(t, m.Keys(), "agent_result:kgnormal")
}
