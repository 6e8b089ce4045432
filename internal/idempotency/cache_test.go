package idempotency

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codex-k8s/http-executor/internal/protocol"
)

func TestCacheGetSet(t *testing.T) {
	cache := NewCache(time.Minute, 10)

	_, ok := cache.Get("missing")
	assert.False(t, ok)

	cache.Set("tool:a", protocol.ToolResponse{Status: protocol.StatusSuccess, StatusCode: 200})
	got, ok := cache.Get("tool:a")
	require.True(t, ok)
	assert.Equal(t, 200, got.StatusCode)

	cache.Set("", protocol.ToolResponse{})
	assert.Equal(t, 1, cache.Len())
}

func TestCacheExpiry(t *testing.T) {
	cache := NewCache(time.Minute, 10)
	cache.SetWithTTL("short", protocol.ToolResponse{Status: protocol.StatusSuccess}, 20*time.Millisecond)

	_, ok := cache.Get("short")
	require.True(t, ok)

	time.Sleep(40 * time.Millisecond)
	_, ok = cache.Get("short")
	assert.False(t, ok)
}

func TestCacheEvictsWhenFull(t *testing.T) {
	cache := NewCache(time.Hour, 2)
	cache.SetWithTTL("first", protocol.ToolResponse{Reason: "1"}, time.Minute)
	cache.SetWithTTL("second", protocol.ToolResponse{Reason: "2"}, 30*time.Minute)
	cache.SetWithTTL("third", protocol.ToolResponse{Reason: "3"}, 45*time.Minute)

	assert.Equal(t, 2, cache.Len())
	_, ok := cache.Get("first")
	assert.False(t, ok)
	_, ok = cache.Get("third")
	assert.True(t, ok)

	cache.SetWithTTL("second", protocol.ToolResponse{Reason: "2b"}, 30*time.Minute)
	assert.Equal(t, 2, cache.Len())
	got, _ := cache.Get("second")
	assert.Equal(t, "2b", got.Reason)
}

func TestNilCache(t *testing.T) {
	var cache *Cache
	cache.Set("a", protocol.ToolResponse{})
	_, ok := cache.Get("a")
	assert.False(t, ok)
	assert.Zero(t, cache.Len())
}
