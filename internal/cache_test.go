package internal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnoswap-labs/probify/internal/dist"
)

func TestCache(t *testing.T) {
	t.Parallel()
	cache := NewCache(0)
	source := []byte("result = 1d6\n")
	result := Result{Filename: "a.dice", Output: "result", Distribution: dist.Point(3)}

	t.Run("NotFound", func(t *testing.T) {
		_, found := cache.Get("nonexistent.dice", source)
		assert.False(t, found)
	})

	t.Run("SetAndGet", func(t *testing.T) {
		cache.Set("a.dice", source, result)
		got, found := cache.Get("a.dice", source)
		require.True(t, found)
		assert.Equal(t, result.Filename, got.Filename)
		assert.True(t, got.Distribution.Equal(result.Distribution))
	})

	t.Run("SourceModified", func(t *testing.T) {
		cache.Set("b.dice", source, result)
		_, found := cache.Get("b.dice", []byte("result = 2d6\n"))
		assert.False(t, found)

		// the stale entry is dropped
		_, found = cache.Get("b.dice", source)
		assert.False(t, found)
	})

	t.Run("InvalidateAll", func(t *testing.T) {
		cache.Set("c.dice", source, result)
		cache.InvalidateAll()
		assert.Zero(t, cache.Len())
	})
}

func TestCacheMaxAge(t *testing.T) {
	t.Parallel()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cache := NewCache(time.Minute)
	cache.now = func() time.Time { return now }

	source := []byte("result = 1d6\n")
	cache.Set("a.dice", source, Result{Filename: "a.dice"})

	now = now.Add(30 * time.Second)
	_, found := cache.Get("a.dice", source)
	assert.True(t, found)

	now = now.Add(time.Minute)
	_, found = cache.Get("a.dice", source)
	assert.False(t, found)

	cache.SetMaxAge(0)
	cache.Set("a.dice", source, Result{Filename: "a.dice"})
	now = now.Add(24 * time.Hour)
	_, found = cache.Get("a.dice", source)
	assert.True(t, found)
}
