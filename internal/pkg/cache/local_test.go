package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedPost struct {
	ID    uint64 `json:"id"`
	Title string `json:"title"`
}

func TestLocalCache_SetGet(t *testing.T) {
	c := NewLocalCache(16, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "post:1", cachedPost{ID: 1, Title: "hello"}, 0))

	var got cachedPost
	ok, err := c.Get(ctx, "post:1", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "hello", got.Title)

	ok, err = c.Get(ctx, "post:2", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLocalCache_EntryTTL(t *testing.T) {
	c := NewLocalCache(16, time.Hour)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", 20*time.Millisecond))
	time.Sleep(40 * time.Millisecond)

	var got string
	ok, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLocalCache_Delete(t *testing.T) {
	c := NewLocalCache(16, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", 1, 0))
	require.NoError(t, c.Set(ctx, "b", 2, 0))
	require.NoError(t, c.Delete(ctx, "a", "b", "missing"))
	assert.Equal(t, 0, c.Len())
}

func TestLocalCache_Eviction(t *testing.T) {
	c := NewLocalCache(2, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, c.Set(ctx, fmt.Sprintf("k%d", i), i, 0))
	}
	assert.Equal(t, 2, c.Len())

	var v int
	ok, _ := c.Get(ctx, "k0", &v)
	assert.False(t, ok)
}

func TestLocalCache_Concurrent(t *testing.T) {
	c := NewLocalCache(64, time.Minute)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", i%8)
			_ = c.Set(ctx, key, i, 0)
			var v int
			_, _ = c.Get(ctx, key, &v)
			_ = c.Delete(ctx, key)
		}(i)
	}
	wg.Wait()
}
