package cache

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPutRoundTrip(t *testing.T) {
	c := New(4, 1)
	c.Put("a", 1)

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	c := New(2, 1)
	c.Put("a", "a")
	c.Put("b", "b")
	c.Put("c", "c")

	_, ok := c.Get("a")
	assert.False(t, ok, "a should have been evicted as least recently used")

	_, ok = c.Get("b")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
}

func TestGetPromotesToFront(t *testing.T) {
	c := New(2, 1)
	c.Put("a", "a")
	c.Put("b", "b")

	_, ok := c.Get("a")
	require.True(t, ok)

	c.Put("c", "c")

	_, ok = c.Get("b")
	assert.False(t, ok, "b should be evicted since a was just promoted")
	_, ok = c.Get("a")
	assert.True(t, ok)
}

func TestRemove(t *testing.T) {
	c := New(4, 1)
	c.Put("a", 1)
	c.Remove("a")

	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestLenAcrossShards(t *testing.T) {
	c := New(4, 8)
	for i := 0; i < 10; i++ {
		c.Put(fmt.Sprintf("key-%d", i), i)
	}
	assert.Equal(t, 10, c.Len())
}

func TestGetOrLoadCachesResult(t *testing.T) {
	c := New(4, 1)
	var loads int32

	load := func() (any, error) {
		atomic.AddInt32(&loads, 1)
		return 42, nil
	}

	v, err := c.GetOrLoad("k", load)
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	v, err = c.GetOrLoad("k", load)
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, int32(1), atomic.LoadInt32(&loads))
}

func TestGetOrLoadPropagatesError(t *testing.T) {
	c := New(4, 1)
	wantErr := errors.New("load failed")

	_, err := c.GetOrLoad("k", func() (any, error) {
		return nil, wantErr
	})
	assert.ErrorIs(t, err, wantErr)

	_, ok := c.Get("k")
	assert.False(t, ok, "a failed load must not be cached")
}

func TestGetOrLoadCollapsesConcurrentMisses(t *testing.T) {
	c := New(4, 1)
	var loads int32
	const goroutines = 50

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			_, err := c.GetOrLoad("hot", func() (any, error) {
				atomic.AddInt32(&loads, 1)
				return "value", nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&loads), "concurrent misses for the same key should collapse into one load")
}

func TestShardCountRoundsUpToPowerOfTwo(t *testing.T) {
	c := New(1, 5)
	assert.Len(t, c.shards, 8)
}
