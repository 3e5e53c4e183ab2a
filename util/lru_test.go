package util_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wkalt/robocodec/util"
)

func TestLRU(t *testing.T) {
	t.Run("inserts are most recent first", func(t *testing.T) {
		lru := util.NewLRU[uint64, string](100)
		lru.Put(1, "a")
		lru.Put(2, "b")
		lru.Put(3, "c")
		assert.Equal(t, "(3/100) [3:c 2:b 1:a]", lru.String())
		assert.Equal(t, 3, lru.Len())
	})
	t.Run("eviction drops the oldest entry", func(t *testing.T) {
		lru := util.NewLRU[uint64, string](2)
		lru.Put(1, "a")
		lru.Put(2, "b")
		lru.Put(3, "c")
		assert.Equal(t, "(2/2) [3:c 2:b]", lru.String())
		assert.Equal(t, 1, lru.Evictions())
		_, ok := lru.Get(1)
		assert.False(t, ok)
	})
	t.Run("missing key", func(t *testing.T) {
		lru := util.NewLRU[uint64, string](100)
		v, ok := lru.Get(1)
		assert.False(t, ok)
		assert.Equal(t, "", v)
	})
	t.Run("reset", func(t *testing.T) {
		lru := util.NewLRU[uint64, string](2)
		lru.Put(1, "a")
		lru.Put(2, "b")
		lru.Put(3, "c")
		lru.Reset()
		assert.Equal(t, "(0/2) []", lru.String())
		assert.Equal(t, 0, lru.Evictions())
	})
	t.Run("get refreshes recency", func(t *testing.T) {
		lru := util.NewLRU[uint64, string](2)
		lru.Put(1, "a")
		lru.Put(2, "b")
		v, ok := lru.Get(1)
		require.True(t, ok)
		assert.Equal(t, "a", v)
		lru.Put(3, "c")
		assert.Equal(t, "(2/2) [3:c 1:a]", lru.String())
	})
	t.Run("overwrite refreshes recency", func(t *testing.T) {
		lru := util.NewLRU[uint64, string](100)
		lru.Put(1, "a")
		lru.Put(2, "b")
		lru.Put(1, "ab")
		assert.Equal(t, "(2/100) [1:ab 2:b]", lru.String())
	})
	t.Run("capacity below one", func(t *testing.T) {
		lru := util.NewLRU[uint64, string](0)
		lru.Put(1, "a")
		lru.Put(2, "b")
		assert.Equal(t, "(1/1) [2:b]", lru.String())
	})
	t.Run("concurrent use", func(t *testing.T) {
		lru := util.NewLRU[string, int](16)
		wg := &sync.WaitGroup{}
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					key := fmt.Sprintf("%d-%d", i, j%20)
					lru.Put(key, j)
					lru.Get(key)
				}
			}(i)
		}
		wg.Wait()
		assert.Equal(t, 16, lru.Len())
	})
}
