package cache

import (
	"context"
	"testing"

	"github.com/hupe1980/labelsampler/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRU(t *testing.T) {
	ctx := context.Background()

	t.Run("GetSet", func(t *testing.T) {
		c := NewLRU(100, nil)
		k := Key{Kind: KindRecord, Name: "train.seg", Offset: 3}

		_, ok := c.Get(ctx, k)
		assert.False(t, ok)

		c.Set(ctx, k, []byte("abc"))
		v, ok := c.Get(ctx, k)
		require.True(t, ok)
		assert.Equal(t, []byte("abc"), v)

		hits, misses := c.Stats()
		assert.Equal(t, int64(1), hits)
		assert.Equal(t, int64(1), misses)
	})

	t.Run("KindsAreSeparate", func(t *testing.T) {
		c := NewLRU(100, nil)
		c.Set(ctx, Key{Kind: KindBlock, Name: "a", Offset: 0}, []byte("block"))

		_, ok := c.Get(ctx, Key{Kind: KindRecord, Name: "a", Offset: 0})
		assert.False(t, ok)
	})

	t.Run("Eviction", func(t *testing.T) {
		c := NewLRU(10, nil)
		for i := range 4 {
			c.Set(ctx, Key{Kind: KindRecord, Offset: uint64(i)}, make([]byte, 4))
		}
		assert.Equal(t, 2, c.Len())
		assert.Equal(t, int64(8), c.Size())

		_, ok := c.Get(ctx, Key{Kind: KindRecord, Offset: 0})
		assert.False(t, ok, "oldest entry should be evicted")
		_, ok = c.Get(ctx, Key{Kind: KindRecord, Offset: 3})
		assert.True(t, ok)
	})

	t.Run("TooLarge", func(t *testing.T) {
		c := NewLRU(5, nil)
		c.Set(ctx, Key{Offset: 1}, make([]byte, 6))
		assert.Zero(t, c.Len())
	})

	t.Run("Invalidate", func(t *testing.T) {
		c := NewLRU(100, nil)
		c.Set(ctx, Key{Kind: KindBlock, Name: "a", Offset: 0}, []byte("x"))
		c.Set(ctx, Key{Kind: KindBlock, Name: "b", Offset: 0}, []byte("y"))

		c.Invalidate(func(k Key) bool { return k.Name == "a" })
		assert.Equal(t, 1, c.Len())
		_, ok := c.Get(ctx, Key{Kind: KindBlock, Name: "b", Offset: 0})
		assert.True(t, ok)
	})

	t.Run("ResourceController", func(t *testing.T) {
		rc := resource.NewController(resource.Config{MemoryLimitBytes: 10})
		c := NewLRU(50, rc)
		k := Key{Kind: KindRecord, Offset: 1}

		c.Set(ctx, k, make([]byte, 8))
		assert.Equal(t, int64(8), rc.MemoryUsage())

		// Growth to 12 bytes exceeds the controller limit and is refused.
		c.Set(ctx, k, make([]byte, 12))
		v, ok := c.Get(ctx, k)
		require.True(t, ok)
		assert.Len(t, v, 8)

		c.Set(ctx, k, make([]byte, 2))
		assert.Equal(t, int64(2), rc.MemoryUsage())

		c.Invalidate(func(Key) bool { return true })
		assert.Zero(t, rc.MemoryUsage())
	})
}
