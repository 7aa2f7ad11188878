package parquet

import (
	"context"
	"fmt"
	"testing"

	"github.com/hupe1980/labelsampler/blobstore"
	"github.com/hupe1980/labelsampler/recordstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeStore(t *testing.T, n int) *Store {
	t.Helper()
	ctx := context.Background()
	bs := blobstore.NewMemoryStore()

	blob, err := bs.Create(ctx, "train.parquet")
	require.NoError(t, err)
	w := NewWriter(blob)
	for i := range n {
		row, err := w.Append([]byte(fmt.Sprintf("value-%d", i)))
		require.NoError(t, err)
		require.Equal(t, i, row)
	}
	require.NoError(t, w.Close())

	b, err := bs.Open(ctx, "train.parquet")
	require.NoError(t, err)
	s, err := Open(ctx, b)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	const n = 150 // spans several cursor batches
	s := writeStore(t, n)
	assert.Equal(t, n, s.Len())

	t.Run("Cursor", func(t *testing.T) {
		c := s.NewCursor()
		assert.False(t, c.Valid())

		for pass := range 2 {
			require.NoError(t, c.SeekToFirst(ctx))
			row := 0
			for c.Valid() {
				require.Equal(t, recordstore.Key(row), c.Key(), "pass %d", pass)
				require.Equal(t, fmt.Sprintf("value-%d", row), string(c.Value()))
				require.NoError(t, c.Next(ctx))
				row++
			}
			assert.Equal(t, n, row)
		}
	})

	t.Run("Get", func(t *testing.T) {
		txn := s.NewTransaction()
		for _, row := range []int{149, 0, 64, 63} {
			v, err := txn.Get(ctx, recordstore.Key(row))
			require.NoError(t, err)
			assert.Equal(t, fmt.Sprintf("value-%d", row), string(v))
		}

		_, err := txn.Get(ctx, recordstore.Key(n))
		assert.ErrorIs(t, err, recordstore.ErrKeyNotFound)

		_, err = txn.Get(ctx, "x")
		assert.ErrorIs(t, err, recordstore.ErrKeyNotFound)
	})
}

func TestStore_Closed(t *testing.T) {
	s := writeStore(t, 1)
	require.NoError(t, s.Close())

	_, err := s.NewTransaction().Get(context.Background(), recordstore.Key(0))
	assert.ErrorIs(t, err, recordstore.ErrClosed)
}

func TestOpen_NotParquet(t *testing.T) {
	ctx := context.Background()
	bs := blobstore.NewMemoryStore()
	require.NoError(t, bs.Put(ctx, "bad", []byte("definitely not parquet")))
	b, err := bs.Open(ctx, "bad")
	require.NoError(t, err)

	_, err = Open(ctx, b)
	assert.Error(t, err)
}
