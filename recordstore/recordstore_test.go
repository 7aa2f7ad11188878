package recordstore

import (
	"context"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	tests := []struct {
		row  int
		want string
	}{
		{0, "00000000"},
		{7, "00000007"},
		{12345678, "12345678"},
		{MaxRows - 1, "99999999"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Key(tt.row))

			row, err := ParseKey(tt.want)
			require.NoError(t, err)
			assert.Equal(t, tt.row, row)
		})
	}
}

func TestParseKey_Invalid(t *testing.T) {
	for _, key := range []string{"", "1", "0000000a", "000000001", "-0000001"} {
		_, err := ParseKey(key)
		assert.ErrorIs(t, err, ErrInvalidKey, key)
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()

	t.Run("KeyOrder", func(t *testing.T) {
		s := NewMemoryStore()
		s.Put(Key(2), []byte("c"))
		s.Put(Key(0), []byte("a"))
		s.Put(Key(1), []byte("b"))

		c := s.NewCursor()
		assert.False(t, c.Valid())
		require.NoError(t, c.SeekToFirst(ctx))

		var got []string
		for c.Valid() {
			got = append(got, c.Key()+"="+string(c.Value()))
			require.NoError(t, c.Next(ctx))
		}
		assert.Equal(t, []string{"00000000=a", "00000001=b", "00000002=c"}, got)
	})

	t.Run("Append", func(t *testing.T) {
		s := NewMemoryStore()
		assert.Equal(t, 0, s.Append([]byte("x")))
		assert.Equal(t, 1, s.Append([]byte("y")))
		assert.Equal(t, 2, s.Len())

		v, err := s.NewTransaction().Get(ctx, Key(1))
		require.NoError(t, err)
		assert.Equal(t, []byte("y"), v)
	})

	t.Run("ConcurrentAppend", func(t *testing.T) {
		s := NewMemoryStore()
		const n = 200

		rows := make([]int, n)
		var wg sync.WaitGroup
		for i := range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				rows[i] = s.Append([]byte(strconv.Itoa(i)))
			}()
		}
		wg.Wait()

		require.Equal(t, n, s.Len())
		seen := make(map[int]bool, n)
		txn := s.NewTransaction()
		for i, row := range rows {
			assert.False(t, seen[row], "row %d handed out twice", row)
			seen[row] = true

			v, err := txn.Get(ctx, Key(row))
			require.NoError(t, err)
			assert.Equal(t, strconv.Itoa(i), string(v))
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		s := NewMemoryStore()
		s.Append([]byte("x"))

		_, err := s.NewTransaction().Get(ctx, Key(5))
		assert.ErrorIs(t, err, ErrKeyNotFound)
	})

	t.Run("PutCopies", func(t *testing.T) {
		s := NewMemoryStore()
		buf := []byte("abc")
		s.Put(Key(0), buf)
		buf[0] = 'z'

		v, err := s.NewTransaction().Get(ctx, Key(0))
		require.NoError(t, err)
		assert.Equal(t, []byte("abc"), v)
	})

	t.Run("Closed", func(t *testing.T) {
		s := NewMemoryStore()
		s.Append([]byte("x"))
		require.NoError(t, s.Close())

		_, err := s.NewTransaction().Get(ctx, Key(0))
		assert.ErrorIs(t, err, ErrClosed)
		assert.ErrorIs(t, s.NewCursor().SeekToFirst(ctx), ErrClosed)
	})
}
