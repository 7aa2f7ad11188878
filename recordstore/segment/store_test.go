package segment

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/hupe1980/labelsampler/blobstore"
	"github.com/hupe1980/labelsampler/internal/cache"
	"github.com/hupe1980/labelsampler/recordstore"
	"github.com/hupe1980/labelsampler/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func records(n int) [][]byte {
	out := make([][]byte, n)
	for i := range out {
		// Repetitive payloads so compression kicks in.
		out[i] = bytes.Repeat([]byte(fmt.Sprintf("record-%03d;", i)), 1+i%5)
	}
	return out
}

func writeSegment(t *testing.T, bs blobstore.BlobStore, name string, recs [][]byte, opts ...WriterOption) {
	t.Helper()
	ctx := context.Background()

	blob, err := bs.Create(ctx, name)
	require.NoError(t, err)
	w, err := NewWriter(blob, opts...)
	require.NoError(t, err)
	for i, r := range recs {
		row, err := w.Append(r)
		require.NoError(t, err)
		require.Equal(t, i, row)
	}
	require.NoError(t, w.Close())
}

func openSegment(t *testing.T, bs blobstore.BlobStore, name string, opts ...Option) *Store {
	t.Helper()
	ctx := context.Background()

	blob, err := bs.Open(ctx, name)
	require.NoError(t, err)
	s, err := Open(ctx, blob, append([]Option{WithName(name)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	recs := records(25)

	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD} {
		t.Run(c.String(), func(t *testing.T) {
			bs := blobstore.NewMemoryStore()
			writeSegment(t, bs, "train.seg", recs, WithCompression(c))

			s := openSegment(t, bs, "train.seg")
			assert.Equal(t, len(recs), s.Len())
			assert.Equal(t, c, s.Compression())
			assert.Equal(t, "go-json", s.CodecName())

			cur := s.NewCursor()
			require.NoError(t, cur.SeekToFirst(ctx))
			row := 0
			for cur.Valid() {
				assert.Equal(t, recordstore.Key(row), cur.Key())
				assert.Equal(t, recs[row], cur.Value())
				require.NoError(t, cur.Next(ctx))
				row++
			}
			assert.Equal(t, len(recs), row)

			txn := s.NewTransaction()
			for _, i := range []int{24, 0, 13} {
				v, err := txn.Get(ctx, recordstore.Key(i))
				require.NoError(t, err)
				assert.Equal(t, recs[i], v)
			}
		})
	}
}

func TestCompressionShrinks(t *testing.T) {
	recs := [][]byte{bytes.Repeat([]byte("abcd"), 1024)}

	plain := blobstore.NewMemoryStore()
	writeSegment(t, plain, "a", recs)
	packed := blobstore.NewMemoryStore()
	writeSegment(t, packed, "a", recs, WithCompression(CompressionZSTD))

	size := func(bs blobstore.BlobStore) int64 {
		b, err := bs.Open(context.Background(), "a")
		require.NoError(t, err)
		return b.Size()
	}
	assert.Less(t, size(packed), size(plain)/4)
}

func TestEmptySegment(t *testing.T) {
	ctx := context.Background()
	bs := blobstore.NewMemoryStore()
	writeSegment(t, bs, "empty", nil)

	s := openSegment(t, bs, "empty")
	assert.Zero(t, s.Len())

	cur := s.NewCursor()
	require.NoError(t, cur.SeekToFirst(ctx))
	assert.False(t, cur.Valid())
}

func TestTransaction_NotFound(t *testing.T) {
	ctx := context.Background()
	bs := blobstore.NewMemoryStore()
	writeSegment(t, bs, "s", records(3))
	txn := openSegment(t, bs, "s").NewTransaction()

	_, err := txn.Get(ctx, recordstore.Key(3))
	assert.ErrorIs(t, err, recordstore.ErrKeyNotFound)

	_, err = txn.Get(ctx, "bogus")
	assert.ErrorIs(t, err, recordstore.ErrKeyNotFound)
}

func TestRecordCache(t *testing.T) {
	ctx := context.Background()
	bs := blobstore.NewMemoryStore()
	recs := records(4)
	writeSegment(t, bs, "s", recs, WithCompression(CompressionLZ4))

	rc := resource.NewController(resource.Config{IOLimitBytesPerSec: 1 << 20})
	lru := cache.NewLRU(1<<20, nil)
	s := openSegment(t, bs, "s", WithCache(lru), WithResourceController(rc))

	txn := s.NewTransaction()
	for range 3 {
		v, err := txn.Get(ctx, recordstore.Key(2))
		require.NoError(t, err)
		assert.Equal(t, recs[2], v)
	}
	hits, misses := lru.Stats()
	assert.Equal(t, int64(2), hits)
	assert.Equal(t, int64(1), misses)
	assert.Positive(t, rc.IOBytes())

	// Sequential walks do not populate the record cache.
	cur := s.NewCursor()
	require.NoError(t, cur.SeekToFirst(ctx))
	assert.Equal(t, 1, lru.Len())

	require.NoError(t, s.Close())
	assert.Zero(t, lru.Len())
}

func TestClosed(t *testing.T) {
	ctx := context.Background()
	bs := blobstore.NewMemoryStore()
	writeSegment(t, bs, "s", records(2))
	s := openSegment(t, bs, "s")
	require.NoError(t, s.Close())

	_, err := s.NewTransaction().Get(ctx, recordstore.Key(0))
	assert.ErrorIs(t, err, recordstore.ErrClosed)
	assert.ErrorIs(t, s.NewCursor().SeekToFirst(ctx), recordstore.ErrClosed)
}

func TestOpen_Corrupt(t *testing.T) {
	ctx := context.Background()
	bs := blobstore.NewMemoryStore()
	writeSegment(t, bs, "s", records(3))

	b, err := bs.Open(ctx, "s")
	require.NoError(t, err)
	good := make([]byte, b.Size())
	require.NoError(t, blobstore.ReadFull(ctx, b, good, 0))

	tests := map[string]func([]byte) []byte{
		"too small":      func(b []byte) []byte { return b[:10] },
		"header magic":   func(b []byte) []byte { b[0] = 'X'; return b },
		"trailer magic":  func(b []byte) []byte { b[len(b)-5] ^= 0xff; return b },
		"offsets crc":    func(b []byte) []byte { b[len(b)-trailerSize-1] ^= 0xff; return b },
		"truncated body": func(b []byte) []byte { return append(b[:20:20], b[len(b)-trailerSize:]...) },
	}
	for name, corrupt := range tests {
		t.Run(name, func(t *testing.T) {
			data := corrupt(append([]byte(nil), good...))
			require.NoError(t, bs.Put(ctx, "bad", data))
			blob, err := bs.Open(ctx, "bad")
			require.NoError(t, err)

			_, err = Open(ctx, blob)
			assert.ErrorIs(t, err, ErrCorrupt)
		})
	}
}

func TestWriter_Closed(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	_, err = w.Append([]byte("x"))
	assert.ErrorIs(t, err, ErrWriterClosed)
	assert.ErrorIs(t, w.Close(), ErrWriterClosed)
}

func TestParseCompression(t *testing.T) {
	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD} {
		got, err := ParseCompression(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}
	_, err := ParseCompression("snappy")
	assert.Error(t, err)
}
