package blobstore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore_Lifecycle(t *testing.T) {
	tmpDir := t.TempDir()
	store := NewLocalStore(tmpDir)
	ctx := context.Background()

	blobName := "train/data-001.seg"
	data := []byte("hello world, this is a test blob")

	w, err := store.Create(ctx, blobName)
	require.NoError(t, err)
	n, err := w.Write(data)
	require.NoError(t, err)
	require.Equal(t, len(data), n)
	require.NoError(t, w.Close())

	_, err = os.Stat(filepath.Join(tmpDir, "train", "data-001.seg"))
	require.NoError(t, err)

	blob, err := store.Open(ctx, blobName)
	require.NoError(t, err)

	require.Equal(t, int64(len(data)), blob.Size())

	buf := make([]byte, 5)
	n, err = blob.ReadAt(ctx, buf, 6)
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, "world", string(buf))

	n, err = blob.ReadAt(ctx, buf, int64(len(data))-2)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 2, n)

	m, ok := blob.(Mappable)
	require.True(t, ok)
	b, err := m.Bytes()
	require.NoError(t, err)
	assert.Equal(t, data, b)
	require.NoError(t, blob.Close())

	require.NoError(t, store.Put(ctx, "train/data-002.seg", []byte("x")))
	require.NoError(t, store.Put(ctx, "val/data-001.seg", []byte("y")))

	names, err := store.List(ctx, "train/")
	require.NoError(t, err)
	assert.Equal(t, []string{"train/data-001.seg", "train/data-002.seg"}, names)

	require.NoError(t, store.Delete(ctx, blobName))
	require.NoError(t, store.Delete(ctx, blobName), "deleting twice is not an error")

	_, err = store.Open(ctx, blobName)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWritableBlob_Abort(t *testing.T) {
	ctx := context.Background()
	stores := map[string]BlobStore{
		"Local":  NewLocalStore(t.TempDir()),
		"Memory": NewMemoryStore(),
	}
	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			w, err := store.Create(ctx, "partial.seg")
			require.NoError(t, err)
			_, err = w.Write([]byte("half a segment"))
			require.NoError(t, err)

			require.NoError(t, w.Abort())
			assert.Error(t, w.Close())

			_, err = store.Open(ctx, "partial.seg")
			assert.ErrorIs(t, err, ErrNotFound)

			names, err := store.List(ctx, "")
			require.NoError(t, err)
			assert.Empty(t, names)
		})
	}
}

func TestLocalStore_EmptyBlob(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "empty", nil))

	blob, err := store.Open(ctx, "empty")
	require.NoError(t, err)
	defer blob.Close()

	assert.Zero(t, blob.Size())
	_, err = blob.ReadAt(ctx, make([]byte, 1), 0)
	assert.ErrorIs(t, err, io.EOF)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	w, err := store.Create(ctx, "b")
	require.NoError(t, err)
	_, _ = w.Write([]byte("12"))
	_, _ = w.Write([]byte("34"))

	_, err = store.Open(ctx, "b")
	assert.ErrorIs(t, err, ErrNotFound, "blob is visible only after Close")
	require.NoError(t, w.Close())

	require.NoError(t, store.Put(ctx, "a", []byte("x")))

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)

	blob, err := store.Open(ctx, "b")
	require.NoError(t, err)
	buf := make([]byte, 4)
	require.NoError(t, ReadFull(ctx, blob, buf, 0))
	assert.Equal(t, "1234", string(buf))

	assert.ErrorIs(t, ReadFull(ctx, blob, buf, 2), io.ErrUnexpectedEOF)
}
