// Package parquet implements a recordstore.Store over a Parquet file with
// one row per record.
//
// Column "key" holds the 8-digit record key and column "value" the encoded
// record. Row i must carry key recordstore.Key(i), which is what Writer
// produces.
package parquet

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/hupe1980/labelsampler/blobstore"
	"github.com/hupe1980/labelsampler/recordstore"
	"github.com/parquet-go/parquet-go"
)

// Row is the Parquet schema of a record row.
type Row struct {
	Key   string `parquet:"key"`
	Value []byte `parquet:"value"`
}

// cursorBatch is the number of rows decoded per cursor read.
const cursorBatch = 64

// Store is a read-only record store over a Parquet blob.
type Store struct {
	blob   blobstore.Blob
	ra     *readerAt
	file   *parquet.File
	n      int
	closed bool
}

var _ recordstore.Store = (*Store)(nil)

// readerAt adapts a blobstore.Blob to io.ReaderAt for the parquet reader.
type readerAt struct {
	ctx  context.Context
	blob blobstore.Blob
}

func (r *readerAt) ReadAt(p []byte, off int64) (int, error) {
	return r.blob.ReadAt(r.ctx, p, off)
}

// Open opens the Parquet file held by blob. The store takes ownership of
// blob. ctx bounds every read issued through the store.
func Open(ctx context.Context, blob blobstore.Blob) (*Store, error) {
	ra := &readerAt{ctx: ctx, blob: blob}
	f, err := parquet.OpenFile(ra, blob.Size())
	if err != nil {
		return nil, fmt.Errorf("parquet: open: %w", err)
	}
	for _, col := range []string{"key", "value"} {
		if _, ok := f.Schema().Lookup(col); !ok {
			return nil, fmt.Errorf("parquet: missing column %q", col)
		}
	}
	if f.NumRows() > recordstore.MaxRows {
		return nil, fmt.Errorf("parquet: %d rows exceed key space", f.NumRows())
	}
	return &Store{blob: blob, ra: ra, file: f, n: int(f.NumRows())}, nil
}

func (s *Store) Len() int { return s.n }

func (s *Store) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.blob.Close()
}

func (s *Store) NewCursor() recordstore.Cursor {
	return &cursor{s: s, row: -1}
}

func (s *Store) NewTransaction() recordstore.Transaction {
	return &transaction{s: s}
}

func (s *Store) reader() *parquet.GenericReader[Row] {
	return parquet.NewGenericReader[Row](s.file)
}

type cursor struct {
	s    *Store
	r    *parquet.GenericReader[Row]
	buf  []Row
	pos  int
	row  int
	done bool
}

func (c *cursor) Valid() bool {
	return c.row >= 0 && c.pos < len(c.buf)
}

func (c *cursor) Key() string { return c.buf[c.pos].Key }

func (c *cursor) Value() []byte { return c.buf[c.pos].Value }

func (c *cursor) SeekToFirst(ctx context.Context) error {
	if c.s.closed {
		return recordstore.ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.r == nil {
		c.r = c.s.reader()
	} else if err := c.r.SeekToRow(0); err != nil {
		return err
	}
	c.row, c.buf, c.pos, c.done = 0, nil, 0, false
	return c.fill()
}

func (c *cursor) Next(ctx context.Context) error {
	if !c.Valid() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	c.row++
	c.pos++
	if c.pos < len(c.buf) {
		return nil
	}
	return c.fill()
}

func (c *cursor) fill() error {
	c.buf, c.pos = c.buf[:0], 0
	if c.done {
		return nil
	}
	if cap(c.buf) < cursorBatch {
		c.buf = make([]Row, 0, cursorBatch)
	}
	buf := c.buf[:cursorBatch]
	n, err := c.r.Read(buf)
	c.buf = buf[:n]
	if errors.Is(err, io.EOF) {
		c.done = true
		return nil
	}
	if err != nil {
		c.row = -1
		return fmt.Errorf("parquet: read: %w", err)
	}
	return nil
}

type transaction struct {
	s   *Store
	r   *parquet.GenericReader[Row]
	buf [1]Row
}

func (t *transaction) Get(ctx context.Context, key string) ([]byte, error) {
	if t.s.closed {
		return nil, recordstore.ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	row, err := recordstore.ParseKey(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", recordstore.ErrKeyNotFound, err)
	}
	if row >= t.s.n {
		return nil, fmt.Errorf("%w: %s", recordstore.ErrKeyNotFound, key)
	}

	if t.r == nil {
		t.r = t.s.reader()
	}
	if err := t.r.SeekToRow(int64(row)); err != nil {
		return nil, fmt.Errorf("parquet: seek %s: %w", key, err)
	}
	n, err := t.r.Read(t.buf[:])
	if n == 0 {
		if err == nil || errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %s", recordstore.ErrKeyNotFound, key)
		}
		return nil, fmt.Errorf("parquet: read %s: %w", key, err)
	}
	if t.buf[0].Key != key {
		return nil, fmt.Errorf("%w: row %d holds key %q", recordstore.ErrKeyNotFound, row, t.buf[0].Key)
	}
	// The reader may reuse its buffers.
	return append([]byte(nil), t.buf[0].Value...), nil
}
