package segment

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/hupe1980/labelsampler/blobstore"
	"github.com/hupe1980/labelsampler/internal/cache"
	"github.com/hupe1980/labelsampler/recordstore"
	"github.com/hupe1980/labelsampler/resource"
)

// Option configures a Store.
type Option func(*options)

type options struct {
	cache cache.Cache
	rc    *resource.Controller
	name  string
}

// WithCache caches decoded records for random-access reads.
func WithCache(c cache.Cache) Option {
	return func(o *options) {
		o.cache = c
	}
}

// WithResourceController throttles record reads through rc.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.rc = rc
	}
}

// WithName sets the name used in cache keys and error messages.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// Store is a read-only recordstore.Store over one segment blob.
type Store struct {
	blob    blobstore.Blob
	opts    options
	header  header
	offsets []uint64
	closed  atomic.Bool
}

var _ recordstore.Store = (*Store)(nil)

// Open reads the segment trailer, offsets table and header from blob.
// The store takes ownership of blob and closes it on Close.
func Open(ctx context.Context, blob blobstore.Blob, optFns ...Option) (*Store, error) {
	var opts options
	for _, fn := range optFns {
		fn(&opts)
	}

	size := blob.Size()
	if size < headerFixedSize+trailerSize {
		return nil, fmt.Errorf("%w: %d bytes is too small", ErrCorrupt, size)
	}

	tb := make([]byte, trailerSize)
	if err := blobstore.ReadFull(ctx, blob, tb, size-trailerSize); err != nil {
		return nil, err
	}
	t, err := decodeTrailer(tb)
	if err != nil {
		return nil, err
	}
	if t.count > recordstore.MaxRows || t.offsetsStart+8*(t.count+1) != uint64(size-trailerSize) {
		return nil, fmt.Errorf("%w: trailer does not match size", ErrCorrupt)
	}

	ob := make([]byte, 8*(t.count+1))
	if err := blobstore.ReadFull(ctx, blob, ob, int64(t.offsetsStart)); err != nil {
		return nil, err
	}
	offsets, err := decodeOffsets(ob, t.crc)
	if err != nil {
		return nil, err
	}

	hb := make([]byte, headerFixedSize)
	if err := blobstore.ReadFull(ctx, blob, hb, 0); err != nil {
		return nil, err
	}
	h, codecLen, err := decodeHeader(hb)
	if err != nil {
		return nil, err
	}
	if codecLen > 0 {
		nb := make([]byte, codecLen)
		if err := blobstore.ReadFull(ctx, blob, nb, headerFixedSize); err != nil {
			return nil, err
		}
		h.codec = string(nb)
	}
	if offsets[0] != uint64(h.size()) || offsets[len(offsets)-1] != t.offsetsStart {
		return nil, fmt.Errorf("%w: offsets out of range", ErrCorrupt)
	}

	return &Store{
		blob:    blob,
		opts:    opts,
		header:  h,
		offsets: offsets,
	}, nil
}

// Len returns the number of records.
func (s *Store) Len() int { return len(s.offsets) - 1 }

// Compression returns the record compression.
func (s *Store) Compression() Compression { return s.header.compression }

// CodecName returns the name of the codec the records were encoded with.
func (s *Store) CodecName() string { return s.header.codec }

// Close closes the underlying blob.
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	if s.opts.cache != nil {
		s.opts.cache.Invalidate(func(k cache.Key) bool {
			return k.Kind == cache.KindRecord && k.Name == s.opts.name
		})
	}
	return s.blob.Close()
}

func (s *Store) NewCursor() recordstore.Cursor {
	return &cursor{s: s, row: -1}
}

func (s *Store) NewTransaction() recordstore.Transaction {
	return &transaction{s: s}
}

// read returns the decoded record of row. Decoded records are never
// mutated and may be shared with the cache.
func (s *Store) read(ctx context.Context, row int, useCache bool) ([]byte, error) {
	if s.closed.Load() {
		return nil, recordstore.ErrClosed
	}

	key := cache.Key{Kind: cache.KindRecord, Name: s.opts.name, Offset: uint64(row)}
	if useCache && s.opts.cache != nil {
		if v, ok := s.opts.cache.Get(ctx, key); ok {
			return v, nil
		}
	}

	start, end := s.offsets[row], s.offsets[row+1]
	if end-start < blockHeaderSize {
		return nil, fmt.Errorf("%w: row %d", ErrCorrupt, row)
	}
	block := make([]byte, end-start)

	if err := s.opts.rc.AcquireIO(ctx, len(block)); err != nil {
		return nil, err
	}
	if err := blobstore.ReadFull(ctx, s.blob, block, int64(start)); err != nil {
		return nil, fmt.Errorf("segment %s: read row %d: %w", s.opts.name, row, err)
	}

	v, err := decompressBlock(block, s.header.compression)
	if err != nil {
		return nil, fmt.Errorf("segment %s: row %d: %w", s.opts.name, row, err)
	}

	if useCache && s.opts.cache != nil {
		s.opts.cache.Set(ctx, key, v)
	}
	return v, nil
}

type cursor struct {
	s     *Store
	row   int
	value []byte
}

func (c *cursor) Valid() bool {
	return c.row >= 0 && c.row < c.s.Len()
}

func (c *cursor) SeekToFirst(ctx context.Context) error {
	return c.seek(ctx, 0)
}

func (c *cursor) Next(ctx context.Context) error {
	if !c.Valid() {
		return nil
	}
	return c.seek(ctx, c.row+1)
}

func (c *cursor) seek(ctx context.Context, row int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.row, c.value = row, nil
	if !c.Valid() {
		return nil
	}
	// Sequential reads bypass the record cache.
	v, err := c.s.read(ctx, row, false)
	if err != nil {
		c.row = -1
		return err
	}
	c.value = v
	return nil
}

func (c *cursor) Key() string {
	return recordstore.Key(c.row)
}

func (c *cursor) Value() []byte {
	return c.value
}

type transaction struct {
	s *Store
}

func (t *transaction) Get(ctx context.Context, key string) ([]byte, error) {
	row, err := recordstore.ParseKey(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", recordstore.ErrKeyNotFound, err)
	}
	if row >= t.s.Len() {
		return nil, fmt.Errorf("%w: %s", recordstore.ErrKeyNotFound, key)
	}
	return t.s.read(ctx, row, true)
}
