package segment

import (
	"errors"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/hupe1980/labelsampler/codec"
	"github.com/hupe1980/labelsampler/recordstore"
)

// ErrWriterClosed is returned by Append after Close.
var ErrWriterClosed = errors.New("segment: writer is closed")

// WriterOption configures a Writer.
type WriterOption func(*writerOptions)

type writerOptions struct {
	compression Compression
	codec       string
}

// WithCompression sets the per-record compression. Default: CompressionNone.
func WithCompression(c Compression) WriterOption {
	return func(o *writerOptions) {
		o.compression = c
	}
}

// WithCodecName records the codec the records were encoded with.
// Default: codec.Default.
func WithCodecName(name string) WriterOption {
	return func(o *writerOptions) {
		o.codec = name
	}
}

// Writer builds a segment by appending records in row order.
type Writer struct {
	w       io.Writer
	opts    writerOptions
	offsets []uint64
	pos     uint64
	closed  bool
}

// NewWriter writes the segment header to w and returns a Writer.
func NewWriter(w io.Writer, optFns ...WriterOption) (*Writer, error) {
	opts := writerOptions{
		compression: CompressionNone,
		codec:       codec.Default.Name(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.compression > CompressionZSTD {
		return nil, fmt.Errorf("segment: unknown compression %d", opts.compression)
	}

	h := header{compression: opts.compression, codec: opts.codec}
	if _, err := w.Write(h.encode()); err != nil {
		return nil, err
	}

	return &Writer{
		w:    w,
		opts: opts,
		pos:  uint64(h.size()),
	}, nil
}

// Append writes the record for the next row and returns that row.
func (w *Writer) Append(value []byte) (int, error) {
	if w.closed {
		return 0, ErrWriterClosed
	}
	row := len(w.offsets)
	if row >= recordstore.MaxRows {
		return 0, fmt.Errorf("segment: row %d exceeds key space", row)
	}

	block, err := compressBlock(value, w.opts.compression)
	if err != nil {
		return 0, err
	}
	if _, err := w.w.Write(block); err != nil {
		return 0, err
	}

	w.offsets = append(w.offsets, w.pos)
	w.pos += uint64(len(block))
	return row, nil
}

// Len returns the number of appended records.
func (w *Writer) Len() int { return len(w.offsets) }

// Close writes the offsets table and trailer. If the underlying writer is
// an io.Closer it is closed as well.
func (w *Writer) Close() error {
	if w.closed {
		return ErrWriterClosed
	}
	w.closed = true

	offsets := encodeOffsets(append(w.offsets, w.pos))
	t := trailer{
		offsetsStart: w.pos,
		count:        uint64(len(w.offsets)),
		crc:          crc32.ChecksumIEEE(offsets),
	}

	if _, err := w.w.Write(offsets); err != nil {
		return err
	}
	if _, err := w.w.Write(t.encode()); err != nil {
		return err
	}
	if c, ok := w.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
