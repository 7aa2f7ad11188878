package parquet

import (
	"io"

	"github.com/hupe1980/labelsampler/recordstore"
	"github.com/parquet-go/parquet-go"
)

const writeBatch = 1024

// Writer appends records as consecutively keyed Parquet rows.
type Writer struct {
	w   io.Writer
	pw  *parquet.GenericWriter[Row]
	buf []Row
	n   int
}

// NewWriter returns a Writer producing a zstd-compressed Parquet file.
func NewWriter(w io.Writer) *Writer {
	return &Writer{
		w:  w,
		pw: parquet.NewGenericWriter[Row](w, parquet.Compression(&parquet.Zstd)),
	}
}

// Append adds the record for the next row and returns that row.
func (w *Writer) Append(value []byte) (int, error) {
	row := w.n
	v := make([]byte, len(value))
	copy(v, value)
	w.buf = append(w.buf, Row{Key: recordstore.Key(row), Value: v})
	w.n++
	if len(w.buf) >= writeBatch {
		if err := w.flush(); err != nil {
			return 0, err
		}
	}
	return row, nil
}

func (w *Writer) flush() error {
	if len(w.buf) == 0 {
		return nil
	}
	_, err := w.pw.Write(w.buf)
	w.buf = w.buf[:0]
	return err
}

// Len returns the number of appended records.
func (w *Writer) Len() int { return w.n }

// Close writes the footer. If the underlying writer is an io.Closer it is
// closed as well.
func (w *Writer) Close() error {
	if err := w.flush(); err != nil {
		return err
	}
	if err := w.pw.Close(); err != nil {
		return err
	}
	if c, ok := w.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
