package resource

import (
	"context"
	"io"
)

type limitedReader struct {
	ctx context.Context
	r   io.Reader
	rc  *Controller
}

// Reader wraps r so that every read is admitted through AcquireIO.
// A nil controller returns r unchanged.
func (c *Controller) Reader(ctx context.Context, r io.Reader) io.Reader {
	if c == nil {
		return r
	}
	return &limitedReader{ctx: ctx, r: r, rc: c}
}

// Read charges the bytes actually read, so short reads on a large buffer
// do not stall the limiter.
func (l *limitedReader) Read(p []byte) (int, error) {
	n, err := l.r.Read(p)
	if n > 0 {
		if aerr := l.rc.AcquireIO(l.ctx, n); aerr != nil {
			return n, aerr
		}
	}
	return n, err
}
