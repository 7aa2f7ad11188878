// Package walker supplies the anchor stream: records in row order,
// wrapping around to the first row after the last.
package walker

import (
	"context"
	"errors"

	"github.com/hupe1980/labelsampler/recordstore"
)

// ErrEmpty is returned when the cursor yields no record right after a rewind.
var ErrEmpty = errors.New("walker: store has no records")

// RestartFunc is called after each wraparound with the new epoch.
type RestartFunc func(epoch int)

// Walker walks a cursor endlessly. Not safe for concurrent use.
type Walker struct {
	c         recordstore.Cursor
	onRestart RestartFunc
	row       int
	epoch     int
	restarts  int
}

// New returns a walker over c. The cursor must be positioned at the first
// record, which is what labelindex.Build leaves behind.
func New(c recordstore.Cursor, onRestart RestartFunc) *Walker {
	return &Walker{c: c, onRestart: onRestart}
}

// Next returns the current record and advances. When the cursor runs off
// the end it is rewound, the epoch is incremented and the restart hook
// fires. The returned value is owned by the caller.
func (w *Walker) Next(ctx context.Context) (int, []byte, error) {
	if !w.c.Valid() {
		if err := w.restart(ctx); err != nil {
			return 0, nil, err
		}
	}

	row := w.row
	value := append([]byte(nil), w.c.Value()...)

	if err := w.c.Next(ctx); err != nil {
		return 0, nil, err
	}
	w.row++
	return row, value, nil
}

// Peek returns the current record without advancing, rewinding first if
// the cursor is exhausted. The value is only valid until the next call.
func (w *Walker) Peek(ctx context.Context) (int, []byte, error) {
	if !w.c.Valid() {
		if err := w.restart(ctx); err != nil {
			return 0, nil, err
		}
	}
	return w.row, w.c.Value(), nil
}

func (w *Walker) restart(ctx context.Context) error {
	if err := w.c.SeekToFirst(ctx); err != nil {
		return err
	}
	if !w.c.Valid() {
		return ErrEmpty
	}
	w.row = 0
	w.epoch++
	w.restarts++
	if w.onRestart != nil {
		w.onRestart(w.epoch)
	}
	return nil
}

// Rewind positions the walker at row 0 without counting a restart.
func (w *Walker) Rewind(ctx context.Context) error {
	if err := w.c.SeekToFirst(ctx); err != nil {
		return err
	}
	w.row = 0
	return nil
}

// Position returns the row the next call to Next will return, or 0 if the
// cursor is exhausted and about to wrap.
func (w *Walker) Position() int {
	if !w.c.Valid() {
		return 0
	}
	return w.row
}

// Epoch returns the number of completed passes.
func (w *Walker) Epoch() int { return w.epoch }

// Restarts returns the number of wraparounds.
func (w *Walker) Restarts() int { return w.restarts }
