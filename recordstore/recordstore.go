package recordstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
)

// KeyWidth is the number of decimal digits in a record key.
const KeyWidth = 8

// MaxRows is the number of rows addressable with KeyWidth digits.
const MaxRows = 100_000_000

var (
	// ErrKeyNotFound is returned by Transaction.Get when a key is absent.
	//
	// Implementations may wrap it; callers must use errors.Is.
	ErrKeyNotFound = errors.New("recordstore: key not found")

	// ErrClosed is returned when a store is used after Close.
	ErrClosed = errors.New("recordstore: store is closed")

	// ErrInvalidKey is returned by ParseKey for keys that are not KeyWidth decimal digits.
	ErrInvalidKey = errors.New("recordstore: invalid key")
)

// Key returns the fixed-width, zero-padded decimal key of a 0-based row.
func Key(row int) string {
	return fmt.Sprintf("%0*d", KeyWidth, row)
}

// ParseKey is the inverse of Key.
func ParseKey(key string) (int, error) {
	if len(key) != KeyWidth {
		return 0, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	row, err := strconv.Atoi(key)
	if err != nil || row < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return row, nil
}

// Store is an ordered key->record mapping that supports one sequential
// cursor walk and random-access lookups by key.
//
// Records are immutable once stored. Implementations do not need to be safe
// for concurrent use: a store is owned by exactly one sampler.
type Store interface {
	// Len returns the number of records.
	Len() int

	// NewCursor returns a cursor positioned before the first record.
	// Call SeekToFirst before reading.
	NewCursor() Cursor

	// NewTransaction returns a handle for random-access reads.
	NewTransaction() Transaction

	// Close releases the underlying resources.
	Close() error
}

// Cursor walks a Store in key order.
type Cursor interface {
	// Valid reports whether the cursor points at a record.
	Valid() bool

	// Next advances to the following record. After the last record Valid returns false.
	Next(ctx context.Context) error

	// SeekToFirst positions the cursor at the first record.
	SeekToFirst(ctx context.Context) error

	// Key returns the key of the current record.
	Key() string

	// Value returns the current record. The slice is only valid until the next
	// call to Next or SeekToFirst.
	Value() []byte
}

// Transaction performs random-access reads.
type Transaction interface {
	// Get returns the record stored under key or an error satisfying
	// errors.Is(err, ErrKeyNotFound).
	Get(ctx context.Context, key string) ([]byte, error)
}
