package labelsampler

import (
	"errors"
	"fmt"

	"github.com/hupe1980/labelsampler/internal/companion"
	"github.com/hupe1980/labelsampler/labelindex"
	"github.com/hupe1980/labelsampler/recordstore"
)

var (
	// ErrEmptyStore is returned by setup for a store without records.
	ErrEmptyStore = errors.New("labelsampler: empty record store")

	// ErrNoAlternateClass is returned when a different-class companion is
	// requested but the label space has a single class.
	ErrNoAlternateClass = errors.New("labelsampler: no alternate class")

	// ErrInvalidBatchSize is returned for a batch size below 1.
	ErrInvalidBatchSize = errors.New("labelsampler: batch size must be positive")

	// ErrInvalidProbability is returned for a same-class probability that
	// is NaN or outside [0, 1].
	ErrInvalidProbability = errors.New("labelsampler: invalid same-class probability")

	// ErrInvalidPolicy is returned for an unknown assembly policy.
	ErrInvalidPolicy = errors.New("labelsampler: invalid policy")

	// ErrUnknownBackend is returned for an unknown store backend.
	ErrUnknownBackend = errors.New("labelsampler: unknown backend")

	// ErrClosed is returned when a sampler is used after Close.
	ErrClosed = errors.New("labelsampler: sampler is closed")

	// ErrBlobCount is returned when a layer is given the wrong number of
	// bottom or top blobs.
	ErrBlobCount = errors.New("labelsampler: wrong number of blobs")
)

// InvalidLabelError reports a negative label found while indexing.
type InvalidLabelError = labelindex.InvalidLabelError

// EmptySampleBucketError reports a companion draw from a label without rows.
type EmptySampleBucketError = labelindex.EmptySampleBucketError

// InconsistentIndexError reports that the store no longer agrees with the
// label index: a row the index refers to is missing, or carries another label.
// It is a data invariant violation and is never retried.
type InconsistentIndexError struct {
	Row      int
	Key      string
	Expected int
	Actual   int
	cause    error
}

func (e *InconsistentIndexError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("labelsampler: index/store inconsistency at row %d (key %s): %v", e.Row, e.Key, e.cause)
	}
	return fmt.Sprintf("labelsampler: index/store inconsistency at row %d (key %s): indexed label %d, stored label %d",
		e.Row, e.Key, e.Expected, e.Actual)
}

func (e *InconsistentIndexError) Unwrap() error { return e.cause }

// SetupError reports a failure while opening or indexing a store.
//
// The original underlying error can be accessed via errors.Unwrap.
type SetupError struct {
	Source string
	Step   string
	cause  error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("labelsampler: setup %s (%s): %v", e.Step, e.Source, e.cause)
}

func (e *SetupError) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, labelindex.ErrEmptyStore) {
		return fmt.Errorf("%w: %w", ErrEmptyStore, err)
	}
	if errors.Is(err, companion.ErrNoAlternateClass) {
		return fmt.Errorf("%w: %w", ErrNoAlternateClass, err)
	}
	if errors.Is(err, companion.ErrInvalidProbability) {
		return fmt.Errorf("%w: %w", ErrInvalidProbability, err)
	}
	if errors.Is(err, recordstore.ErrClosed) {
		return fmt.Errorf("%w: %w", ErrClosed, err)
	}

	return err
}
