package labelindex

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyStore is returned by Build for a store without records.
	ErrEmptyStore = errors.New("labelindex: empty store")

	// ErrNonSequentialKey is returned by Build when the cursor's keys are
	// not the 0-based row keys in order, so rows could not be fetched back.
	ErrNonSequentialKey = errors.New("labelindex: non-sequential record key")
)

// InvalidLabelError reports a negative label.
type InvalidLabelError struct {
	Row   int
	Label int
}

func (e *InvalidLabelError) Error() string {
	return fmt.Sprintf("labelindex: invalid label %d at row %d: labels must be non-negative", e.Label, e.Row)
}

// EmptySampleBucketError reports a draw from a label without members.
type EmptySampleBucketError struct {
	Label int
}

func (e *EmptySampleBucketError) Error() string {
	return fmt.Sprintf("labelindex: cannot sample from empty bucket for label %d", e.Label)
}
