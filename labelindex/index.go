// Package labelindex maps labels to the rows carrying them.
//
// The index is built once from a full store scan and is immutable
// afterwards. Buckets are roaring bitmaps: rows are added in scan order,
// so each bucket is sorted by row and Select gives O(1)-ish uniform draws.
package labelindex

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/labelsampler/recordstore"
)

// Index is the row→label and label→rows mapping of one record store.
type Index struct {
	labels  []int32
	buckets []*roaring.Bitmap
}

// LabelFunc extracts the label of a raw record.
type LabelFunc func(value []byte) (int, error)

// Build scans the store through c, then buckets the recorded labels.
//
// Two passes are needed because the bucket count is only known once the
// maximum label is. The second pass walks the recorded labels, not the store.
// On success the cursor is positioned at the first record again.
func Build(ctx context.Context, c recordstore.Cursor, label LabelFunc) (*Index, error) {
	if err := c.SeekToFirst(ctx); err != nil {
		return nil, err
	}

	var labels []int
	for row := 0; c.Valid(); row++ {
		if row >= recordstore.MaxRows {
			return nil, fmt.Errorf("labelindex: more than %d records", recordstore.MaxRows)
		}
		if key := c.Key(); key != recordstore.Key(row) {
			return nil, fmt.Errorf("%w: row %d has key %q", ErrNonSequentialKey, row, key)
		}
		l, err := label(c.Value())
		if err != nil {
			return nil, fmt.Errorf("labelindex: row %d: %w", row, err)
		}
		labels = append(labels, l)

		if err := c.Next(ctx); err != nil {
			return nil, err
		}
	}

	idx, err := New(labels)
	if err != nil {
		return nil, err
	}

	if err := c.SeekToFirst(ctx); err != nil {
		return nil, err
	}
	return idx, nil
}

// New builds an index from the labels of rows 0..len(labels)-1.
func New(labels []int) (*Index, error) {
	if len(labels) == 0 {
		return nil, ErrEmptyStore
	}

	maxLabel := 0
	for row, l := range labels {
		if l < 0 {
			return nil, &InvalidLabelError{Row: row, Label: l}
		}
		maxLabel = max(maxLabel, l)
	}

	idx := &Index{
		labels:  make([]int32, len(labels)),
		buckets: make([]*roaring.Bitmap, maxLabel+1),
	}
	for i := range idx.buckets {
		idx.buckets[i] = roaring.New()
	}
	for row, l := range labels {
		idx.labels[row] = int32(l)
		idx.buckets[l].Add(uint32(row))
	}
	for _, b := range idx.buckets {
		b.RunOptimize()
	}
	return idx, nil
}

// Len returns the number of rows.
func (idx *Index) Len() int { return len(idx.labels) }

// NumLabels returns MaxLabel()+1, the number of buckets including empty ones.
func (idx *Index) NumLabels() int { return len(idx.buckets) }

// MaxLabel returns the largest label.
func (idx *Index) MaxLabel() int { return len(idx.buckets) - 1 }

// Label returns the label of row.
func (idx *Index) Label(row int) int { return int(idx.labels[row]) }

// Labels returns a copy of the row→label mapping.
func (idx *Index) Labels() []int {
	out := make([]int, len(idx.labels))
	for i, l := range idx.labels {
		out[i] = int(l)
	}
	return out
}

// Bucket returns the rows of label, or nil for labels outside [0, MaxLabel].
// The bitmap must not be modified.
func (idx *Index) Bucket(label int) *roaring.Bitmap {
	if label < 0 || label >= len(idx.buckets) {
		return nil
	}
	return idx.buckets[label]
}

// BucketSize returns the number of rows with label.
func (idx *Index) BucketSize(label int) int {
	b := idx.Bucket(label)
	if b == nil {
		return 0
	}
	return int(b.GetCardinality())
}

// EmptyBuckets returns the labels in [0, MaxLabel] without rows.
func (idx *Index) EmptyBuckets() []int {
	var out []int
	for l, b := range idx.buckets {
		if b.IsEmpty() {
			out = append(out, l)
		}
	}
	return out
}

// Pick draws a row uniformly from the bucket of label.
func (idx *Index) Pick(label int, r *rand.Rand) (int, error) {
	b := idx.Bucket(label)
	if b == nil || b.IsEmpty() {
		return 0, &EmptySampleBucketError{Label: label}
	}
	row, err := b.Select(uint32(r.Intn(int(b.GetCardinality()))))
	if err != nil {
		return 0, fmt.Errorf("labelindex: select in bucket %d: %w", label, err)
	}
	return int(row), nil
}
