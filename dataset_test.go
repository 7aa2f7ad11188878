package labelsampler

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataset(t *testing.T) {
	ctx := context.Background()

	t.Run("Siamese", func(t *testing.T) {
		s := newTestSampler(t, []int{0, 1, 0, 1}, 2, Siamese)
		ds := NewDataset(ctx, s, WithMaxBatches(2), WithDatasetName("train"))
		assert.Equal(t, "train", ds.Name())

		for range 2 {
			spec, inputs, labels, err := ds.Yield()
			require.NoError(t, err)
			require.IsType(t, &Batch{}, spec)

			require.Len(t, inputs, 2)
			assert.Equal(t, []int{2, 1, 2, 2}, inputs[0].Shape().Dimensions)
			require.Len(t, labels, 1)
			assert.Equal(t, []int{2}, labels[0].Shape().Dimensions)
		}

		_, _, _, err := ds.Yield()
		assert.ErrorIs(t, err, io.EOF)

		ds.Reset()
		assert.Equal(t, 0, s.Position())
		_, _, _, err = ds.Yield()
		assert.NoError(t, err)
	})

	t.Run("Triplet", func(t *testing.T) {
		s := newTestSampler(t, []int{0, 1, 0, 1}, 3, Triplet)
		ds := NewDataset(ctx, s)
		assert.Contains(t, ds.Name(), "triplet")

		_, inputs, labels, err := ds.Yield()
		require.NoError(t, err)
		assert.Len(t, inputs, 3)
		assert.Empty(t, labels)
	})
}

func TestDataset_PropagatesErrors(t *testing.T) {
	s := newTestSampler(t, []int{0}, 1, Siamese, WithSameClassProbability(0))
	ds := NewDataset(context.Background(), s)

	_, _, _, err := ds.Yield()
	assert.ErrorIs(t, err, ErrNoAlternateClass)
}

