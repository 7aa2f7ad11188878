package testutil

import (
	"context"
	"testing"

	"github.com/hupe1980/labelsampler/record"
	"github.com/hupe1980/labelsampler/recordstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUniformLabels(t *testing.T) {
	rng := NewRNG(4711)

	labels := rng.UniformLabels(100, 7)

	assert.Len(t, labels, 100)
	seen := map[int]bool{}
	for _, l := range labels {
		assert.GreaterOrEqual(t, l, 0)
		assert.Less(t, l, 7)
		seen[l] = true
	}
	assert.Len(t, seen, 7)
}

func TestZipfLabels(t *testing.T) {
	rng := NewRNG(4711)

	labels := rng.ZipfLabels(2000, 10, 1.5)

	counts := make([]int, 10)
	for _, l := range labels {
		counts[l]++
	}
	assert.Greater(t, counts[0], counts[9])
}

func TestReset(t *testing.T) {
	rng := NewRNG(1)
	a := rng.UniformLabels(20, 5)
	rng.Reset()
	b := rng.UniformLabels(20, 5)
	assert.Equal(t, a, b)
	assert.Equal(t, int64(1), rng.Seed())
}

func TestLabeledStore(t *testing.T) {
	ctx := context.Background()
	store := LabeledStore([]int{3, 1, 2}, 1, 2, 2)

	require.Equal(t, 3, store.Len())

	v, err := store.NewTransaction().Get(ctx, recordstore.Key(1))
	require.NoError(t, err)

	d, err := record.NewParser(nil).Parse(v)
	require.NoError(t, err)
	assert.Equal(t, 1, d.Label)
	assert.Equal(t, []byte{1, 1, 1, 1}, d.Data)
	assert.Equal(t, 1, RowOf([]float32{1, 1, 1, 1}))
}
