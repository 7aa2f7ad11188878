package labelsampler

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/hupe1980/labelsampler/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayerTypes(t *testing.T) {
	assert.Equal(t, []string{"DataSiamese", "DataSingleton", "DataTriplet"}, LayerTypes())

	tests := []struct {
		typeName string
		policy   Policy
		tops     int
	}{
		{"DataSiamese", Siamese, 3},
		{"DataSingleton", Pair, 2},
		{"DataTriplet", Triplet, 3},
	}
	for _, tt := range tests {
		t.Run(tt.typeName, func(t *testing.T) {
			l, err := NewLayerByType(tt.typeName, Params{Backend: BackendMemory, BatchSize: 2})
			require.NoError(t, err)

			assert.Equal(t, tt.typeName, l.Type())
			assert.Equal(t, tt.tops, l.MinTopBlobs())
			assert.Equal(t, tt.tops, l.MaxTopBlobs())
			assert.Zero(t, l.ExactNumBottomBlobs())
			assert.False(t, l.ShareInParallel())
		})
	}

	_, err := NewLayerByType("Data", Params{Backend: BackendMemory, BatchSize: 2})
	assert.Error(t, err)
}

func TestLayer_SetUpForward(t *testing.T) {
	ctx := context.Background()
	var logs bytes.Buffer

	l, err := NewLayerByType("DataSiamese", Params{Backend: BackendMemory, BatchSize: 2},
		WithStore(testutil.LabeledStore([]int{0, 0, 1, 1}, 3, 4, 5)),
		WithLogger(NewLogger(slog.NewTextHandler(&logs, nil))),
		WithSeed(1),
	)
	require.NoError(t, err)
	defer l.Close()

	top := []*Blob{NewBlob(), NewBlob(), NewBlob()}

	require.ErrorIs(t, l.SetUp(ctx, []*Blob{NewBlob()}, top), ErrBlobCount)
	require.ErrorIs(t, l.SetUp(ctx, nil, top[:2]), ErrBlobCount)
	require.Error(t, l.Forward(ctx, nil, top), "forward before setup")

	require.NoError(t, l.SetUp(ctx, nil, top))
	assert.Equal(t, []int{2, 3, 4, 5}, top[0].Shape)
	assert.Equal(t, []int{2, 3, 4, 5}, top[1].Shape)
	assert.Equal(t, []int{2}, top[2].Shape)
	assert.Contains(t, logs.String(), "output data size: 2,3,4,5")
	assert.Contains(t, logs.String(), "label index built")

	require.Error(t, l.SetUp(ctx, nil, top), "second setup")

	for range 3 {
		require.NoError(t, l.Forward(ctx, nil, top))
		for _, f := range top[2].Data {
			assert.Contains(t, []float32{0, 1}, f)
		}
	}
	assert.Contains(t, logs.String(), "restarting data fetching from start")
	assert.Equal(t, 1, l.Sampler().Restarts())

	require.NoError(t, l.Backward(ctx, top, []bool{false}, nil))
}

func TestLayer_Pair(t *testing.T) {
	ctx := context.Background()
	l, err := NewLayer(Params{Backend: BackendMemory, BatchSize: 4, Policy: Pair},
		WithStore(testutil.LabeledStore([]int{0, 1, 0, 1}, 1, 1, 1)))
	require.NoError(t, err)
	defer l.Close()

	top := []*Blob{NewBlob(), NewBlob()}
	require.NoError(t, l.SetUp(ctx, nil, top))
	require.NoError(t, l.Forward(ctx, nil, top))

	assert.Equal(t, []int{4, 1, 1, 1}, top[0].Shape)
	assert.Equal(t, []int{4}, top[1].Shape)
	assert.Equal(t, []float32{0, 1}, top[1].Data[:2])
}
