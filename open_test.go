package labelsampler

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hupe1980/labelsampler/blobstore"
	"github.com/hupe1980/labelsampler/internal/cache"
	"github.com/hupe1980/labelsampler/recordstore/parquet"
	"github.com/hupe1980/labelsampler/recordstore/segment"
	"github.com/hupe1980/labelsampler/resource"
	"github.com/hupe1980/labelsampler/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixtureLabels = []int{0, 1, 2, 0, 1, 2, 0, 1}

func writeSegment(t *testing.T, path string, c segment.Compression) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)

	w, err := segment.NewWriter(f, segment.WithCompression(c))
	require.NoError(t, err)
	for _, rec := range testutil.LabeledRecords(fixtureLabels, 1, 2, 2) {
		_, err := w.Append(rec)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
}

func drawTriplets(t *testing.T, params Params, opts ...Option) {
	t.Helper()
	ctx := context.Background()

	s, err := New(ctx, params, append(opts, WithSeed(5))...)
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, len(fixtureLabels), s.Len())
	assert.Equal(t, 3, s.NumLabels())

	for range 3 {
		b, err := s.Next(ctx)
		require.NoError(t, err)
		for id, it := range b.Items {
			assert.Equal(t, fixtureLabels[testutil.RowOf(b.Data[1].Item(id))], it.AnchorLabel)
			assert.NotEqual(t, fixtureLabels[testutil.RowOf(b.Data[2].Item(id))], it.AnchorLabel)
		}
	}
}

func TestBackend_Segment(t *testing.T) {
	for _, c := range []segment.Compression{segment.CompressionNone, segment.CompressionLZ4, segment.CompressionZSTD} {
		t.Run(c.String(), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "train.seg")
			writeSegment(t, path, c)

			rc := resource.NewController(resource.Config{MemoryLimitBytes: 1 << 20})
			drawTriplets(t, Params{Source: path, Backend: BackendSegment, BatchSize: 4, Policy: Triplet},
				WithRecordCache(cache.NewLRU(1<<16, rc)),
				WithResourceController(rc),
			)
		})
	}
}

func TestBackend_SegmentOnBlobStore(t *testing.T) {
	ctx := context.Background()
	bs := blobstore.NewMemoryStore()

	w, err := bs.Create(ctx, "datasets/train.seg")
	require.NoError(t, err)
	sw, err := segment.NewWriter(w)
	require.NoError(t, err)
	for _, rec := range testutil.LabeledRecords(fixtureLabels, 1, 2, 2) {
		_, err := sw.Append(rec)
		require.NoError(t, err)
	}
	require.NoError(t, sw.Close())

	drawTriplets(t, Params{Source: "datasets/train.seg", Backend: BackendSegment, BatchSize: 2, Policy: Triplet},
		WithBlobStore(blobstore.NewCachingStore(bs, cache.NewLRU(1<<20, nil), 32, nil)))
}

func TestBackend_Parquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.parquet")
	f, err := os.Create(path)
	require.NoError(t, err)

	w := parquet.NewWriter(f)
	for _, rec := range testutil.LabeledRecords(fixtureLabels, 1, 2, 2) {
		_, err := w.Append(rec)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	drawTriplets(t, Params{Source: path, Backend: BackendParquet, BatchSize: 3, Policy: Triplet})
}

func TestBackend_MissingClients(t *testing.T) {
	ctx := context.Background()
	for _, p := range []Params{
		{Source: "s3://bucket/train.seg", Backend: BackendS3, BatchSize: 1},
		{Source: "bucket/train.seg", Backend: BackendMinio, BatchSize: 1},
		{Source: "mnist", Backend: BackendDynamoDB, BatchSize: 1},
	} {
		_, err := New(ctx, p)
		var se *SetupError
		require.ErrorAs(t, err, &se, p.Backend)
		assert.Contains(t, err.Error(), "requires", p.Backend)
	}
}

func TestBackend_MissingFile(t *testing.T) {
	_, err := New(context.Background(), Params{
		Source:    filepath.Join(t.TempDir(), "missing.seg"),
		Backend:   BackendSegment,
		BatchSize: 1,
	})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseObjectURI(t *testing.T) {
	bucket, key, err := ParseObjectURI("s3://data/mnist/train.seg", "s3")
	require.NoError(t, err)
	assert.Equal(t, "data", bucket)
	assert.Equal(t, "mnist/train.seg", key)

	bucket, key, err = ParseObjectURI("data/train.seg", "minio")
	require.NoError(t, err)
	assert.Equal(t, "data", bucket)
	assert.Equal(t, "train.seg", key)

	for _, bad := range []string{"gs://data/x", "s3://data", "s3:///x", "data"} {
		_, _, err := ParseObjectURI(bad, "s3")
		assert.Error(t, err, bad)
	}
}
