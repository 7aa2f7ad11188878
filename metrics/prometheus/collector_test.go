package prometheus

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hupe1980/labelsampler"
	"github.com/hupe1980/labelsampler/testutil"
	prom "github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	reg := prom.NewRegistry()
	c, err := NewCollector(reg)
	require.NoError(t, err)

	c.RecordSetup(10, 3, time.Millisecond, nil)
	c.RecordForward(labelsampler.Triplet, 8, time.Millisecond, nil)
	c.RecordForward(labelsampler.Triplet, 8, time.Millisecond, errors.New("boom"))
	c.RecordRestart(2)
	c.RecordCompanionRead(time.Microsecond, nil)
	c.RecordCompanionRead(time.Microsecond, errors.New("boom"))

	assert.Equal(t, 10.0, promtest.ToFloat64(c.records))
	assert.Equal(t, 3.0, promtest.ToFloat64(c.labels))
	assert.Equal(t, 8.0, promtest.ToFloat64(c.batchItems.WithLabelValues("triplet")))
	assert.Equal(t, 1.0, promtest.ToFloat64(c.restarts))
	assert.Equal(t, 2.0, promtest.ToFloat64(c.epoch))
	assert.Equal(t, 1.0, promtest.ToFloat64(c.companionReads.WithLabelValues("error")))

	_, err = NewCollector(reg)
	assert.Error(t, err, "metrics are already registered")
}

func TestCollector_WithSampler(t *testing.T) {
	ctx := context.Background()
	c, err := NewCollector(prom.NewRegistry())
	require.NoError(t, err)

	s, err := labelsampler.New(ctx, labelsampler.Params{
		Backend:   labelsampler.BackendMemory,
		BatchSize: 3,
		Policy:    labelsampler.Siamese,
	},
		labelsampler.WithStore(testutil.LabeledStore([]int{0, 1, 0, 1}, 1, 1, 1)),
		labelsampler.WithMetricsCollector(c),
	)
	require.NoError(t, err)
	defer s.Close()

	for range 2 {
		_, err := s.Next(ctx)
		require.NoError(t, err)
	}

	assert.Equal(t, 4.0, promtest.ToFloat64(c.records))
	assert.Equal(t, 6.0, promtest.ToFloat64(c.batchItems.WithLabelValues("siamese")))
	assert.Equal(t, 1.0, promtest.ToFloat64(c.restarts))
	assert.Equal(t, 6.0, promtest.ToFloat64(c.companionReads.WithLabelValues("success")))
}
