package labelsampler

import (
	"context"
	"fmt"
	"io"

	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/gomlx/gomlx/pkg/ml/train"
)

// Dataset feeds sampler batches to a gomlx training loop.
//
// Inputs are the data outputs of each batch, shaped [B, ...ItemShape].
// Labels hold the label output as a float32 tensor of shape [B]; triplet
// datasets yield no labels.
type Dataset struct {
	// ctx bounds every read; train.Dataset methods take no context.
	ctx        context.Context
	name       string
	sampler    *Sampler
	maxBatches int
	yielded    int
}

var _ train.Dataset = (*Dataset)(nil)

// DatasetOption configures a Dataset.
type DatasetOption func(*Dataset)

// WithDatasetName sets the name reported to the training loop.
func WithDatasetName(name string) DatasetOption {
	return func(ds *Dataset) {
		ds.name = name
	}
}

// WithMaxBatches makes Yield return io.EOF after n batches. Reset starts
// counting again. 0 yields forever.
func WithMaxBatches(n int) DatasetOption {
	return func(ds *Dataset) {
		ds.maxBatches = n
	}
}

// NewDataset wraps s. The dataset does not take ownership of s.
func NewDataset(ctx context.Context, s *Sampler, optFns ...DatasetOption) *Dataset {
	ds := &Dataset{
		ctx:     ctx,
		name:    fmt.Sprintf("labelsampler[%s:%s]", s.params.Policy, s.params.Source),
		sampler: s,
	}
	for _, fn := range optFns {
		fn(ds)
	}
	return ds
}

// Name implements train.Dataset.
func (ds *Dataset) Name() string { return ds.name }

// Reset implements train.Dataset. It rewinds the anchor walk to the first
// record.
func (ds *Dataset) Reset() {
	ds.yielded = 0
	if err := ds.sampler.Rewind(ds.ctx); err != nil {
		ds.sampler.logger.ErrorContext(ds.ctx, "dataset reset failed", "error", err)
	}
}

// Yield implements train.Dataset. spec is the Batch the tensors were built
// from.
func (ds *Dataset) Yield() (spec any, inputs, labels []*tensors.Tensor, err error) {
	if ds.maxBatches > 0 && ds.yielded >= ds.maxBatches {
		return nil, nil, nil, io.EOF
	}

	b, err := ds.sampler.Next(ds.ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	ds.yielded++

	for _, blob := range b.Data {
		inputs = append(inputs, tensors.FromFlatDataAndDimensions(blob.Data, blob.Shape...))
	}
	if b.Labels != nil {
		labels = []*tensors.Tensor{tensors.FromFlatDataAndDimensions(b.Labels, len(b.Labels))}
	}
	return b, inputs, labels, nil
}
