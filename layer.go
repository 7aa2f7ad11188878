package labelsampler

import (
	"context"
	"fmt"
	"slices"
)

// Layer adapts a Sampler to a training host that drives data layers with
// SetUp, Forward and Backward over top and bottom blobs.
//
// A Layer takes no bottom blobs. It is never shared across parallel
// solvers: each instance owns its store handles.
type Layer struct {
	params  Params
	optFns  []Option
	sampler *Sampler
}

// NewLayer returns an unopened layer. The store is opened by SetUp.
func NewLayer(params Params, optFns ...Option) (*Layer, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Layer{params: params, optFns: optFns}, nil
}

// Type returns the registered layer type name.
func (l *Layer) Type() string { return l.params.Policy.TypeName() }

// ExactNumBottomBlobs returns 0.
func (l *Layer) ExactNumBottomBlobs() int { return 0 }

// MinTopBlobs returns the number of outputs the policy writes.
func (l *Layer) MinTopBlobs() int { return l.params.Policy.NumTopBlobs() }

// MaxTopBlobs returns the number of outputs the policy writes.
func (l *Layer) MaxTopBlobs() int { return l.params.Policy.NumTopBlobs() }

// ShareInParallel returns false.
func (l *Layer) ShareInParallel() bool { return false }

// Sampler returns the sampler created by SetUp, or nil before SetUp.
func (l *Layer) Sampler() *Sampler { return l.sampler }

func (l *Layer) checkBlobs(bottom, top []*Blob) error {
	if len(bottom) != l.ExactNumBottomBlobs() {
		return fmt.Errorf("%w: %s takes no bottom blobs, got %d", ErrBlobCount, l.Type(), len(bottom))
	}
	if n := l.params.Policy.NumTopBlobs(); len(top) != n {
		return fmt.Errorf("%w: %s needs %d top blobs, got %d", ErrBlobCount, l.Type(), n, len(top))
	}
	for i, b := range top {
		if b == nil {
			return fmt.Errorf("%w: top blob %d is nil", ErrBlobCount, i)
		}
	}
	return nil
}

// SetUp opens and indexes the store, then shapes top from the first record.
func (l *Layer) SetUp(ctx context.Context, bottom, top []*Blob) error {
	if err := l.checkBlobs(bottom, top); err != nil {
		return err
	}
	if l.sampler != nil {
		return fmt.Errorf("labelsampler: %s layer is already set up", l.Type())
	}

	s, err := New(ctx, l.params, l.optFns...)
	if err != nil {
		return err
	}

	shapes, err := s.OutputShapes(ctx)
	if err != nil {
		_ = s.Close()
		return err
	}
	for i, shape := range shapes {
		top[i].Reshape(shape...)
		if len(shape) > 1 {
			s.logger.LogOutputShape(ctx, i, shape)
		}
	}

	l.sampler = s
	return nil
}

// Forward fills top with the next batch.
func (l *Layer) Forward(ctx context.Context, bottom, top []*Blob) error {
	if l.sampler == nil {
		return fmt.Errorf("labelsampler: %s layer is not set up", l.Type())
	}
	if err := l.checkBlobs(bottom, top); err != nil {
		return err
	}
	_, err := l.sampler.Fill(ctx, top)
	return err
}

// Backward does nothing; the layer has no inputs to propagate to.
func (l *Layer) Backward(context.Context, []*Blob, []bool, []*Blob) error { return nil }

// Close closes the sampler.
func (l *Layer) Close() error {
	if l.sampler == nil {
		return nil
	}
	return l.sampler.Close()
}

// LayerTypes returns the registered layer type names.
func LayerTypes() []string {
	return slices.Clone(policyTypes[:])
}

// NewLayerByType returns a layer for a registered type name. The policy of
// params is replaced by the one the type stands for.
func NewLayerByType(typeName string, params Params, optFns ...Option) (*Layer, error) {
	i := slices.Index(policyTypes[:], typeName)
	if i < 0 {
		return nil, fmt.Errorf("labelsampler: unknown layer type %q", typeName)
	}
	params.Policy = Policy(i)
	return NewLayer(params, optFns...)
}
