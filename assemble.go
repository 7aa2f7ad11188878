package labelsampler

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/hupe1980/labelsampler/record"
)

// Trace records which rows filled one batch item. Rows and labels of
// absent roles are -1.
type Trace struct {
	Item int

	AnchorRow   int
	AnchorLabel int

	// CompanionRow is the positive of a triplet, or the partner of a
	// siamese or pair item.
	CompanionRow   int
	CompanionLabel int

	// NegativeRow is only set for triplets.
	NegativeRow   int
	NegativeLabel int

	// SameClass is the outcome of the coin for siamese and pair items.
	SameClass bool

	// SelfPair is set when a same-class draw returned the anchor itself.
	SelfPair bool
}

func newTrace(item int) Trace {
	return Trace{
		Item:           item,
		AnchorRow:      -1,
		AnchorLabel:    -1,
		CompanionRow:   -1,
		CompanionLabel: -1,
		NegativeRow:    -1,
		NegativeLabel:  -1,
	}
}

// Batch is one assembled batch.
type Batch struct {
	Policy Policy

	// ItemShape is the per-item shape of every data output.
	ItemShape []int

	// Data holds the data outputs, each with leading dimension BatchSize.
	// Siamese: anchors, companions. Pair: anchors then companions.
	// Triplet: anchors, positives, negatives.
	Data []*Blob

	// Labels is the label output: same-class flags for siamese, labels for
	// pair, nil for triplet.
	Labels []float32

	Items []Trace

	// Epoch is the pass the last anchor of the batch was read in.
	Epoch int
}

// Next assembles a fresh batch.
func (s *Sampler) Next(ctx context.Context) (*Batch, error) {
	top := make([]*Blob, s.params.Policy.NumTopBlobs())
	for i := range top {
		top[i] = &Blob{}
	}

	items, err := s.Fill(ctx, top)
	if err != nil {
		return nil, err
	}

	b := &Batch{
		Policy:    s.params.Policy,
		ItemShape: slices.Clone(top[0].Shape[1:]),
		Items:     items,
		Epoch:     s.walker.Epoch(),
	}
	switch s.params.Policy {
	case Siamese:
		b.Data, b.Labels = top[:2], top[2].Data
	case Pair:
		b.Data, b.Labels = top[:1], top[1].Data
	default:
		b.Data = top
	}
	return b, nil
}

// Fill reshapes top to the current output shapes and assembles one batch
// into it. top must hold Policy.NumTopBlobs() blobs.
func (s *Sampler) Fill(ctx context.Context, top []*Blob) ([]Trace, error) {
	if s.closed {
		return nil, ErrClosed
	}
	if len(top) != s.params.Policy.NumTopBlobs() {
		return nil, fmt.Errorf("%w: %s writes %d outputs, got %d",
			ErrBlobCount, s.params.Policy, s.params.Policy.NumTopBlobs(), len(top))
	}

	start := time.Now()
	items, err := s.fill(ctx, top)
	s.metrics.RecordForward(s.params.Policy, s.params.BatchSize, time.Since(start), err)

	same := 0
	for _, it := range items {
		if it.SameClass {
			same++
		}
	}
	s.logger.LogForward(ctx, s.params.BatchSize, same, err)

	return items, err
}

func (s *Sampler) fill(ctx context.Context, top []*Blob) ([]Trace, error) {
	item, err := s.ItemShape(ctx)
	if err != nil {
		return nil, err
	}
	for i, shape := range s.outputShapes(item) {
		top[i].Reshape(shape...)
	}

	switch s.params.Policy {
	case Siamese:
		return s.assembleSiamese(ctx, top[0], top[1], top[2].Data)
	case Pair:
		return s.assemblePair(ctx, top[0], top[1].Data)
	default:
		return s.assembleTriplet(ctx, top[0], top[1], top[2])
	}
}

// assembleSiamese writes B anchors, B companions and the same-class flags.
func (s *Sampler) assembleSiamese(ctx context.Context, anchors, companions *Blob, flags []float32) ([]Trace, error) {
	items := make([]Trace, s.params.BatchSize)
	for id := range items {
		t := newTrace(id)
		if err := s.anchor(ctx, &t, anchors.Item(id)); err != nil {
			return nil, err
		}

		t.SameClass = s.companions.Coin()
		if err := s.companion(ctx, &t, t.SameClass, companions.Item(id)); err != nil {
			return nil, err
		}
		if t.SameClass {
			flags[id] = 1
		} else {
			flags[id] = 0
		}
		items[id] = t
	}
	return items, nil
}

// assemblePair writes anchors for items [0, B-B/2) with their labels, then
// companions of the first B/2 anchors at B-B/2+id, labeled with the anchor
// label or the sampled different label.
func (s *Sampler) assemblePair(ctx context.Context, data *Blob, labels []float32) ([]Trace, error) {
	batch := s.params.BatchSize
	numAnchors := batch - batch/2

	items := make([]Trace, numAnchors)
	for id := range items {
		t := newTrace(id)
		if err := s.anchor(ctx, &t, data.Item(id)); err != nil {
			return nil, err
		}
		labels[id] = float32(t.AnchorLabel)
		items[id] = t
	}

	for id := range batch / 2 {
		t := &items[id]
		t.SameClass = s.companions.Coin()
		if err := s.companion(ctx, t, t.SameClass, data.Item(numAnchors+id)); err != nil {
			return nil, err
		}
		labels[numAnchors+id] = float32(t.CompanionLabel)
	}
	return items, nil
}

// assembleTriplet writes B anchors, one positive and one negative each.
func (s *Sampler) assembleTriplet(ctx context.Context, anchors, positives, negatives *Blob) ([]Trace, error) {
	items := make([]Trace, s.params.BatchSize)
	for id := range items {
		t := newTrace(id)
		if err := s.anchor(ctx, &t, anchors.Item(id)); err != nil {
			return nil, err
		}
		if err := s.companion(ctx, &t, true, positives.Item(id)); err != nil {
			return nil, err
		}

		row, label, err := s.companions.Sample(t.AnchorLabel, false)
		if err != nil {
			s.logger.LogSampleFailure(ctx, id, t.AnchorLabel, false, err)
			return nil, translateError(err)
		}
		if err := s.write(ctx, row, negatives.Item(id)); err != nil {
			return nil, err
		}
		t.NegativeRow, t.NegativeLabel = row, label
		items[id] = t
	}
	return items, nil
}

func (s *Sampler) anchor(ctx context.Context, t *Trace, dst []float32) error {
	row, d, err := s.nextAnchor(ctx)
	if err != nil {
		return err
	}
	if err := s.transformInto(row, d, dst); err != nil {
		return err
	}
	t.AnchorRow, t.AnchorLabel = row, d.Label
	return nil
}

func (s *Sampler) companion(ctx context.Context, t *Trace, same bool, dst []float32) error {
	row, label, err := s.companions.Sample(t.AnchorLabel, same)
	if err != nil {
		s.logger.LogSampleFailure(ctx, t.Item, t.AnchorLabel, same, err)
		return translateError(err)
	}
	if err := s.write(ctx, row, dst); err != nil {
		return err
	}
	t.CompanionRow, t.CompanionLabel = row, label
	t.SelfPair = same && row == t.AnchorRow
	return nil
}

func (s *Sampler) write(ctx context.Context, row int, dst []float32) error {
	d, err := s.fetch(ctx, row)
	if err != nil {
		return err
	}
	return s.transformInto(row, d, dst)
}

func (s *Sampler) transformInto(row int, d record.Datum, dst []float32) error {
	if err := s.transform.Transform(d, dst); err != nil {
		return fmt.Errorf("labelsampler: transform row %d: %w", row, err)
	}
	return nil
}
