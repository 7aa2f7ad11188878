package labelsampler

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/hupe1980/labelsampler/internal/companion"
	"github.com/hupe1980/labelsampler/internal/walker"
	"github.com/hupe1980/labelsampler/labelindex"
	"github.com/hupe1980/labelsampler/record"
	"github.com/hupe1980/labelsampler/recordstore"
	"github.com/hupe1980/labelsampler/transform"
)

// Sampler turns a labeled record store into batches.
//
// A Sampler owns its store, cursor, transaction, label index and random
// source. It is not safe for concurrent use and must not be shared: run one
// Sampler per training worker.
type Sampler struct {
	params  Params
	logger  *Logger
	metrics MetricsCollector

	store      recordstore.Store
	txn        recordstore.Transaction
	walker     *walker.Walker
	index      *labelindex.Index
	companions *companion.Sampler
	parser     record.Parser
	transform  transform.Transformer

	closed bool
}

// New opens the store named by params, indexes its labels and positions
// the anchor walk at the first record.
func New(ctx context.Context, params Params, optFns ...Option) (*Sampler, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	o := applyOptions(optFns)
	if err := o.companion.Validate(); err != nil {
		return nil, translateError(err)
	}

	s := &Sampler{
		params:    params,
		logger:    o.logger.WithSource(params.Source).WithPolicy(params.Policy),
		metrics:   o.metricsCollector,
		parser:    o.parser,
		transform: o.transformer,
	}

	start := time.Now()
	if err := s.setup(ctx, &o); err != nil {
		s.metrics.RecordSetup(0, 0, time.Since(start), err)
		s.logger.LogSetup(ctx, 0, 0, nil, err)
		return nil, err
	}
	s.metrics.RecordSetup(s.index.Len(), s.index.NumLabels(), time.Since(start), nil)
	s.logger.LogSetup(ctx, s.index.Len(), s.index.NumLabels(), s.index.EmptyBuckets(), nil)

	return s, nil
}

func (s *Sampler) setup(ctx context.Context, o *options) error {
	store, err := openStore(ctx, s.params, o)
	if err != nil {
		return &SetupError{Source: s.params.Source, Step: "open store", cause: translateError(err)}
	}

	cursor := store.NewCursor()
	idx, err := labelindex.Build(ctx, cursor, s.parser.Label)
	if err != nil {
		_ = store.Close()
		return &SetupError{Source: s.params.Source, Step: "index labels", cause: translateError(err)}
	}

	s.store = store
	s.txn = store.NewTransaction()
	s.index = idx
	s.walker = walker.New(cursor, s.onRestart)
	s.companions = companion.New(idx, rand.New(rand.NewSource(o.seed)), o.companion)
	return nil
}

func (s *Sampler) onRestart(epoch int) {
	s.logger.LogRestart(context.Background(), epoch)
	s.metrics.RecordRestart(epoch)
}

// Params returns the parameter block the sampler was created with.
func (s *Sampler) Params() Params { return s.params }

// Index returns the label index. It must not be modified.
func (s *Sampler) Index() *labelindex.Index { return s.index }

// Len returns the number of records.
func (s *Sampler) Len() int { return s.index.Len() }

// NumLabels returns the number of label buckets, MaxLabel+1.
func (s *Sampler) NumLabels() int { return s.index.NumLabels() }

// Epoch returns the number of completed passes over the store.
func (s *Sampler) Epoch() int { return s.walker.Epoch() }

// Restarts returns the number of wraparounds of the anchor walk.
func (s *Sampler) Restarts() int { return s.walker.Restarts() }

// Position returns the row of the next anchor.
func (s *Sampler) Position() int { return s.walker.Position() }

// Rewind positions the anchor walk at the first record without counting a
// restart. The random source is not reset.
func (s *Sampler) Rewind(ctx context.Context) error {
	if s.closed {
		return ErrClosed
	}
	return translateError(s.walker.Rewind(ctx))
}

// ItemShape returns the per-item shape of the data outputs, inferred from
// the record under the cursor: [C, H', W'] for the default transformer.
func (s *Sampler) ItemShape(ctx context.Context) ([]int, error) {
	if s.closed {
		return nil, ErrClosed
	}
	_, value, err := s.walker.Peek(ctx)
	if err != nil {
		return nil, translateError(err)
	}
	d, err := s.parser.Parse(value)
	if err != nil {
		return nil, fmt.Errorf("labelsampler: infer shape: %w", err)
	}
	shape, err := s.transform.InferShape(d)
	if err != nil {
		return nil, fmt.Errorf("labelsampler: infer shape: %w", err)
	}
	if len(shape) > 1 {
		shape = shape[1:]
	}
	return shape, nil
}

// OutputShapes returns the shapes of the outputs one batch fills, in top
// order.
func (s *Sampler) OutputShapes(ctx context.Context) ([][]int, error) {
	item, err := s.ItemShape(ctx)
	if err != nil {
		return nil, err
	}
	return s.outputShapes(item), nil
}

func (s *Sampler) outputShapes(item []int) [][]int {
	b := s.params.BatchSize
	data := append([]int{b}, item...)
	switch s.params.Policy {
	case Siamese:
		return [][]int{data, data, {b}}
	case Pair:
		return [][]int{data, {b}}
	default:
		return [][]int{data, data, data}
	}
}

// Close releases the store. Calling Close more than once is a no-op.
func (s *Sampler) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.store.Close()
}

// fetch reads row through the transaction and checks it against the index.
func (s *Sampler) fetch(ctx context.Context, row int) (record.Datum, error) {
	key := recordstore.Key(row)

	start := time.Now()
	value, err := s.txn.Get(ctx, key)
	s.metrics.RecordCompanionRead(time.Since(start), err)
	if err != nil {
		if errors.Is(err, recordstore.ErrKeyNotFound) {
			return record.Datum{}, &InconsistentIndexError{Row: row, Key: key, Expected: s.index.Label(row), cause: err}
		}
		return record.Datum{}, translateError(err)
	}

	d, err := s.parser.Parse(value)
	if err != nil {
		return record.Datum{}, fmt.Errorf("labelsampler: row %d: %w", row, err)
	}
	if want := s.index.Label(row); d.Label != want {
		return record.Datum{}, &InconsistentIndexError{Row: row, Key: key, Expected: want, Actual: d.Label}
	}
	return d, nil
}

// nextAnchor reads the next record of the sequential walk.
func (s *Sampler) nextAnchor(ctx context.Context) (int, record.Datum, error) {
	row, value, err := s.walker.Next(ctx)
	if err != nil {
		return 0, record.Datum{}, translateError(err)
	}
	d, err := s.parser.Parse(value)
	if err != nil {
		return 0, record.Datum{}, fmt.Errorf("labelsampler: row %d: %w", row, err)
	}
	if want := s.index.Label(row); d.Label != want {
		return 0, record.Datum{}, &InconsistentIndexError{
			Row: row, Key: recordstore.Key(row), Expected: want, Actual: d.Label,
		}
	}
	return row, d, nil
}
