// Package labelsampler assembles metric-learning mini-batches from a
// label-annotated record store.
//
// Records are read from a recordstore.Store whose keys are the 8-digit
// zero-padded row numbers. At setup the sampler scans the store once and
// buckets rows by label. Each batch then walks the store sequentially for
// anchors, wrapping around at the end, and draws companions at random from
// the label buckets:
//
//   - Siamese: anchors, companions and a same-class flag per item.
//   - Pair: anchors followed by companions in one output, with the labels
//     of both halves in a second output.
//   - Triplet: anchors, positives and negatives.
//
// # Quick Start
//
//	s, err := labelsampler.New(ctx, labelsampler.Params{
//	    Source:    "/data/train.seg",
//	    Backend:   labelsampler.BackendSegment,
//	    BatchSize: 64,
//	    Policy:    labelsampler.Siamese,
//	}, labelsampler.WithSeed(42))
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	batch, err := s.Next(ctx)
//
// # Backends
//
// Segment files are written with recordstore/segment and can live on local
// disk, S3 or MinIO. DynamoDB and Parquet stores are read directly. Tests
// and small jobs can use recordstore.MemoryStore through WithStore.
//
// # Training Hosts
//
// Layer exposes the sampler through the SetUp/Forward/Backward contract of
// a data layer; LayerTypes lists the registered type names. Dataset
// implements the gomlx train.Dataset interface.
//
// # Errors
//
// Setup fails with a *SetupError for empty stores, negative labels and
// store failures. Sampling fails with ErrNoAlternateClass, an
// *EmptySampleBucketError or an *InconsistentIndexError. Running off the
// end of the store is not an error: the walk restarts, which is logged and
// reported to the MetricsCollector.
package labelsampler
