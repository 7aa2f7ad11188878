// Package testutil provides testing utilities for labelsampler.
//
// This package is intended for use in tests and benchmarks only.
// It provides a seeded random source, label generators and fixture
// builders for labeled record stores.
//
// # Labels
//
//	rng := testutil.NewRNG(seed)
//	labels := rng.UniformLabels(1000, 10)   // every class equally likely
//	skewed := rng.ZipfLabels(1000, 10, 1.5) // heavy head, long tail
//
// # Fixtures
//
//	store := testutil.LabeledStore(labels, 1, 2, 2)
//
// Every record of a fixture store is filled with its own row number (mod
// 256), so a test can recover which row landed in an output tensor with
// RowOf.
package testutil
