package testutil

import (
	"math"
	"math/rand"
	"sync"

	"github.com/hupe1980/labelsampler/codec"
	"github.com/hupe1980/labelsampler/record"
	"github.com/hupe1980/labelsampler/recordstore"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float32 returns, as a float32, a pseudo-random number in [0.0,1.0).
func (r *RNG) Float32() float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float32()
}

// FillBytes fills dst with random bytes.
func (r *RNG) FillBytes(dst []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range dst {
		dst[i] = byte(r.rand.Intn(256))
	}
}

// UniformLabels returns n labels drawn uniformly from [0, numLabels).
// The first min(n, numLabels) rows get labels 0, 1, ... so no class is empty.
func (r *RNG) UniformLabels(n, numLabels int) []int {
	r.mu.Lock()
	defer r.mu.Unlock()

	labels := make([]int, n)
	for i := range labels {
		if i < numLabels {
			labels[i] = i
			continue
		}
		labels[i] = r.rand.Intn(numLabels)
	}
	r.rand.Shuffle(n, func(i, j int) { labels[i], labels[j] = labels[j], labels[i] })
	return labels
}

// Zipf returns a value in [0, n) following a Zipfian distribution.
// s=1.0 gives standard Zipf, s=1.5 gives a heavy tail.
func (r *RNG) Zipf(n int, s float64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.zipfLocked(n, s)
}

// zipfLocked is the internal implementation (caller must hold lock).
func (r *RNG) zipfLocked(n int, s float64) int {
	if n <= 1 {
		return 0
	}

	// Compute normalization constant (harmonic number with exponent s)
	var hns float64
	for i := 1; i <= n; i++ {
		hns += 1.0 / math.Pow(float64(i), s)
	}

	// Inverse transform
	u := r.rand.Float64() * hns
	var cumulative float64
	for k := 1; k <= n; k++ {
		cumulative += 1.0 / math.Pow(float64(k), s)
		if u <= cumulative {
			return k - 1
		}
	}

	return n - 1
}

// ZipfLabels returns n labels in [0, numLabels) with a Zipfian class
// distribution. Rare classes may end up without rows.
func (r *RNG) ZipfLabels(n, numLabels int, s float64) []int {
	r.mu.Lock()
	defer r.mu.Unlock()

	labels := make([]int, n)
	for i := range labels {
		labels[i] = r.zipfLocked(numLabels, s)
	}
	return labels
}

// Datum returns a channels x height x width record with label whose every
// byte is row mod 256.
func Datum(row, label, channels, height, width int) record.Datum {
	data := make([]byte, channels*height*width)
	for i := range data {
		data[i] = byte(row)
	}
	return record.Datum{
		Channels: channels,
		Height:   height,
		Width:    width,
		Data:     data,
		Label:    label,
	}
}

// EncodeDatum encodes d with the default codec.
func EncodeDatum(d record.Datum) []byte {
	return codec.MustMarshal(codec.Default, d)
}

// LabeledRecords returns the encoded records of a fixture store in row order.
func LabeledRecords(labels []int, channels, height, width int) [][]byte {
	out := make([][]byte, len(labels))
	for row, l := range labels {
		out[row] = EncodeDatum(Datum(row, l, channels, height, width))
	}
	return out
}

// LabeledStore returns an in-memory store holding one record per label,
// keyed by row.
func LabeledStore(labels []int, channels, height, width int) *recordstore.MemoryStore {
	s := recordstore.NewMemoryStore()
	for _, rec := range LabeledRecords(labels, channels, height, width) {
		s.Append(rec)
	}
	return s
}

// RowOf returns the row number a fixture item was filled with. It is only
// unambiguous for stores with fewer than 256 records.
func RowOf(item []float32) int {
	if len(item) == 0 {
		return -1
	}
	return int(item[0])
}
