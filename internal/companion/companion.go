// Package companion draws the positive and negative partners of anchors.
package companion

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/hupe1980/labelsampler/labelindex"
)

// DefaultMaxRejections bounds the rejection loop of different-class draws.
const DefaultMaxRejections = 64

// ErrNoAlternateClass is returned for a different-class draw when the label
// space has a single class.
var ErrNoAlternateClass = errors.New("companion: no alternate class to sample from")

// ErrInvalidProbability is returned for a same-class probability that is
// NaN or outside [0, 1].
var ErrInvalidProbability = errors.New("companion: same-class probability must be within [0, 1]")

// Config configures a Sampler.
type Config struct {
	// SameClassProbability is the probability that Coin returns true.
	SameClassProbability float64

	// MaxRejections bounds the rejection loop before falling back to an
	// exact draw over the other labels.
	MaxRejections int
}

// DefaultConfig returns p=0.5 and DefaultMaxRejections.
func DefaultConfig() Config {
	return Config{
		SameClassProbability: 0.5,
		MaxRejections:        DefaultMaxRejections,
	}
}

// Validate checks SameClassProbability. A non-positive MaxRejections is
// valid and means DefaultMaxRejections.
func (c Config) Validate() error {
	p := c.SameClassProbability
	if math.IsNaN(p) || p < 0 || p > 1 {
		return fmt.Errorf("%w: got %v", ErrInvalidProbability, p)
	}
	return nil
}

// Sampler draws companions from an index. It owns no random source; the
// caller passes the one it seeded. Not safe for concurrent use.
type Sampler struct {
	idx *labelindex.Index
	rng *rand.Rand
	cfg Config
}

// New returns a sampler over idx drawing from rng.
func New(idx *labelindex.Index, rng *rand.Rand, cfg Config) *Sampler {
	if cfg.MaxRejections <= 0 {
		cfg.MaxRejections = DefaultMaxRejections
	}
	return &Sampler{idx: idx, rng: rng, cfg: cfg}
}

// Coin returns true with probability SameClassProbability.
func (s *Sampler) Coin() bool {
	switch p := s.cfg.SameClassProbability; {
	case p >= 1:
		return true
	case p <= 0:
		return false
	default:
		return s.rng.Float64() < p
	}
}

// Sample draws a companion for an anchor with anchorLabel. With same set it
// draws from the anchor's own bucket, which may return the anchor itself.
// Otherwise it draws a label other than anchorLabel uniformly, then a row
// of that label. It returns the row and its label.
func (s *Sampler) Sample(anchorLabel int, same bool) (row, label int, err error) {
	label = anchorLabel
	if !same {
		label, err = s.otherLabel(anchorLabel)
		if err != nil {
			return 0, 0, err
		}
	}
	row, err = s.idx.Pick(label, s.rng)
	if err != nil {
		return 0, 0, err
	}
	return row, label, nil
}

// SameClass draws a positive for anchorLabel.
func (s *Sampler) SameClass(anchorLabel int) (int, error) {
	row, _, err := s.Sample(anchorLabel, true)
	return row, err
}

// DifferentClass draws a negative for anchorLabel and returns it with its label.
func (s *Sampler) DifferentClass(anchorLabel int) (int, int, error) {
	return s.Sample(anchorLabel, false)
}

// otherLabel draws uniformly from [0, NumLabels) \ {anchor}.
func (s *Sampler) otherLabel(anchor int) (int, error) {
	n := s.idx.NumLabels()
	if n <= 1 {
		return 0, ErrNoAlternateClass
	}
	for range s.cfg.MaxRejections {
		if l := s.rng.Intn(n); l != anchor {
			return l, nil
		}
	}
	// Exact draw over the n-1 other labels.
	l := s.rng.Intn(n - 1)
	if anchor >= 0 && l >= anchor {
		l++
	}
	return l, nil
}
