// Package transform turns decoded records into fixed-shape float tensors.
package transform

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/hupe1980/labelsampler/record"
)

var (
	// ErrShapeMismatch is returned when dst does not match the inferred shape.
	ErrShapeMismatch = errors.New("transform: shape mismatch")

	// ErrCropTooLarge is returned when the crop exceeds the record.
	ErrCropTooLarge = errors.New("transform: crop size exceeds record")

	// ErrMeanValues is returned when the mean values do not fit the channels.
	ErrMeanValues = errors.New("transform: mean values do not match channels")
)

// Transformer decodes one record into a tensor.
type Transformer interface {
	// InferShape returns the per-item shape [1, C, H, W] for d.
	InferShape(d record.Datum) ([]int, error)

	// Transform writes the tensor for d into dst.
	// len(dst) must equal the product of InferShape(d).
	Transform(d record.Datum, dst []float32) error
}

// Phase selects train-time or test-time augmentation.
type Phase int

const (
	Train Phase = iota
	Test
)

func (p Phase) String() string {
	if p == Test {
		return "test"
	}
	return "train"
}

// Config configures the Default transformer.
type Config struct {
	// Scale multiplies every value after mean subtraction. 0 means 1.
	Scale float32

	// MeanValues is subtracted per channel. A single value applies to all channels.
	MeanValues []float32

	// CropSize crops a square of this size; 0 disables cropping.
	// Train phase crops at a random offset, test phase in the center.
	CropSize int

	// Mirror flips horizontally with probability 0.5 in the train phase.
	Mirror bool

	Phase Phase

	// Seed seeds the augmentation rng. 0 uses the wall clock.
	Seed int64
}

// Default implements the crop/mirror/mean/scale pipeline.
// Safe for concurrent use.
type Default struct {
	cfg Config

	mu  sync.Mutex
	rng *rand.Rand
}

// New returns a Default transformer.
func New(cfg Config) *Default {
	if cfg.Scale == 0 {
		cfg.Scale = 1
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Default{
		cfg: cfg,
		rng: rand.New(rand.NewSource(seed)),
	}
}

// Identity returns a transformer that copies values unchanged.
func Identity() *Default {
	return New(Config{Phase: Test, Seed: 1})
}

// Config returns the effective configuration.
func (t *Default) Config() Config { return t.cfg }

func (t *Default) InferShape(d record.Datum) ([]int, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if n := len(t.cfg.MeanValues); n > 1 && n != d.Channels {
		return nil, fmt.Errorf("%w: %d values for %d channels", ErrMeanValues, n, d.Channels)
	}
	h, w := d.Height, d.Width
	if c := t.cfg.CropSize; c > 0 {
		if c > h || c > w {
			return nil, fmt.Errorf("%w: %d > %dx%d", ErrCropTooLarge, c, h, w)
		}
		h, w = c, c
	}
	return []int{1, d.Channels, h, w}, nil
}

func (t *Default) Transform(d record.Datum, dst []float32) error {
	shape, err := t.InferShape(d)
	if err != nil {
		return err
	}
	channels, height, width := shape[1], shape[2], shape[3]
	if len(dst) != channels*height*width {
		return fmt.Errorf("%w: dst has %d values, want %d", ErrShapeMismatch, len(dst), channels*height*width)
	}

	hOff, wOff, mirror := t.augment(d, height, width)

	for c := range channels {
		mean := t.mean(c)
		for h := range height {
			for w := range width {
				src := (c*d.Height+hOff+h)*d.Width + wOff + w
				col := w
				if mirror {
					col = width - 1 - w
				}
				dst[(c*height+h)*width+col] = (d.Value(src) - mean) * t.cfg.Scale
			}
		}
	}
	return nil
}

// augment picks the crop offsets and the flip.
func (t *Default) augment(d record.Datum, height, width int) (hOff, wOff int, mirror bool) {
	if t.cfg.Phase == Test {
		return (d.Height - height) / 2, (d.Width - width) / 2, false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cfg.CropSize > 0 {
		hOff = t.rng.Intn(d.Height - height + 1)
		wOff = t.rng.Intn(d.Width - width + 1)
	}
	mirror = t.cfg.Mirror && t.rng.Intn(2) == 1
	return hOff, wOff, mirror
}

func (t *Default) mean(c int) float32 {
	switch len(t.cfg.MeanValues) {
	case 0:
		return 0
	case 1:
		return t.cfg.MeanValues[0]
	default:
		return t.cfg.MeanValues[c]
	}
}

// Count returns the number of values in shape.
func Count(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}
