// Package record decodes the labeled records held by a record store.
package record

import (
	"errors"
	"fmt"

	"github.com/hupe1980/labelsampler/codec"
)

// ErrInvalidDatum is returned for records whose payload does not match
// their declared dimensions.
var ErrInvalidDatum = errors.New("record: invalid datum")

// Datum is one decoded record: a C×H×W payload and an integer label.
// Either Data (bytes, e.g. pixels) or FloatData is set.
type Datum struct {
	Channels  int       `json:"channels"`
	Height    int       `json:"height"`
	Width     int       `json:"width"`
	Data      []byte    `json:"data,omitempty"`
	FloatData []float32 `json:"float_data,omitempty"`
	Label     int       `json:"label"`
}

// Size returns C*H*W.
func (d Datum) Size() int {
	return d.Channels * d.Height * d.Width
}

// Validate checks the dimensions against the payload.
func (d Datum) Validate() error {
	if d.Channels <= 0 || d.Height <= 0 || d.Width <= 0 {
		return fmt.Errorf("%w: dimensions %dx%dx%d", ErrInvalidDatum, d.Channels, d.Height, d.Width)
	}
	switch {
	case len(d.Data) > 0 && len(d.FloatData) > 0:
		return fmt.Errorf("%w: both data and float_data set", ErrInvalidDatum)
	case len(d.Data) > 0:
		if len(d.Data) != d.Size() {
			return fmt.Errorf("%w: data has %d values, want %d", ErrInvalidDatum, len(d.Data), d.Size())
		}
	case len(d.FloatData) > 0:
		if len(d.FloatData) != d.Size() {
			return fmt.Errorf("%w: float_data has %d values, want %d", ErrInvalidDatum, len(d.FloatData), d.Size())
		}
	default:
		return fmt.Errorf("%w: empty payload", ErrInvalidDatum)
	}
	return nil
}

// Value returns element i of the payload as float32.
func (d Datum) Value(i int) float32 {
	if len(d.Data) > 0 {
		return float32(d.Data[i])
	}
	return d.FloatData[i]
}

// Parser decodes raw store values.
type Parser interface {
	// Parse decodes and validates a full record.
	Parse(b []byte) (Datum, error)

	// Label decodes only the label.
	Label(b []byte) (int, error)

	// Encode is the inverse of Parse.
	Encode(d Datum) ([]byte, error)
}

// CodecParser is a Parser over a codec.Codec.
type CodecParser struct {
	c codec.Codec
}

// NewParser returns a parser using c, or codec.Default if c is nil.
func NewParser(c codec.Codec) *CodecParser {
	if c == nil {
		c = codec.Default
	}
	return &CodecParser{c: c}
}

// Codec returns the underlying codec.
func (p *CodecParser) Codec() codec.Codec { return p.c }

func (p *CodecParser) Parse(b []byte) (Datum, error) {
	var d Datum
	if err := p.c.Unmarshal(b, &d); err != nil {
		return Datum{}, fmt.Errorf("record: decode: %w", err)
	}
	if err := d.Validate(); err != nil {
		return Datum{}, err
	}
	return d, nil
}

// labelOnly skips the payload during the index scan.
type labelOnly struct {
	Label *int `json:"label"`
}

func (p *CodecParser) Label(b []byte) (int, error) {
	var l labelOnly
	if err := p.c.Unmarshal(b, &l); err != nil {
		return 0, fmt.Errorf("record: decode label: %w", err)
	}
	if l.Label == nil {
		return 0, fmt.Errorf("%w: missing label", ErrInvalidDatum)
	}
	return *l.Label, nil
}

func (p *CodecParser) Encode(d Datum) ([]byte, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return p.c.Marshal(d)
}
