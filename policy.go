package labelsampler

import (
	"fmt"
	"strings"
)

// Policy selects how a batch is assembled from anchors and companions.
type Policy int

const (
	// Siamese emits B anchors, B companions and B same-class flags.
	Siamese Policy = iota
	// Pair emits one data output holding B-B/2 anchors followed by B/2
	// companions, and one label output with the labels of both halves.
	Pair
	// Triplet emits B anchors, B positives and B negatives.
	Triplet
)

var policyNames = [...]string{"siamese", "pair", "triplet"}

var policyTypes = [...]string{"DataSiamese", "DataSingleton", "DataTriplet"}

func (p Policy) valid() bool { return p >= Siamese && p <= Triplet }

func (p Policy) String() string {
	if !p.valid() {
		return fmt.Sprintf("Policy(%d)", int(p))
	}
	return policyNames[p]
}

// TypeName returns the layer type name registered for p.
func (p Policy) TypeName() string {
	if !p.valid() {
		return ""
	}
	return policyTypes[p]
}

// NumTopBlobs returns the number of outputs p writes.
func (p Policy) NumTopBlobs() int {
	switch p {
	case Pair:
		return 2
	case Siamese, Triplet:
		return 3
	default:
		return 0
	}
}

// HasLabels reports whether p writes a label output.
func (p Policy) HasLabels() bool { return p == Siamese || p == Pair }

// ParsePolicy parses a policy name or layer type name, case-insensitively.
// "singleton" is accepted as an alias of "pair".
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "siamese", "datasiamese":
		return Siamese, nil
	case "pair", "singleton", "datasingleton":
		return Pair, nil
	case "triplet", "datatriplet":
		return Triplet, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidPolicy, s)
}

// MarshalText implements encoding.TextMarshaler.
func (p Policy) MarshalText() ([]byte, error) {
	if !p.valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPolicy, int(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Policy) UnmarshalText(b []byte) error {
	v, err := ParsePolicy(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}
