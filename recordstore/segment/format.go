package segment

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
)

// Segment layout:
//
//	[Header]
//	  Magic       [4]byte "LSEG"
//	  Version     uint8
//	  Compression uint8
//	  CodecLen    uint16
//	  Codec       [CodecLen]byte
//	[Records]     one framed block per row, in row order
//	[Offsets]     (Count+1) x uint64, the last entry is the Offsets start
//	[Trailer]
//	  OffsetsStart uint64
//	  Count        uint64
//	  Magic        uint32
//	  OffsetsCRC   uint32 (IEEE)
//
// All integers are little endian.
const (
	Version = 1

	headerFixedSize = 8
	trailerSize     = 24
	trailerMagic    = 0x4745534c // "LSEG"
)

var headerMagic = [4]byte{'L', 'S', 'E', 'G'}

// ErrCorrupt is returned for files that are not valid segments.
var ErrCorrupt = errors.New("segment: corrupt segment")

type header struct {
	compression Compression
	codec       string
}

func (h header) size() int { return headerFixedSize + len(h.codec) }

func (h header) encode() []byte {
	b := make([]byte, h.size())
	copy(b[0:4], headerMagic[:])
	b[4] = Version
	b[5] = byte(h.compression)
	binary.LittleEndian.PutUint16(b[6:], uint16(len(h.codec)))
	copy(b[headerFixedSize:], h.codec)
	return b
}

// decodeHeader decodes the fixed part and returns the codec name length.
func decodeHeader(b []byte) (header, int, error) {
	if len(b) < headerFixedSize || [4]byte(b[0:4]) != headerMagic {
		return header{}, 0, fmt.Errorf("%w: bad header magic", ErrCorrupt)
	}
	if b[4] != Version {
		return header{}, 0, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, b[4])
	}
	c := Compression(b[5])
	if c > CompressionZSTD {
		return header{}, 0, fmt.Errorf("%w: unknown compression %d", ErrCorrupt, b[5])
	}
	return header{compression: c}, int(binary.LittleEndian.Uint16(b[6:])), nil
}

type trailer struct {
	offsetsStart uint64
	count        uint64
	crc          uint32
}

func (t trailer) encode() []byte {
	b := make([]byte, trailerSize)
	binary.LittleEndian.PutUint64(b[0:], t.offsetsStart)
	binary.LittleEndian.PutUint64(b[8:], t.count)
	binary.LittleEndian.PutUint32(b[16:], trailerMagic)
	binary.LittleEndian.PutUint32(b[20:], t.crc)
	return b
}

func decodeTrailer(b []byte) (trailer, error) {
	if len(b) != trailerSize || binary.LittleEndian.Uint32(b[16:]) != trailerMagic {
		return trailer{}, fmt.Errorf("%w: bad trailer", ErrCorrupt)
	}
	return trailer{
		offsetsStart: binary.LittleEndian.Uint64(b[0:]),
		count:        binary.LittleEndian.Uint64(b[8:]),
		crc:          binary.LittleEndian.Uint32(b[20:]),
	}, nil
}

func encodeOffsets(offsets []uint64) []byte {
	b := make([]byte, 8*len(offsets))
	for i, off := range offsets {
		binary.LittleEndian.PutUint64(b[8*i:], off)
	}
	return b
}

func decodeOffsets(b []byte, crc uint32) ([]uint64, error) {
	if crc32.ChecksumIEEE(b) != crc {
		return nil, fmt.Errorf("%w: offsets checksum mismatch", ErrCorrupt)
	}
	offsets := make([]uint64, len(b)/8)
	for i := range offsets {
		offsets[i] = binary.LittleEndian.Uint64(b[8*i:])
	}
	for i := 1; i < len(offsets); i++ {
		if offsets[i] < offsets[i-1] {
			return nil, fmt.Errorf("%w: offsets not ascending", ErrCorrupt)
		}
	}
	return offsets, nil
}
