package treepath

import (
	"fmt"
	"math"
)

// Strategy encodes exactly one node id into a path segment and consumes
// exactly one segment when decoding, without delimiters. Implementations
// must preserve sibling sort order: for ids i < j, the segment of i compares
// byte-wise below the segment of j under the same alphabet.
type Strategy interface {
	// appendSegment appends the segment for id, or fails with
	// *CapacityError if id does not fit.
	appendSegment(buf []byte, a Alphabet, id NodeID) ([]byte, error)

	// decodeOne decodes the segment starting at path[off:], returning the
	// id and the offset just past the segment.
	decodeOne(a Alphabet, path string, off int) (NodeID, int, error)

	// maxValue returns the largest encodable id under the given base.
	maxValue(base int) NodeID

	// validate rejects strategy parameters that cannot work with the base.
	validate(base int) error

	String() string
}

// FixedWidth encodes every id as exactly W symbols, left-padded with the
// zero symbol. The largest encodable id is B^W-1.
type FixedWidth int

// LengthPrefixed encodes an id as one length symbol (numeral value = payload
// length) followed by that many payload symbols. Shorter segments sort below
// longer ones because the leading length symbol compares first.
type LengthPrefixed struct{}

func (w FixedWidth) appendSegment(buf []byte, a Alphabet, id NodeID) ([]byte, error) {
	n := a.encodedLen(id)
	if n > int(w) {
		return buf, &CapacityError{ID: id, Base: a.Len(), Width: int(w), MaxValue: w.maxValue(a.Len())}
	}
	zero := a.Zero()
	for i := n; i < int(w); i++ {
		buf = append(buf, zero)
	}
	return a.appendEncoded(buf, id), nil
}

func (w FixedWidth) decodeOne(a Alphabet, path string, off int) (NodeID, int, error) {
	end := off + int(w)
	if end > len(path) {
		return 0, 0, corruptPathf(path, off, nil, "incomplete segment: %d bytes left, need %d", len(path)-off, int(w))
	}
	id, err := decodeSegmentValue(a, path, off, end)
	if err != nil {
		return 0, 0, err
	}
	return id, end, nil
}

func (w FixedWidth) maxValue(base int) NodeID {
	v := saturatingPow(base, int(w))
	if v == math.MaxUint64 {
		return v
	}
	return v - 1
}

func (w FixedWidth) validate(base int) error {
	if w < 1 {
		return configErrf("fixed segment width must be at least 1, got %d", int(w))
	}
	return nil
}

func (w FixedWidth) String() string {
	return fmt.Sprintf("FixedWidth(%d)", int(w))
}

func (LengthPrefixed) appendSegment(buf []byte, a Alphabet, id NodeID) ([]byte, error) {
	n := a.encodedLen(id)
	if n >= a.Len() {
		return buf, &CapacityError{ID: id, Base: a.Len(), MaxValue: LengthPrefixed{}.maxValue(a.Len())}
	}
	buf = append(buf, a.symbol(n))
	return a.appendEncoded(buf, id), nil
}

func (LengthPrefixed) decodeOne(a Alphabet, path string, off int) (NodeID, int, error) {
	if off >= len(path) {
		return 0, 0, corruptPathf(path, off, nil, "incomplete segment: missing length symbol")
	}
	n := a.value(path[off])
	if n < 0 {
		return 0, 0, &SymbolError{Input: path, Off: off, Byte: path[off]}
	}
	if n == 0 {
		return 0, 0, corruptPathf(path, off, nil, "zero-length segment payload")
	}
	end := off + 1 + n
	if end > len(path) {
		return 0, 0, corruptPathf(path, off, nil, "incomplete segment: %d payload bytes left, need %d", len(path)-off-1, n)
	}
	id, err := decodeSegmentValue(a, path, off+1, end)
	if err != nil {
		return 0, 0, err
	}
	return id, end, nil
}

func (LengthPrefixed) maxValue(base int) NodeID {
	v := saturatingPow(base, base-1)
	if v == math.MaxUint64 {
		return v
	}
	return v - 1
}

func (LengthPrefixed) validate(base int) error {
	return nil
}

func (LengthPrefixed) String() string {
	return "LengthPrefixed"
}

// decodeSegmentValue decodes path[start:end] as a numeral, reporting symbol
// and overflow problems with offsets relative to the full path.
func decodeSegmentValue(a Alphabet, path string, start, end int) (NodeID, error) {
	id, err := a.decodeValue(path[start:end])
	if err != nil {
		if se, ok := err.(*SymbolError); ok {
			return 0, &SymbolError{Input: path, Off: start + se.Off, Byte: se.Byte}
		}
		return 0, corruptPathf(path, start, err, "segment value not representable")
	}
	return id, nil
}

// saturatingPow returns base^exp, clamped to MaxUint64 on overflow. The
// clamped value is only ever used as "no 64-bit id can overflow this".
func saturatingPow(base, exp int) NodeID {
	v := NodeID(1)
	for i := 0; i < exp; i++ {
		if v > math.MaxUint64/NodeID(base) {
			return math.MaxUint64
		}
		v *= NodeID(base)
	}
	return v
}
