package treepath

import "math"

// NodeID is a caller-assigned node identifier, unique per node.
type NodeID uint64

// appendEncoded appends the base-B representation of id to buf, most
// significant symbol first, with no leading zero symbols (id 0 encodes as
// the single zero symbol).
func (a Alphabet) appendEncoded(buf []byte, id NodeID) []byte {
	base := NodeID(len(a.symbols))
	var tmp [64]byte // enough for 2^64 even in base 2
	i := len(tmp)
	for {
		i--
		tmp[i] = a.symbol(int(id % base))
		id /= base
		if id == 0 {
			break
		}
	}
	return append(buf, tmp[i:]...)
}

// encodedLen returns the natural (unpadded) symbol count of id in base B.
func (a Alphabet) encodedLen(id NodeID) int {
	base := NodeID(len(a.symbols))
	n := 1
	for id >= base {
		id /= base
		n++
	}
	return n
}

// decodeValue converts a symbol string back to its numeral value. It fails
// with *SymbolError on a byte outside the alphabet, and with errOverflow if
// the value does not fit in 64 bits (the segment layer wraps that into a
// *CorruptPathError with the full path for context).
func (a Alphabet) decodeValue(s string) (NodeID, error) {
	base := NodeID(len(a.symbols))
	cutoff := NodeID(math.MaxUint64) / base
	var id NodeID
	for i := 0; i < len(s); i++ {
		v := a.value(s[i])
		if v < 0 {
			return 0, &SymbolError{Input: s, Off: i, Byte: s[i]}
		}
		if id > cutoff {
			return 0, errOverflow
		}
		id *= base
		if id > NodeID(math.MaxUint64)-NodeID(v) {
			return 0, errOverflow
		}
		id += NodeID(v)
	}
	return id, nil
}
