package treepath

import "fmt"

// Alphabet is an ordered table of B distinct symbols; the symbol at index i
// represents numeral value i. Symbols are single bytes, and their byte order
// must equal their index order, so that encoded strings compare like numbers
// under the store's collation.
type Alphabet struct {
	symbols string
	values  *[256]int16 // byte -> numeral value, -1 if not in the alphabet
}

const (
	digits    = "0123456789"
	uppercase = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lowercase = "abcdefghijklmnopqrstuvwxyz"

	alphabet36 = digits + uppercase
	alphabet62 = digits + uppercase + lowercase
)

// NewAlphabet builds an alphabet from the given symbols. The symbols must be
// single bytes in strictly ascending byte order; anything else fails with
// *ConfigError, because an out-of-order or duplicated symbol would make
// stored paths sort differently from their numeral values.
func NewAlphabet(symbols string) (Alphabet, error) {
	n := len(symbols)
	if n < 2 {
		return Alphabet{}, configErrf("alphabet needs at least 2 symbols, got %d", n)
	}
	if n > 256 {
		return Alphabet{}, configErrf("alphabet cannot exceed 256 symbols, got %d", n)
	}
	values := new([256]int16)
	for i := range values {
		values[i] = -1
	}
	prev := -1
	for i := 0; i < n; i++ {
		c := symbols[i]
		if int(c) <= prev {
			return Alphabet{}, configErrf("alphabet symbols must be in strictly ascending byte order, symbol %d (0x%02X) breaks it", i, c)
		}
		prev = int(c)
		values[c] = int16(i)
	}
	return Alphabet{symbols: symbols, values: values}, nil
}

// StockAlphabet returns the canonical alphabet for the given base, covering
// the bases this package ships verified symbol tables for: 2..36 (digits
// plus uppercase), 62 (plus lowercase), 95 (printable ASCII) and 128 (bytes
// 0x01..0x80). Other bases require a caller-supplied alphabet.
func StockAlphabet(base int) (Alphabet, error) {
	switch {
	case base >= 2 && base <= 36:
		return NewAlphabet(alphabet36[:base])
	case base == 62:
		return NewAlphabet(alphabet62)
	case base == 95:
		return NewAlphabet(printableASCII())
	case base == 128:
		return NewAlphabet(byteRange(0x01, 0x80))
	default:
		return Alphabet{}, configErrf("no stock alphabet for base %d", base)
	}
}

func printableASCII() string {
	return byteRange(0x20, 0x7E)
}

func byteRange(lo, hi byte) string {
	buf := make([]byte, 0, int(hi)-int(lo)+1)
	for c := lo; ; c++ {
		buf = append(buf, c)
		if c == hi {
			break
		}
	}
	return string(buf)
}

// Len returns the base B.
func (a Alphabet) Len() int {
	return len(a.symbols)
}

// Zero returns the symbol for numeral value 0, used for padding.
func (a Alphabet) Zero() byte {
	return a.symbols[0]
}

// Symbols returns the symbol table in numeral order.
func (a Alphabet) Symbols() string {
	return a.symbols
}

func (a Alphabet) symbol(v int) byte {
	return a.symbols[v]
}

// value returns the numeral value of c, or -1 if c is not in the alphabet.
func (a Alphabet) value(c byte) int {
	if a.values == nil {
		return -1
	}
	return int(a.values[c])
}

// mixesCase reports whether the alphabet contains two symbols that a
// case-insensitive collation would collapse into one.
func (a Alphabet) mixesCase() bool {
	var seen [256]bool
	for i := 0; i < len(a.symbols); i++ {
		c := a.symbols[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		if seen[c] {
			return true
		}
		seen[c] = true
	}
	return false
}

func (a Alphabet) String() string {
	return fmt.Sprintf("Alphabet(base %d)", len(a.symbols))
}
