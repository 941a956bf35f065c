package treepath

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

func TestAlphabetEncode(t *testing.T) {
	a36 := must(StockAlphabet(36))
	a16 := must(StockAlphabet(16))
	tests := []struct {
		a        Alphabet
		id       NodeID
		expected string
	}{
		{a36, 0, "0"},
		{a36, 1, "1"},
		{a36, 35, "Z"},
		{a36, 36, "10"},
		{a36, 100, "2S"},
		{a36, 1000, "RS"},
		{a36, 36*36 - 1, "ZZ"},
		{a16, 0, "0"},
		{a16, 255, "FF"},
		{a16, 4096, "1000"},
	}
	for _, test := range tests {
		s := string(test.a.appendEncoded(nil, test.id))
		if s != test.expected {
			t.Errorf("** encode(%d, base %d) = %q, wanted %q", test.id, test.a.Len(), s, test.expected)
			continue
		}
		id, err := test.a.decodeValue(s)
		if err != nil || id != test.id {
			t.Errorf("** decode(%q, base %d) = (%d, %v), wanted %d", s, test.a.Len(), id, err, test.id)
		}
	}
}

func TestAlphabetDecodeInvalidSymbol(t *testing.T) {
	a36 := must(StockAlphabet(36))
	for _, s := range []string{"12a", "#", "1 2", "Z\xFF"} {
		_, err := a36.decodeValue(s)
		var se *SymbolError
		if !errors.As(err, &se) {
			t.Errorf("** decode(%q) error = %v, wanted *SymbolError", s, err)
			continue
		}
		if se.Input != s || se.Byte != s[se.Off] {
			t.Errorf("** decode(%q) reported (%q, off %d, 0x%02X)", s, se.Input, se.Off, se.Byte)
		}
	}
}

func TestAlphabetDecodeOverflow(t *testing.T) {
	a16 := must(StockAlphabet(16))
	if _, err := a16.decodeValue("FFFFFFFFFFFFFFFF"); err != nil {
		t.Errorf("** decode of max uint64 failed: %v", err)
	}
	if _, err := a16.decodeValue("10000000000000000"); !errors.Is(err, errOverflow) {
		t.Errorf("** decode of 2^64 = %v, wanted overflow", err)
	}
}

func TestAlphabetRoundTripRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for _, base := range []int{16, 36, 62, 95, 128} {
		a := must(StockAlphabet(base))
		ids := []NodeID{0, 1, NodeID(base - 1), NodeID(base), NodeID(base * base), math.MaxUint64}
		for i := 0; i < 1000; i++ {
			ids = append(ids, NodeID(rng.Uint64()))
		}
		for _, id := range ids {
			s := string(a.appendEncoded(nil, id))
			if len(s) != a.encodedLen(id) {
				t.Fatalf("** base %d: encodedLen(%d) = %d, actual %d", base, id, a.encodedLen(id), len(s))
			}
			if len(s) > 1 && s[0] == a.Zero() {
				t.Fatalf("** base %d: encode(%d) = %q has a leading zero symbol", base, id, s)
			}
			back, err := a.decodeValue(s)
			if err != nil || back != id {
				t.Fatalf("** base %d: decode(encode(%d)) = (%d, %v)", base, id, back, err)
			}
		}
	}
}
