package treepath

import "fmt"

// Collation describes the string comparison rule of the target store's path
// column. MaxBase is the highest base empirically verified to sort correctly
// under that rule; configurations requesting a higher base are rejected up
// front instead of producing silently wrong sort order later.
type Collation struct {
	Name          string
	CaseSensitive bool
	MaxBase       int
}

var (
	// CollationBinary matches stores comparing paths byte by byte
	// (BINARY/utf8_bin columns, Bolt keys). Verified up to the largest
	// alphabet shipped with this package.
	CollationBinary = Collation{Name: "binary", CaseSensitive: true, MaxBase: 128}

	// CollationCaseInsensitive matches stores that collapse letter case.
	// Capped at base 36: a mixed-case alphabet would make distinct symbols
	// compare equal.
	CollationCaseInsensitive = Collation{Name: "nocase", CaseSensitive: false, MaxBase: 36}
)

// Config is the full, immutable encoding configuration: alphabet, segment
// strategy and collation. It is fixed for a dataset's lifetime (changing it
// requires re-encoding every stored path), but multiple configurations may
// coexist in one process, e.g. during a migration.
type Config struct {
	alphabet  Alphabet
	strategy  Strategy
	collation Collation
}

// NewConfig validates the alphabet/strategy/collation pairing and returns
// the configuration. All safety checks happen here; encoding operations
// assume a valid Config.
func NewConfig(alphabet Alphabet, strategy Strategy, collation Collation) (Config, error) {
	if alphabet.values == nil {
		return Config{}, configErrf("alphabet is not initialized, use NewAlphabet or StockAlphabet")
	}
	if strategy == nil {
		return Config{}, configErrf("strategy is required")
	}
	if err := strategy.validate(alphabet.Len()); err != nil {
		return Config{}, err
	}
	if collation.MaxBase < 2 {
		return Config{}, configErrf("collation %q has no verified base ceiling", collation.Name)
	}
	if alphabet.Len() > collation.MaxBase {
		return Config{}, configErrf("base %d exceeds the highest base verified safe under collation %q (%d); run a collation conformance check before raising the ceiling", alphabet.Len(), collation.Name, collation.MaxBase)
	}
	if !collation.CaseSensitive && alphabet.mixesCase() {
		return Config{}, configErrf("alphabet mixes letter case, which collides under case-insensitive collation %q", collation.Name)
	}
	return Config{alphabet: alphabet, strategy: strategy, collation: collation}, nil
}

// MustConfig is NewConfig for statically known configurations.
func MustConfig(alphabet Alphabet, strategy Strategy, collation Collation) Config {
	cfg, err := NewConfig(alphabet, strategy, collation)
	if err != nil {
		panic(err)
	}
	return cfg
}

// Base returns the alphabet size B.
func (c Config) Base() int {
	return c.alphabet.Len()
}

// Alphabet returns the configured alphabet.
func (c Config) Alphabet() Alphabet {
	return c.alphabet
}

// MaxID returns the largest id the configured segment encoding accepts.
func (c Config) MaxID() NodeID {
	return c.strategy.maxValue(c.alphabet.Len())
}

// EncodeSegment encodes a single id into its path segment.
func (c Config) EncodeSegment(id NodeID) (string, error) {
	buf, err := c.strategy.appendSegment(nil, c.alphabet, id)
	if err != nil {
		return "", err
	}
	return string(buf), nil
}

// AppendSegment appends the segment for id to buf.
func (c Config) AppendSegment(buf []byte, id NodeID) ([]byte, error) {
	return c.strategy.appendSegment(buf, c.alphabet, id)
}

// DecodeOne consumes exactly one segment from the front of tail, returning
// the decoded id and the remainder.
func (c Config) DecodeOne(tail string) (NodeID, string, error) {
	id, end, err := c.strategy.decodeOne(c.alphabet, tail, 0)
	if err != nil {
		return 0, "", err
	}
	return id, tail[end:], nil
}

func (c Config) String() string {
	return fmt.Sprintf("Config(base %d, %v, %s)", c.alphabet.Len(), c.strategy, c.collation.Name)
}
