package treepath

import (
	"errors"
	"fmt"
)

// errOverflow is an internal marker for a decoded value exceeding 64 bits;
// it always surfaces wrapped in a *CorruptPathError.
var errOverflow = errors.New("value overflows 64 bits")

// ConfigError reports an unusable alphabet/base/strategy/collation pairing.
// It is always raised at configuration construction time, never during
// encoding.
type ConfigError struct {
	Msg string
}

func configErrf(format string, args ...any) error {
	return &ConfigError{Msg: fmt.Sprintf(format, args...)}
}

func (e *ConfigError) Error() string {
	return "treepath config: " + e.Msg
}

// CapacityError reports an id that does not fit the configured segment
// encoding. Overflowing ids are never truncated.
type CapacityError struct {
	ID       NodeID
	Base     int
	Width    int // 0 for LengthPrefixed
	MaxValue NodeID
}

func (e *CapacityError) Error() string {
	if e.Width > 0 {
		return fmt.Sprintf("id %d exceeds capacity of a fixed-width segment (base %d, width %d, max %d)", e.ID, e.Base, e.Width, e.MaxValue)
	}
	return fmt.Sprintf("id %d exceeds capacity of a length-prefixed segment (base %d, max %d)", e.ID, e.Base, e.MaxValue)
}

// SymbolError reports a byte outside the alphabet encountered during decode.
type SymbolError struct {
	Input string
	Off   int
	Byte  byte
}

func (e *SymbolError) Error() string {
	return fmt.Sprintf("invalid symbol 0x%02X at offset %d in %q", e.Byte, e.Off, trimValue(e.Input))
}

// CorruptPathError reports a malformed or truncated path: trailing bytes
// that do not form a complete segment, or a segment whose value cannot be
// represented. Malformed paths are never best-effort-decoded.
type CorruptPathError struct {
	Path string
	Off  int
	Err  error
	Msg  string
}

func corruptPathf(path string, off int, err error, format string, args ...any) error {
	return &CorruptPathError{Path: path, Off: off, Err: err, Msg: fmt.Sprintf(format, args...)}
}

func (e *CorruptPathError) Unwrap() error {
	return e.Err
}

func (e *CorruptPathError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("corrupt path %q at offset %d: %s: %v", trimValue(e.Path), e.Off, e.Msg, e.Err)
	}
	return fmt.Sprintf("corrupt path %q at offset %d: %s", trimValue(e.Path), e.Off, e.Msg)
}

// PrefixMismatchError reports a prefix rewrite against a path that does not
// start with the expected prefix on a segment boundary.
type PrefixMismatchError struct {
	Path   string
	Prefix string
}

func (e *PrefixMismatchError) Error() string {
	return fmt.Sprintf("path %q does not start with prefix %q on a segment boundary", trimValue(e.Path), trimValue(e.Prefix))
}

// RangeError reports a truncation depth beyond the path's actual depth.
type RangeError struct {
	Depth  int
	Actual int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("depth %d out of range for path of depth %d", e.Depth, e.Actual)
}

// trimValue keeps error messages readable when the offending value is long.
func trimValue(s string) string {
	const prefixLen, suffixLen = 48, 16
	if len(s) <= prefixLen+suffixLen {
		return s
	}
	return fmt.Sprintf("%s...%s (%d bytes)", s[:prefixLen], s[len(s)-suffixLen:], len(s))
}
