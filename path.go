package treepath

import "strings"

// Build computes the path of a node from its parent's path and its own id.
// Pass an empty parent path for a root node. The parent path is taken as-is
// (it normally comes straight from the store); only the new segment can fail,
// with *CapacityError.
func (c Config) Build(parentPath string, id NodeID) (string, error) {
	buf := make([]byte, 0, len(parentPath)+16)
	buf = append(buf, parentPath...)
	buf, err := c.strategy.appendSegment(buf, c.alphabet, id)
	if err != nil {
		return "", err
	}
	return string(buf), nil
}

// Decode splits a path into the ordered chain of node ids, root first.
// The empty path decodes to an empty chain. Trailing bytes that do not form
// a complete segment fail with *CorruptPathError; a byte outside the
// alphabet fails with *SymbolError.
func (c Config) Decode(path string) ([]NodeID, error) {
	if path == "" {
		return nil, nil
	}
	ids := make([]NodeID, 0, 8)
	for off := 0; off < len(path); {
		id, end, err := c.strategy.decodeOne(c.alphabet, path, off)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
		off = end
	}
	return ids, nil
}

// Depth returns the number of segments in the path, validating it fully.
func (c Config) Depth(path string) (int, error) {
	var n int
	for off := 0; off < len(path); {
		_, end, err := c.strategy.decodeOne(c.alphabet, path, off)
		if err != nil {
			return 0, err
		}
		n++
		off = end
	}
	return n, nil
}

// Validate checks that path is a well-formed sequence of complete segments.
func (c Config) Validate(path string) error {
	_, err := c.Depth(path)
	return err
}

// IsDescendantOf reports whether path belongs to a proper descendant of the
// node at ancestorPath. This is a segment-boundary-aware test, not a raw
// substring check: ancestorPath must end exactly on a segment boundary of
// path, and the remainder must consist of complete segments. A node is not
// its own descendant.
func (c Config) IsDescendantOf(path, ancestorPath string) (bool, error) {
	if len(path) <= len(ancestorPath) || !strings.HasPrefix(path, ancestorPath) {
		return false, nil
	}
	aligned, off, err := c.boundary(path, len(ancestorPath))
	if err != nil {
		return false, err
	}
	if !aligned {
		return false, nil
	}
	// The remainder must be at least one complete segment.
	for off < len(path) {
		_, end, err := c.strategy.decodeOne(c.alphabet, path, off)
		if err != nil {
			return false, err
		}
		off = end
	}
	return true, nil
}

// boundary walks segments of path from the start and reports whether n is a
// segment boundary; off is the first boundary >= n.
func (c Config) boundary(path string, n int) (bool, int, error) {
	off := 0
	for off < n {
		_, end, err := c.strategy.decodeOne(c.alphabet, path, off)
		if err != nil {
			return false, 0, err
		}
		off = end
	}
	return off == n, off, nil
}

// Truncate returns the ancestor path at the given depth (0 = empty path).
// It fails with *RangeError if depth exceeds the path's actual depth.
func (c Config) Truncate(path string, depth int) (string, error) {
	if depth < 0 {
		return "", &RangeError{Depth: depth}
	}
	off, n := 0, 0
	for n < depth {
		if off >= len(path) {
			return "", &RangeError{Depth: depth, Actual: n}
		}
		_, end, err := c.strategy.decodeOne(c.alphabet, path, off)
		if err != nil {
			return "", err
		}
		off = end
		n++
	}
	return path[:off], nil
}

// RewritePrefix replaces a boundary-aligned prefix of path, the primitive
// behind subtree re-parenting. It fails with *PrefixMismatchError if path
// does not start with oldPrefix on a segment boundary, and validates that
// newPrefix is itself a well-formed path.
func (c Config) RewritePrefix(path, oldPrefix, newPrefix string) (string, error) {
	if err := c.Validate(newPrefix); err != nil {
		return "", err
	}
	if !strings.HasPrefix(path, oldPrefix) {
		return "", &PrefixMismatchError{Path: path, Prefix: oldPrefix}
	}
	aligned, _, err := c.boundary(path, len(oldPrefix))
	if err != nil {
		return "", err
	}
	if !aligned {
		return "", &PrefixMismatchError{Path: path, Prefix: oldPrefix}
	}
	return newPrefix + path[len(oldPrefix):], nil
}

// PrefixSuccessor returns the smallest string that compares above every
// string starting with prefix, for use as the exclusive upper bound of a
// prefix range scan. It returns "" when no such bound exists (the scan is
// then unbounded above).
func PrefixSuccessor(prefix string) string {
	for i := len(prefix) - 1; i >= 0; i-- {
		if prefix[i] != 0xFF {
			return prefix[:i] + string(prefix[i]+1)
		}
	}
	return ""
}
