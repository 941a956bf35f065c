/*
Package treepath implements a materialized-path encoding for storing
tree-shaped data in a single flat string column.

We implement:

1. Alphabets, ordered symbol tables whose byte order matches the target
store's collation order.

2. Segment encoders, turning one node id into a compact string segment
(fixed-width or length-prefixed) that sorts like the id.

3. Path operations: building, decoding, truncating and prefix-rewriting
whole root-to-node paths.

4. Store adapters (package pathstore), translating path operations into
point lookups, prefix range scans and atomic bulk prefix rewrites.

# Technical Details

**Paths.**
A path is the concatenation of one segment per ancestor, root first:
Path(child) = Path(parent) + Segment(child). Because every segment of a
given configuration sorts byte-wise like its numeric id, sorting rows by
the path column yields pre-order traversal, and all descendants of a node
share its path as a prefix.

**Segments.**
Two encodings are supported, fixed per configuration and never mixed:

  - FixedWidth(W): exactly W symbols, left-padded with the zero symbol.
    Max id is B^W-1.
  - LengthPrefixed: one length symbol (numeral value = payload length)
    followed by that many payload symbols. Max payload length is B-1.

Both parse deterministically left to right without delimiters, so a path
splits into segments unambiguously.

**Collations.**
Byte comparison must agree with symbol order in the target store. A
case-insensitive column collapses upper and lower case, so such stores cap
the usable base at a single-case symbol set (36). Bases above a collation's
verified ceiling are rejected at configuration time rather than discovered
later through silently wrong sort order.

**Errors.**
Nothing is silently corrected: an id too large for the configured segment
fails with *CapacityError, malformed paths fail with *CorruptPathError,
and a rewrite against a path lacking the expected prefix fails with
*PrefixMismatchError. All errors carry the offending value.
*/
package treepath
