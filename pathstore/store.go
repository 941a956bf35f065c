// Package pathstore persists materialized paths computed by package
// treepath, translating path operations into store reads and writes: point
// lookups by node id, prefix range scans (pre-order) and atomic bulk prefix
// rewrites for subtree re-parenting.
//
// The path computation layer is pure; every adapter here owns the only
// shared mutable state (the persisted path column) and guarantees that a
// bulk rewrite is all-or-nothing: a failure mid-rewrite leaves every path
// at its pre-operation value, and no reader observes a half-rewritten
// subtree.
package pathstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/andreyvit/treepath"
)

// ErrNodeNotFound is returned by Fetch and Delete when the node id has no
// persisted path.
var ErrNodeNotFound = errors.New("node not found")

// Entry is one stored (node id, path) row.
type Entry struct {
	ID   treepath.NodeID
	Path string
}

// Stats reports store-level counters, best effort.
type Stats struct {
	Nodes int
}

// Store is the boundary to the external storage engine. Implementations
// must keep scan order ascending by path bytes and execute RewritePrefix as
// one atomic unit, isolated from overlapping concurrent rewrites.
type Store interface {
	// Persist stores or replaces the path of a node.
	Persist(ctx context.Context, id treepath.NodeID, path string) error

	// Fetch returns the stored path of a node, or ErrNodeNotFound.
	Fetch(ctx context.Context, id treepath.NodeID) (string, error)

	// ScanPrefix streams every (id, path) row whose path starts with
	// prefix, ascending by path bytes (pre-order). An empty prefix scans
	// the whole store. Returning an error from fn stops the scan and
	// propagates that error.
	ScanPrefix(ctx context.Context, prefix string, fn func(Entry) error) error

	// RewritePrefix atomically replaces prefix oldPrefix with newPrefix on
	// every stored path sharing it, returning the number of rows updated.
	RewritePrefix(ctx context.Context, oldPrefix, newPrefix string) (int, error)

	// Delete removes a node's path, or returns ErrNodeNotFound.
	Delete(ctx context.Context, id treepath.NodeID) error

	Stats() Stats
	Close() error
}

// Options configures a store adapter.
type Options struct {
	// Logger receives scan/rewrite debug logging; nil disables it.
	Logger *slog.Logger

	// IsTesting trades durability for speed (Bolt: NoSync + small mmap).
	IsTesting bool

	// MmapSize overrides the initial Bolt mmap size, in bytes.
	MmapSize int
}

func (opt Options) logger() *slog.Logger {
	if opt.Logger != nil {
		return opt.Logger
	}
	return slog.New(discardHandler{})
}

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (h discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return h }
func (h discardHandler) WithGroup(string) slog.Handler           { return h }

// StoreError wraps an adapter-level transaction failure. A *StoreError from
// RewritePrefix guarantees that no partial rewrite is visible.
type StoreError struct {
	Op  string
	Err error
}

func storeErrf(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("pathstore %s: %v", e.Op, e.Err)
}

// Collect materializes a prefix scan, mostly for tests and small subtrees.
func Collect(ctx context.Context, s Store, prefix string) ([]Entry, error) {
	var entries []Entry
	err := s.ScanPrefix(ctx, prefix, func(e Entry) error {
		entries = append(entries, e)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}
