package pathstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/andreyvit/treepath"
)

// MemStore is a transient in-memory Store intended for tests. Writers are
// serialized, and RewritePrefix mutates a snapshot that is swapped in only
// on success, so a mid-rewrite failure leaves the pre-operation state
// intact, same as the transactional backends.
type MemStore struct {
	mu     sync.Mutex
	cond   *sync.Cond
	byPath map[string]treepath.NodeID
	byID   map[treepath.NodeID]string
	closed bool
	writer bool

	// failRewriteAfter injects a failure after that many row updates of the
	// next RewritePrefix; negative means disabled.
	failRewriteAfter int
}

var _ Store = (*MemStore)(nil)

func NewMemStore() *MemStore {
	s := &MemStore{
		byPath:           make(map[string]treepath.NodeID),
		byID:             make(map[treepath.NodeID]string),
		failRewriteAfter: -1,
	}
	s.cond = sync.NewCond(&s.mu)
	return s
}

func (s *MemStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.cond.Broadcast()
	return nil
}

// beginWrite blocks until this goroutine is the only writer.
func (s *MemStore) beginWrite() error {
	s.mu.Lock()
	for s.writer && !s.closed {
		s.cond.Wait()
	}
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("store closed")
	}
	s.writer = true
	s.mu.Unlock()
	return nil
}

func (s *MemStore) endWrite() {
	s.mu.Lock()
	s.writer = false
	s.cond.Broadcast()
	s.mu.Unlock()
}

func (s *MemStore) Persist(ctx context.Context, id treepath.NodeID, path string) error {
	if err := ctx.Err(); err != nil {
		return storeErrf("persist", err)
	}
	if err := s.beginWrite(); err != nil {
		return storeErrf("persist", err)
	}
	defer s.endWrite()
	s.mu.Lock()
	defer s.mu.Unlock()
	if taken, ok := s.byPath[path]; ok && taken != id {
		return storeErrf("persist", fmt.Errorf("path %q already taken by node %d", path, taken))
	}
	if old, ok := s.byID[id]; ok && old != path {
		delete(s.byPath, old)
	}
	s.byPath[path] = id
	s.byID[id] = path
	return nil
}

func (s *MemStore) Fetch(ctx context.Context, id treepath.NodeID) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", storeErrf("fetch", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	path, ok := s.byID[id]
	if !ok {
		return "", ErrNodeNotFound
	}
	return path, nil
}

func (s *MemStore) ScanPrefix(ctx context.Context, prefix string, fn func(Entry) error) error {
	// Snapshot under the lock, yield outside it, so fn may call back into
	// the store.
	s.mu.Lock()
	entries := make([]Entry, 0, len(s.byPath))
	for path, id := range s.byPath {
		if strings.HasPrefix(path, prefix) {
			entries = append(entries, Entry{ID: id, Path: path})
		}
	}
	s.mu.Unlock()
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return storeErrf("scan", err)
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	return nil
}

func (s *MemStore) RewritePrefix(ctx context.Context, oldPrefix, newPrefix string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, storeErrf("rewrite", err)
	}
	if err := s.beginWrite(); err != nil {
		return 0, storeErrf("rewrite", err)
	}
	defer s.endWrite()

	s.mu.Lock()
	byPath := make(map[string]treepath.NodeID, len(s.byPath))
	byID := make(map[treepath.NodeID]string, len(s.byID))
	for path, id := range s.byPath {
		byPath[path] = id
	}
	for id, path := range s.byID {
		byID[id] = path
	}
	failAfter := s.failRewriteAfter
	s.failRewriteAfter = -1
	s.mu.Unlock()

	// Mutate the snapshot only; the live maps stay untouched until commit.
	var n int
	for path, id := range s.byPath {
		if !strings.HasPrefix(path, oldPrefix) {
			continue
		}
		if failAfter >= 0 && n >= failAfter {
			return 0, storeErrf("rewrite", fmt.Errorf("injected failure after %d rows", n))
		}
		newPath := newPrefix + path[len(oldPrefix):]
		delete(byPath, path)
		byPath[newPath] = id
		byID[id] = newPath
		n++
	}

	s.mu.Lock()
	s.byPath, s.byID = byPath, byID
	s.mu.Unlock()
	return n, nil
}

func (s *MemStore) Delete(ctx context.Context, id treepath.NodeID) error {
	if err := ctx.Err(); err != nil {
		return storeErrf("delete", err)
	}
	if err := s.beginWrite(); err != nil {
		return storeErrf("delete", err)
	}
	defer s.endWrite()
	s.mu.Lock()
	defer s.mu.Unlock()
	path, ok := s.byID[id]
	if !ok {
		return ErrNodeNotFound
	}
	delete(s.byID, id)
	delete(s.byPath, path)
	return nil
}

func (s *MemStore) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{Nodes: len(s.byPath)}
}
