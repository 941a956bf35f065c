package pathstore

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/andreyvit/treepath"
)

func setupHierarchy(t testing.TB) *Hierarchy {
	t.Helper()
	s := NewMemStore()
	t.Cleanup(func() { s.Close() })
	return NewHierarchy(testConfig, s, Options{})
}

// buildOrgTree creates:
//
//	100
//	├── 200
//	│   ├── 400
//	│   └── 500
//	└── 300
//	101
func buildOrgTree(t testing.TB, h *Hierarchy) {
	t.Helper()
	ctx := context.Background()
	if _, err := h.CreateRoot(ctx, 100); err != nil {
		t.Fatalf("** CreateRoot(100): %v", err)
	}
	if _, err := h.CreateRoot(ctx, 101); err != nil {
		t.Fatalf("** CreateRoot(101): %v", err)
	}
	for _, link := range [][2]treepath.NodeID{{100, 200}, {100, 300}, {200, 400}, {200, 500}} {
		if _, err := h.CreateNode(ctx, link[0], link[1]); err != nil {
			t.Fatalf("** CreateNode(%d, %d): %v", link[0], link[1], err)
		}
	}
}

func TestHierarchyCreateAndInspect(t *testing.T) {
	ctx := context.Background()
	h := setupHierarchy(t)
	buildOrgTree(t, h)

	path, err := h.PathOf(ctx, 400)
	if err != nil {
		t.Fatal(err)
	}
	ids, err := h.Ancestors(ctx, 400)
	if err != nil || !reflect.DeepEqual(ids, []treepath.NodeID{100, 200, 400}) {
		t.Errorf("** Ancestors(400) = (%v, %v), wanted [100 200 400]", ids, err)
	}
	if d, err := h.DepthOf(ctx, 400); err != nil || d != 3 {
		t.Errorf("** DepthOf(400) = (%d, %v), wanted 3", d, err)
	}
	if d, err := h.DepthOf(ctx, 100); err != nil || d != 1 {
		t.Errorf("** DepthOf(100) = (%d, %v), wanted 1", d, err)
	}
	if ok, err := testConfig.IsDescendantOf(path, mustFetch(t, h, 100)); err != nil || !ok {
		t.Errorf("** 400 not seen as descendant of 100: (%v, %v)", ok, err)
	}

	if _, err := h.CreateNode(ctx, 999, 600); err != ErrNodeNotFound {
		t.Errorf("** CreateNode under missing parent = %v, wanted ErrNodeNotFound", err)
	}
}

func TestHierarchyChildrenAndDescendants(t *testing.T) {
	ctx := context.Background()
	h := setupHierarchy(t)
	buildOrgTree(t, h)

	children, err := h.Children(ctx, 100)
	if err != nil || !reflect.DeepEqual(entryIDs(children), []treepath.NodeID{200, 300}) {
		t.Errorf("** Children(100) = (%v, %v), wanted [200 300]", entryIDs(children), err)
	}

	var desc []treepath.NodeID
	err = h.Descendants(ctx, 100, func(e Entry) error {
		desc = append(desc, e.ID)
		return nil
	})
	if err != nil || !reflect.DeepEqual(desc, []treepath.NodeID{200, 400, 500, 300}) {
		t.Errorf("** Descendants(100) = (%v, %v), wanted pre-order [200 400 500 300]", desc, err)
	}

	roots, err := h.Roots(ctx)
	if err != nil || !reflect.DeepEqual(entryIDs(roots), []treepath.NodeID{100, 101}) {
		t.Errorf("** Roots() = (%v, %v), wanted [100 101]", entryIDs(roots), err)
	}
}

func TestHierarchyReparent(t *testing.T) {
	ctx := context.Background()
	h := setupHierarchy(t)
	buildOrgTree(t, h)

	// Move 200's subtree (200, 400, 500) under 101.
	n, err := h.Reparent(ctx, 200, 101)
	if err != nil || n != 3 {
		t.Fatalf("** Reparent(200 -> 101) = (%d, %v), wanted 3 rows", n, err)
	}

	ids, err := h.Ancestors(ctx, 400)
	if err != nil || !reflect.DeepEqual(ids, []treepath.NodeID{101, 200, 400}) {
		t.Errorf("** Ancestors(400) after move = (%v, %v), wanted [101 200 400]", ids, err)
	}
	children, err := h.Children(ctx, 100)
	if err != nil || !reflect.DeepEqual(entryIDs(children), []treepath.NodeID{300}) {
		t.Errorf("** Children(100) after move = (%v, %v), wanted [300]", entryIDs(children), err)
	}

	// And back out to the top level.
	n, err = h.ReparentToRoot(ctx, 200)
	if err != nil || n != 3 {
		t.Fatalf("** ReparentToRoot(200) = (%d, %v), wanted 3 rows", n, err)
	}
	if d, err := h.DepthOf(ctx, 400); err != nil || d != 2 {
		t.Errorf("** DepthOf(400) = (%d, %v), wanted 2", d, err)
	}
}

func TestHierarchyReparentRejectsCycles(t *testing.T) {
	ctx := context.Background()
	h := setupHierarchy(t)
	buildOrgTree(t, h)

	if _, err := h.Reparent(ctx, 100, 100); err == nil || !strings.Contains(err.Error(), "under itself") {
		t.Errorf("** Reparent(100 -> 100) = %v, wanted self-move rejection", err)
	}
	if _, err := h.Reparent(ctx, 100, 400); err == nil || !strings.Contains(err.Error(), "descendant") {
		t.Errorf("** Reparent(100 -> 400) = %v, wanted cycle rejection", err)
	}

	// Both rejections must happen before any store mutation.
	ids, err := h.Ancestors(ctx, 400)
	if err != nil || !reflect.DeepEqual(ids, []treepath.NodeID{100, 200, 400}) {
		t.Errorf("** tree changed by rejected reparent: (%v, %v)", ids, err)
	}
}

func TestHierarchyReparentFailureIsAtomic(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	defer s.Close()
	h := NewHierarchy(testConfig, s, Options{})
	buildOrgTree(t, h)

	before, err := Collect(ctx, s, "")
	if err != nil {
		t.Fatal(err)
	}

	s.failRewriteAfter = 1
	_, err = h.Reparent(ctx, 200, 101)
	var se *StoreError
	if !errors.As(err, &se) {
		t.Fatalf("** Reparent with injected failure = %v, wanted *StoreError", err)
	}

	after, err := Collect(ctx, s, "")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(before, after) {
		t.Errorf("** half-rewritten subtree visible after failed reparent:\nbefore %v\nafter  %v", before, after)
	}
}

func mustFetch(t testing.TB, h *Hierarchy, id treepath.NodeID) string {
	t.Helper()
	path, err := h.PathOf(context.Background(), id)
	if err != nil {
		t.Fatalf("** PathOf(%d): %v", id, err)
	}
	return path
}
