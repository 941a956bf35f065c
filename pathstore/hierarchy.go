package pathstore

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/andreyvit/treepath"
)

// Hierarchy ties a path encoding configuration to a store, implementing the
// whole-tree operations: on node creation it computes
// parentPath + Segment(ownId) and persists it; on re-parenting it computes
// the new prefix and delegates to one atomic bulk rewrite.
type Hierarchy struct {
	cfg    treepath.Config
	store  Store
	logger *slog.Logger
}

func NewHierarchy(cfg treepath.Config, store Store, opt Options) *Hierarchy {
	return &Hierarchy{cfg: cfg, store: store, logger: opt.logger()}
}

// Config returns the encoding configuration, fixed for the dataset's
// lifetime.
func (h *Hierarchy) Config() treepath.Config {
	return h.cfg
}

// CreateRoot persists a new root node.
func (h *Hierarchy) CreateRoot(ctx context.Context, id treepath.NodeID) (string, error) {
	return h.create(ctx, "", id)
}

// CreateNode persists a new node under the given parent.
func (h *Hierarchy) CreateNode(ctx context.Context, parentID, id treepath.NodeID) (string, error) {
	parentPath, err := h.store.Fetch(ctx, parentID)
	if err != nil {
		return "", err
	}
	return h.create(ctx, parentPath, id)
}

func (h *Hierarchy) create(ctx context.Context, parentPath string, id treepath.NodeID) (string, error) {
	path, err := h.cfg.Build(parentPath, id)
	if err != nil {
		return "", err
	}
	if err := h.store.Persist(ctx, id, path); err != nil {
		return "", err
	}
	return path, nil
}

// PathOf returns the stored path of a node.
func (h *Hierarchy) PathOf(ctx context.Context, id treepath.NodeID) (string, error) {
	return h.store.Fetch(ctx, id)
}

// DepthOf returns the node's depth (1 for roots).
func (h *Hierarchy) DepthOf(ctx context.Context, id treepath.NodeID) (int, error) {
	path, err := h.store.Fetch(ctx, id)
	if err != nil {
		return 0, err
	}
	return h.cfg.Depth(path)
}

// Ancestors returns the chain of ancestor ids from the root down to the
// node itself.
func (h *Hierarchy) Ancestors(ctx context.Context, id treepath.NodeID) ([]treepath.NodeID, error) {
	path, err := h.store.Fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	return h.cfg.Decode(path)
}

// Descendants streams the subtree below the node in pre-order, excluding
// the node itself.
func (h *Hierarchy) Descendants(ctx context.Context, id treepath.NodeID, fn func(Entry) error) error {
	path, err := h.store.Fetch(ctx, id)
	if err != nil {
		return err
	}
	return h.store.ScanPrefix(ctx, path, func(e Entry) error {
		if e.Path == path {
			return nil
		}
		return fn(e)
	})
}

// Children returns the direct children of the node, ordered by encoded
// segment (numeric id order within siblings).
func (h *Hierarchy) Children(ctx context.Context, id treepath.NodeID) ([]Entry, error) {
	path, err := h.store.Fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	depth, err := h.cfg.Depth(path)
	if err != nil {
		return nil, err
	}
	var children []Entry
	err = h.store.ScanPrefix(ctx, path, func(e Entry) error {
		d, err := h.cfg.Depth(e.Path)
		if err != nil {
			return err
		}
		if d == depth+1 {
			children = append(children, e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return children, nil
}

// Roots returns the top-level nodes.
func (h *Hierarchy) Roots(ctx context.Context) ([]Entry, error) {
	var roots []Entry
	err := h.store.ScanPrefix(ctx, "", func(e Entry) error {
		d, err := h.cfg.Depth(e.Path)
		if err != nil {
			return err
		}
		if d == 1 {
			roots = append(roots, e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return roots, nil
}

// Reparent moves the subtree rooted at id under newParentID, atomically
// rewriting the prefix of every path in the subtree (the node's own
// included). It refuses to move a node under itself or under one of its
// descendants, which would corrupt every path in the subtree.
func (h *Hierarchy) Reparent(ctx context.Context, id, newParentID treepath.NodeID) (int, error) {
	newParentPath, err := h.store.Fetch(ctx, newParentID)
	if err != nil {
		return 0, err
	}
	return h.reparent(ctx, id, newParentPath)
}

// ReparentToRoot makes the subtree rooted at id a top-level tree.
func (h *Hierarchy) ReparentToRoot(ctx context.Context, id treepath.NodeID) (int, error) {
	return h.reparent(ctx, id, "")
}

func (h *Hierarchy) reparent(ctx context.Context, id treepath.NodeID, newParentPath string) (int, error) {
	oldPath, err := h.store.Fetch(ctx, id)
	if err != nil {
		return 0, err
	}
	if newParentPath == oldPath {
		return 0, fmt.Errorf("cannot move node %d under itself", id)
	}
	if inside, err := h.cfg.IsDescendantOf(newParentPath, oldPath); err != nil {
		return 0, err
	} else if inside {
		return 0, fmt.Errorf("cannot move node %d under its own descendant", id)
	}

	depth, err := h.cfg.Depth(oldPath)
	if err != nil {
		return 0, err
	}
	parentPath, err := h.cfg.Truncate(oldPath, depth-1)
	if err != nil {
		return 0, err
	}
	ownSegment := oldPath[len(parentPath):]
	newPath := newParentPath + ownSegment
	if newPath == oldPath {
		return 0, nil // already there
	}

	n, err := h.store.RewritePrefix(ctx, oldPath, newPath)
	if err != nil {
		return 0, err
	}
	h.logger.Debug("reparented subtree", "node", id, "old", oldPath, "new", newPath, "rows", n)
	return n, nil
}
