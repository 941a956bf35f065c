package pathstore

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"time"

	"go.etcd.io/bbolt"

	"github.com/andreyvit/treepath"
)

var (
	pathsBucket = []byte("paths") // path -> msgpack record
	nodesBucket = []byte("nodes") // big-endian node id -> path
)

// BoltStore keeps paths in a Bolt database: one bucket ordered by path bytes
// (so a cursor walk is a pre-order traversal) and one bucket for point
// lookups by id. Every mutation runs inside a single Update transaction,
// which is what makes RewritePrefix all-or-nothing.
type BoltStore struct {
	bdb    *bbolt.DB
	logger *slog.Logger
}

var _ Store = (*BoltStore)(nil)

// OpenBolt opens or creates a Bolt-backed path store.
func OpenBolt(file string, opt Options) (*BoltStore, error) {
	bopt := *bbolt.DefaultOptions
	bopt.Timeout = 10 * time.Second
	if opt.IsTesting {
		bopt.NoSync = true
		bopt.NoFreelistSync = true
		bopt.InitialMmapSize = 1024 * 1024 * 5
	} else {
		bopt.InitialMmapSize = 1024 * 1024 * 64
		bopt.FreelistType = bbolt.FreelistMapType
	}
	if opt.MmapSize != 0 {
		bopt.InitialMmapSize = opt.MmapSize
	}

	bdb, err := bbolt.Open(file, 0666, &bopt)
	if err != nil {
		return nil, storeErrf("open", err)
	}
	err = bdb.Update(func(btx *bbolt.Tx) error {
		if _, err := btx.CreateBucketIfNotExists(pathsBucket); err != nil {
			return err
		}
		_, err := btx.CreateBucketIfNotExists(nodesBucket)
		return err
	})
	if err != nil {
		bdb.Close()
		return nil, storeErrf("open", err)
	}
	return &BoltStore{bdb: bdb, logger: opt.logger()}, nil
}

func (s *BoltStore) Close() error {
	return s.bdb.Close()
}

func (s *BoltStore) Persist(ctx context.Context, id treepath.NodeID, path string) error {
	if err := ctx.Err(); err != nil {
		return storeErrf("persist", err)
	}
	err := s.bdb.Update(func(btx *bbolt.Tx) error {
		paths, nodes := btx.Bucket(pathsBucket), btx.Bucket(nodesBucket)
		key := nodeKey(id)

		if taken := paths.Get([]byte(path)); taken != nil {
			rec, err := decodeRecord(taken)
			if err != nil {
				return err
			}
			if rec.ID != id {
				return fmt.Errorf("path %q already taken by node %d", path, rec.ID)
			}
		}
		if old := nodes.Get(key[:]); old != nil && string(old) != path {
			if err := paths.Delete(old); err != nil {
				return err
			}
		}
		if err := paths.Put([]byte(path), encodeRecord(nil, record{ID: id})); err != nil {
			return err
		}
		return nodes.Put(key[:], []byte(path))
	})
	return storeErrf("persist", err)
}

func (s *BoltStore) Fetch(ctx context.Context, id treepath.NodeID) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", storeErrf("fetch", err)
	}
	var path string
	err := s.bdb.View(func(btx *bbolt.Tx) error {
		key := nodeKey(id)
		v := btx.Bucket(nodesBucket).Get(key[:])
		if v == nil {
			return ErrNodeNotFound
		}
		path = string(v)
		return nil
	})
	if err == ErrNodeNotFound {
		return "", err
	}
	return path, storeErrf("fetch", err)
}

func (s *BoltStore) ScanPrefix(ctx context.Context, prefix string, fn func(Entry) error) error {
	return s.bdb.View(func(btx *bbolt.Tx) error {
		c := btx.Bucket(pathsBucket).Cursor()
		p := []byte(prefix)
		for k, v := boltSeek(c, p); k != nil && bytes.HasPrefix(k, p); k, v = c.Next() {
			if err := ctx.Err(); err != nil {
				return storeErrf("scan", err)
			}
			rec, err := decodeRecord(v)
			if err != nil {
				return storeErrf("scan", err)
			}
			if err := fn(Entry{ID: rec.ID, Path: string(k)}); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BoltStore) RewritePrefix(ctx context.Context, oldPrefix, newPrefix string) (n int, err error) {
	if err := ctx.Err(); err != nil {
		return 0, storeErrf("rewrite", err)
	}
	err = s.bdb.Update(func(btx *bbolt.Tx) error {
		paths, nodes := btx.Bucket(pathsBucket), btx.Bucket(nodesBucket)

		// Collect the subtree first; mutating under a live cursor is not
		// allowed.
		type row struct {
			oldKey []byte
			value  []byte
		}
		var rows []row
		c := paths.Cursor()
		p := []byte(oldPrefix)
		for k, v := boltSeek(c, p); k != nil && bytes.HasPrefix(k, p); k, v = c.Next() {
			rows = append(rows, row{bytes.Clone(k), bytes.Clone(v)})
		}

		for _, r := range rows {
			rec, err := decodeRecord(r.value)
			if err != nil {
				return err
			}
			newKey := append([]byte(newPrefix), r.oldKey[len(oldPrefix):]...)
			if err := paths.Delete(r.oldKey); err != nil {
				return err
			}
			if err := paths.Put(newKey, r.value); err != nil {
				return err
			}
			key := nodeKey(rec.ID)
			if err := nodes.Put(key[:], newKey); err != nil {
				return err
			}
		}
		n = len(rows)
		s.logger.Debug("rewrote prefix", "old", oldPrefix, "new", newPrefix, "rows", n)
		return nil
	})
	if err != nil {
		return 0, storeErrf("rewrite", err)
	}
	return n, nil
}

func (s *BoltStore) Delete(ctx context.Context, id treepath.NodeID) error {
	if err := ctx.Err(); err != nil {
		return storeErrf("delete", err)
	}
	err := s.bdb.Update(func(btx *bbolt.Tx) error {
		key := nodeKey(id)
		nodes := btx.Bucket(nodesBucket)
		path := nodes.Get(key[:])
		if path == nil {
			return ErrNodeNotFound
		}
		if err := btx.Bucket(pathsBucket).Delete(path); err != nil {
			return err
		}
		return nodes.Delete(key[:])
	})
	if err == ErrNodeNotFound {
		return err
	}
	return storeErrf("delete", err)
}

func (s *BoltStore) Stats() Stats {
	var st Stats
	s.bdb.View(func(btx *bbolt.Tx) error {
		st.Nodes = btx.Bucket(pathsBucket).Stats().KeyN
		return nil
	})
	return st
}

func nodeKey(id treepath.NodeID) [8]byte {
	var key [8]byte
	binary.BigEndian.PutUint64(key[:], uint64(id))
	return key
}

func boltSeek(c *bbolt.Cursor, prefix []byte) ([]byte, []byte) {
	if len(prefix) == 0 {
		return c.First()
	}
	return c.Seek(prefix)
}
