package pathstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"

	"github.com/andreyvit/treepath"
)

// SQLiteStore keeps paths in a relational table, using exactly the query
// forms a SQL store offers for materialized paths: point lookup by id,
// `path >= ?1 AND path < ?2` range scans against the BINARY-collated path
// column, and a bulk substr() prefix rewrite inside one transaction.
//
// Paths must stay within single-byte printable symbols here (stock
// alphabets up to base 95): SQLite's substr() and length() count characters,
// not bytes. Use BoltStore for the base-128 alphabet.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens or creates a SQLite-backed path store. Use ":memory:"
// for a transient store.
func OpenSQLite(file string, opt Options) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", file)
	if err != nil {
		return nil, storeErrf("open", err)
	}
	// The bulk rewrite is a read-modify-write over many rows; a single
	// writer connection sidesteps SQLITE_BUSY dances.
	db.SetMaxOpenConns(1)
	if !opt.IsTesting {
		if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
			db.Close()
			return nil, storeErrf("open", err)
		}
	}
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS nodes (
			id   INTEGER PRIMARY KEY,
			path TEXT NOT NULL UNIQUE COLLATE BINARY
		)`)
	if err != nil {
		db.Close()
		return nil, storeErrf("open", err)
	}
	return &SQLiteStore{db: db, logger: opt.logger()}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Persist(ctx context.Context, id treepath.NodeID, path string) error {
	var taken int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM nodes WHERE path = ?1 AND id <> ?2`, path, int64(id)).Scan(&taken)
	if err == nil {
		return storeErrf("persist", fmt.Errorf("path %q already taken by node %d", path, taken))
	} else if err != sql.ErrNoRows {
		return storeErrf("persist", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO nodes (id, path) VALUES (?1, ?2)
		ON CONFLICT (id) DO UPDATE SET path = excluded.path`,
		int64(id), path)
	return storeErrf("persist", err)
}

func (s *SQLiteStore) Fetch(ctx context.Context, id treepath.NodeID) (string, error) {
	var path string
	err := s.db.QueryRowContext(ctx, `SELECT path FROM nodes WHERE id = ?1`, int64(id)).Scan(&path)
	if err == sql.ErrNoRows {
		return "", ErrNodeNotFound
	}
	return path, storeErrf("fetch", err)
}

func (s *SQLiteStore) ScanPrefix(ctx context.Context, prefix string, fn func(Entry) error) error {
	rows, err := s.queryPrefix(ctx, prefix)
	if err != nil {
		return storeErrf("scan", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		var path string
		if err := rows.Scan(&id, &path); err != nil {
			return storeErrf("scan", err)
		}
		if err := fn(Entry{ID: treepath.NodeID(id), Path: path}); err != nil {
			return err
		}
	}
	return storeErrf("scan", rows.Err())
}

func (s *SQLiteStore) queryPrefix(ctx context.Context, prefix string) (*sql.Rows, error) {
	upper := treepath.PrefixSuccessor(prefix)
	if upper == "" {
		return s.db.QueryContext(ctx, `
			SELECT id, path FROM nodes WHERE path >= ?1 ORDER BY path`, prefix)
	}
	return s.db.QueryContext(ctx, `
		SELECT id, path FROM nodes WHERE path >= ?1 AND path < ?2 ORDER BY path`, prefix, upper)
}

func (s *SQLiteStore) RewritePrefix(ctx context.Context, oldPrefix, newPrefix string) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, storeErrf("rewrite", err)
	}
	defer tx.Rollback()

	var res sql.Result
	upper := treepath.PrefixSuccessor(oldPrefix)
	if upper == "" {
		res, err = tx.ExecContext(ctx, `
			UPDATE nodes SET path = ?1 || substr(path, length(?2) + 1)
			WHERE path >= ?2`,
			newPrefix, oldPrefix)
	} else {
		res, err = tx.ExecContext(ctx, `
			UPDATE nodes SET path = ?1 || substr(path, length(?2) + 1)
			WHERE path >= ?2 AND path < ?3`,
			newPrefix, oldPrefix, upper)
	}
	if err != nil {
		return 0, storeErrf("rewrite", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storeErrf("rewrite", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, storeErrf("rewrite", err)
	}
	s.logger.Debug("rewrote prefix", "old", oldPrefix, "new", newPrefix, "rows", n)
	return int(n), nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id treepath.NodeID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM nodes WHERE id = ?1`, int64(id))
	if err != nil {
		return storeErrf("delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storeErrf("delete", err)
	}
	if n == 0 {
		return ErrNodeNotFound
	}
	return nil
}

func (s *SQLiteStore) Stats() Stats {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM nodes`).Scan(&n)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return Stats{}
	}
	return Stats{Nodes: n}
}
