// Package sqlite implements the document gateway on a single local file,
// for running the service without a PostgreSQL instance. Same table shape
// as the postgres driver, same in-process change hub.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/claude/fittrack/internal/store"
)

// Store is a SQLite-backed store.Gateway.
type Store struct {
	db  *sql.DB
	hub *store.Hub
}

// Open opens (or creates) the database file, creating parent directories
// and the schema as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating store dir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening store db: %w", err)
	}
	// The driver is in-process; a single connection avoids SQLITE_BUSY on
	// concurrent writers.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS documents (
		collection  TEXT NOT NULL,
		id          TEXT NOT NULL,
		data        TEXT NOT NULL,
		created_at  TIMESTAMP NOT NULL,
		updated_at  TIMESTAMP NOT NULL,
		PRIMARY KEY (collection, id)
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating documents table: %w", err)
	}

	return &Store{db: db, hub: store.NewHub()}, nil
}

func (s *Store) List(ctx context.Context, path string) ([]store.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, data FROM documents WHERE collection = ? ORDER BY created_at, id`,
		path)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", path, err)
	}
	defer rows.Close()

	var docs []store.Document
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		docs = append(docs, store.Document{ID: id, Data: json.RawMessage(data)})
	}
	return docs, rows.Err()
}

func (s *Store) Create(ctx context.Context, path string, data json.RawMessage) (string, error) {
	id := uuid.NewString()
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (collection, id, data, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		path, id, string(data), now, now)
	if err != nil {
		return "", fmt.Errorf("inserting into %s: %w", path, err)
	}
	s.hub.Notify(path)
	return id, nil
}

// Put upserts a document under a caller-chosen id.
func (s *Store) Put(ctx context.Context, path, id string, data json.RawMessage) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (collection, id, data, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (collection, id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		path, id, string(data), now, now)
	if err != nil {
		return fmt.Errorf("putting %s/%s: %w", path, id, err)
	}
	s.hub.Notify(path)
	return nil
}

func (s *Store) Update(ctx context.Context, path, id string, data json.RawMessage) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE documents SET data = ?, updated_at = ? WHERE collection = ? AND id = ?`,
		string(data), time.Now().UTC(), path, id)
	if err != nil {
		return fmt.Errorf("updating %s/%s: %w", path, id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	s.hub.Notify(path)
	return nil
}

func (s *Store) Delete(ctx context.Context, path, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = ? AND id = ?`,
		path, id)
	if err != nil {
		return fmt.Errorf("deleting %s/%s: %w", path, id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	s.hub.Notify(path)
	return nil
}

// DeleteMatching removes every matching document inside one transaction.
func (s *Store) DeleteMatching(ctx context.Context, path string, match func(store.Document) bool) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning delete transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		`SELECT id, data FROM documents WHERE collection = ?`, path)
	if err != nil {
		return 0, fmt.Errorf("selecting %s for delete: %w", path, err)
	}

	var ids []string
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scanning document: %w", err)
		}
		if match(store.Document{ID: id, Data: json.RawMessage(data)}) {
			ids = append(ids, id)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	removed := 0
	for _, id := range ids {
		res, err := tx.ExecContext(ctx,
			`DELETE FROM documents WHERE collection = ? AND id = ?`, path, id)
		if err != nil {
			return 0, fmt.Errorf("deleting from %s: %w", path, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			removed++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing delete: %w", err)
	}

	if removed > 0 {
		s.hub.Notify(path)
	}
	return removed, nil
}

func (s *Store) Subscribe(ctx context.Context, path string) (<-chan []store.Document, func(), error) {
	return s.hub.Subscribe(ctx, path, s.List)
}

func (s *Store) Close() error {
	return s.db.Close()
}

var _ store.Gateway = (*Store)(nil)
