// Package postgres implements the document gateway on PostgreSQL: one
// JSONB table keyed by (collection, id). Change notifications fan out
// through an in-process hub; the service runs as a single instance.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/claude/fittrack/internal/store"
)

// Store is a PostgreSQL-backed store.Gateway.
type Store struct {
	pool *pgxpool.Pool
	hub  *store.Hub
}

// Open connects a pool and verifies the database is reachable.
func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &Store{pool: pool, hub: store.NewHub()}, nil
}

// RunMigrations applies all pending migrations from the given directory.
func RunMigrations(dsn, migrationsPath string) error {
	m, err := migrate.New("file://"+migrationsPath, dsn)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

func (s *Store) List(ctx context.Context, path string) ([]store.Document, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, data FROM documents WHERE collection = $1 ORDER BY created_at, id`,
		path)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", path, err)
	}
	defer rows.Close()

	var docs []store.Document
	for rows.Next() {
		var d store.Document
		if err := rows.Scan(&d.ID, (*[]byte)(&d.Data)); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (s *Store) Create(ctx context.Context, path string, data json.RawMessage) (string, error) {
	id := uuid.NewString()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3)`,
		path, id, []byte(data))
	if err != nil {
		return "", fmt.Errorf("inserting into %s: %w", path, err)
	}
	s.hub.Notify(path)
	return id, nil
}

// Put upserts a document under a caller-chosen id.
func (s *Store) Put(ctx context.Context, path, id string, data json.RawMessage) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3)
		 ON CONFLICT (collection, id) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()`,
		path, id, []byte(data))
	if err != nil {
		return fmt.Errorf("putting %s/%s: %w", path, id, err)
	}
	s.hub.Notify(path)
	return nil
}

func (s *Store) Update(ctx context.Context, path, id string, data json.RawMessage) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE documents SET data = $3, updated_at = NOW() WHERE collection = $1 AND id = $2`,
		path, id, []byte(data))
	if err != nil {
		return fmt.Errorf("updating %s/%s: %w", path, id, err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	s.hub.Notify(path)
	return nil
}

func (s *Store) Delete(ctx context.Context, path, id string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM documents WHERE collection = $1 AND id = $2`,
		path, id)
	if err != nil {
		return fmt.Errorf("deleting %s/%s: %w", path, id, err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	s.hub.Notify(path)
	return nil
}

// DeleteMatching removes every matching document inside one transaction;
// either the whole set goes or none of it does.
func (s *Store) DeleteMatching(ctx context.Context, path string, match func(store.Document) bool) (int, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, fmt.Errorf("beginning delete transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx,
		`SELECT id, data FROM documents WHERE collection = $1 FOR UPDATE`,
		path)
	if err != nil {
		return 0, fmt.Errorf("selecting %s for delete: %w", path, err)
	}

	var ids []string
	for rows.Next() {
		var d store.Document
		if err := rows.Scan(&d.ID, (*[]byte)(&d.Data)); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scanning document: %w", err)
		}
		if match(d) {
			ids = append(ids, d.ID)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	tag, err := tx.Exec(ctx,
		`DELETE FROM documents WHERE collection = $1 AND id = ANY($2)`,
		path, ids)
	if err != nil {
		return 0, fmt.Errorf("deleting from %s: %w", path, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("committing delete: %w", err)
	}

	s.hub.Notify(path)
	return int(tag.RowsAffected()), nil
}

func (s *Store) Subscribe(ctx context.Context, path string) (<-chan []store.Document, func(), error) {
	return s.hub.Subscribe(ctx, path, s.List)
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

var _ store.Gateway = (*Store)(nil)
