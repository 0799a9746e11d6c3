// Package postgres stores records as JSONB documents, one table per entity kind,
// keyed by id.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"medtransit/internal/storage"
	"medtransit/pkg/platform/sentinel"
	txcontext "medtransit/pkg/platform/tx"
)

// Store implements storage.Store over a single table.
type Store[K ~string, V any] struct {
	db    *sql.DB
	table string

	createSQL string
	getSQL    string
	putSQL    string
	existsSQL string
}

// New builds a store over table. The name is quoted, so any kind label is safe.
func New[K ~string, V any](db *sql.DB, table string) *Store[K, V] {
	q := pq.QuoteIdentifier(table)
	return &Store[K, V]{
		db:    db,
		table: table,
		createSQL: `CREATE TABLE IF NOT EXISTS ` + q + ` (
			id         TEXT PRIMARY KEY,
			body       JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		getSQL: `SELECT body FROM ` + q + ` WHERE id = $1`,
		putSQL: `INSERT INTO ` + q + ` (id, body, updated_at) VALUES ($1, $2, now())
			ON CONFLICT (id) DO UPDATE SET body = EXCLUDED.body, updated_at = EXCLUDED.updated_at`,
		existsSQL: `SELECT EXISTS (SELECT 1 FROM ` + q + ` WHERE id = $1)`,
	}
}

// EnsureSchema creates the table if it is missing.
func (s *Store[K, V]) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.createSQL); err != nil {
		return fmt.Errorf("create table %s: %w", s.table, err)
	}
	return nil
}

func (s *Store[K, V]) Get(ctx context.Context, id K) (V, error) {
	var zero V
	var body []byte
	err := txcontext.ExecutorFrom(ctx, s.db).QueryRowContext(ctx, s.getSQL, string(id)).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return zero, fmt.Errorf("%s %q: %w", s.table, string(id), sentinel.ErrNotFound)
		}
		return zero, fmt.Errorf("get %s: %w", s.table, err)
	}
	var v V
	if err := json.Unmarshal(body, &v); err != nil {
		return zero, fmt.Errorf("decode %s: %w", s.table, err)
	}
	return v, nil
}

func (s *Store[K, V]) Put(ctx context.Context, id K, value V) error {
	body, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", s.table, err)
	}
	if _, err := txcontext.ExecutorFrom(ctx, s.db).ExecContext(ctx, s.putSQL, string(id), body); err != nil {
		return fmt.Errorf("put %s: %w", s.table, err)
	}
	return nil
}

func (s *Store[K, V]) Exists(ctx context.Context, id K) (bool, error) {
	var exists bool
	if err := txcontext.ExecutorFrom(ctx, s.db).QueryRowContext(ctx, s.existsSQL, string(id)).Scan(&exists); err != nil {
		return false, fmt.Errorf("exists %s: %w", s.table, err)
	}
	return exists, nil
}

// Tx serializes per key with a transaction-scoped advisory lock, so the guarantee
// holds across every process sharing the database.
type Tx[K ~string, V any] struct {
	db    *sql.DB
	store *Store[K, V]
}

func NewTx[K ~string, V any](db *sql.DB, store *Store[K, V]) *Tx[K, V] {
	return &Tx[K, V]{db: db, store: store}
}

func (t *Tx[K, V]) RunInTx(ctx context.Context, id K, fn func(ctx context.Context, store storage.Store[K, V]) error) (err error) {
	sqlTx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	// Rollback after Commit is a no-op. Running it unconditionally also covers a
	// panicking fn, which would otherwise hold the connection and advisory lock.
	defer func() { _ = sqlTx.Rollback() }()

	if _, err = sqlTx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, t.store.table+":"+string(id)); err != nil {
		return fmt.Errorf("acquire advisory lock: %w", err)
	}

	if err = fn(txcontext.WithTx(ctx, sqlTx), t.store); err != nil {
		return err
	}
	if err = sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
