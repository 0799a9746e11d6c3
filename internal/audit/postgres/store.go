// Package postgres keeps the audit trail in PostgreSQL. Append joins the
// registry transaction carried in the context, so an event is durable exactly
// when the write it describes is.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"medtransit/internal/audit"
	txcontext "medtransit/pkg/platform/tx"
)

const (
	createSQL = `CREATE TABLE IF NOT EXISTS audit_events (
		seq        BIGSERIAL PRIMARY KEY,
		id         TEXT NOT NULL UNIQUE,
		kind       TEXT NOT NULL,
		subject    TEXT NOT NULL,
		action     TEXT NOT NULL,
		body       JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`
	indexSQL  = `CREATE INDEX IF NOT EXISTS audit_events_subject_seq ON audit_events (subject, seq)`
	insertSQL = `INSERT INTO audit_events (id, kind, subject, action, body) VALUES ($1, $2, $3, $4, $5)`
	listSQL   = `SELECT body FROM audit_events WHERE subject = $1 ORDER BY seq`
)

// Store implements audit.Store over the audit_events table.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the table and its subject index if they are missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range []string{createSQL, indexSQL} {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create audit_events: %w", err)
		}
	}
	return nil
}

// Append inserts the event. Inside a registry transaction the row is discarded
// with the transaction on rollback.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	_, err = txcontext.ExecutorFrom(ctx, s.db).ExecContext(ctx, insertSQL,
		event.ID,
		string(event.Kind),
		event.Subject,
		string(event.Action),
		body,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListBySubject returns committed events for subject in insertion order.
func (s *Store) ListBySubject(ctx context.Context, subject string) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx, listSQL, subject)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	events := []audit.Event{}
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		var event audit.Event
		if err := json.Unmarshal(body, &event); err != nil {
			return nil, fmt.Errorf("unmarshal audit event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
