// Package sqlite provides the SQLite-backed checkout log.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jcmexdev/profitus-pos/internal/sale/salelog"
)

// schema is the DDL for the checkout log, applied on construction.
// Append-only: each row is an immutable event in a checkout attempt's
// lifecycle.
const schema = `
CREATE TABLE IF NOT EXISTS checkout_log (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    attempt_id  TEXT    NOT NULL,
    status      TEXT    NOT NULL,
    operator_id INTEGER NOT NULL,
    detail      TEXT    NOT NULL DEFAULT '',
    trace_id    TEXT    NOT NULL DEFAULT '',
    span_id     TEXT    NOT NULL DEFAULT '',
    at          TEXT    NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_checkout_log_attempt ON checkout_log(attempt_id, at);
`

// Repository is the SQLite implementation of salelog.Repository.
type Repository struct {
	db *sql.DB
}

// New applies the checkout-log schema on the shared handle and returns
// the repository.
func New(db *sql.DB) (*Repository, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("sqlite: apply checkout log schema: %w", err)
	}
	return &Repository{db: db}, nil
}

// Save inserts one log row. Safe to call concurrently.
func (r *Repository) Save(ctx context.Context, e *salelog.Entry) error {
	const q = `
		INSERT INTO checkout_log (attempt_id, status, operator_id, detail, trace_id, span_id, at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, q,
		e.AttemptID,
		string(e.Status),
		e.OperatorID,
		e.Detail,
		e.TraceID,
		e.SpanID,
		// Fixed-width so TEXT order equals time order when sorting by at.
		e.At.UTC().Format("2006-01-02T15:04:05.000000000Z"),
	)
	if err != nil {
		return fmt.Errorf("sqlite: save checkout log for %q: %w", e.AttemptID, err)
	}
	return nil
}
