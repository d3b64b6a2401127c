package salelog

import "context"

// Repository is the port for persisting checkout log entries. The engine
// depends on this abstraction, not on SQLite directly, so tests can swap
// in an in-memory recorder.
type Repository interface {
	// Save appends a row. The table is an append-only audit log, never
	// an upsert.
	Save(ctx context.Context, e *Entry) error
}
