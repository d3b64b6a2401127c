// Package salelog defines the checkout audit trail.
//
// Every checkout attempt leaves an append-only row per state transition:
// STARTED when the engine hands the cart to storage, then exactly one of
// COMMITTED, REJECTED (a validation failure such as insufficient stock) or
// FAILED (storage error, unit rolled back). Two purposes:
//
//  1. Observability: the trail shows why a sale did not happen, and the
//     trace_id column links a row to the distributed trace when one exists.
//
//  2. Reconciliation: drawer counts can be checked against the committed
//     rows without touching the sales tables.
package salelog

import "time"

// Status is the lifecycle state a checkout attempt reached.
type Status string

const (
	StatusStarted   Status = "STARTED"
	StatusCommitted Status = "COMMITTED"
	StatusRejected  Status = "REJECTED"
	StatusFailed    Status = "FAILED"
)

// Entry is a single row in the checkout log.
type Entry struct {
	// AttemptID identifies one checkout attempt; all of an attempt's
	// rows share it. It becomes the sale's receipt number on commit.
	AttemptID string

	// Status is the state reached when this row was written.
	Status Status

	// OperatorID is the operator who ran the checkout.
	OperatorID int64

	// Detail carries failure reasons; empty on STARTED and COMMITTED.
	Detail string

	// TraceID/SpanID are the W3C identifiers of the active span, when
	// the caller runs under tracing. Empty otherwise.
	TraceID string
	SpanID  string

	// At is the wall-clock time of this transition.
	At time.Time
}
