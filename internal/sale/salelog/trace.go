package salelog

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// NewEntry builds a log entry, extracting trace identifiers from the
// active OpenTelemetry span if the context carries one. Without an active
// span (unit tests, plain CLI runs) both trace fields stay empty.
func NewEntry(ctx context.Context, attemptID string, status Status, operatorID int64, detail string) *Entry {
	e := &Entry{
		AttemptID:  attemptID,
		Status:     status,
		OperatorID: operatorID,
		Detail:     detail,
		At:         time.Now().UTC(),
	}

	sc := trace.SpanFromContext(ctx).SpanContext()
	if sc.IsValid() {
		e.TraceID = sc.TraceID().String()
		e.SpanID = sc.SpanID().String()
	}
	return e
}
