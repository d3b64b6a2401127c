package middlewares

import (
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// Trace starts one span per request under the globally registered
// TracerProvider, honouring an incoming W3C traceparent header. Every
// slog line and checkout-log row written under the request context then
// carries the request's trace and span IDs.
func Trace(next http.Handler) http.Handler {
	tracer := otel.Tracer("pos-http")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		ctx, span := tracer.Start(ctx, r.Method+" "+r.URL.Path)
		defer span.End()

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
