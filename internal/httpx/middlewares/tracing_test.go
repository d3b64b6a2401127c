package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func TestTraceMiddlewareStartsSpan(t *testing.T) {
	otel.SetTracerProvider(sdktrace.NewTracerProvider())
	otel.SetTextMapPropagator(propagation.TraceContext{})

	var got trace.SpanContext
	h := Trace(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = trace.SpanContextFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)
	if !got.IsValid() {
		t.Fatal("handler ran without a span in its context")
	}

	// An inbound traceparent keeps its trace ID.
	const inboundTrace = "0af7651916cd43dd8448eb211c80319c"
	req = httptest.NewRequest(http.MethodGet, "/products", nil)
	req.Header.Set("traceparent", "00-"+inboundTrace+"-b7ad6b7169203331-01")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if got.TraceID().String() != inboundTrace {
		t.Fatalf("trace ID %s, want %s", got.TraceID(), inboundTrace)
	}
}
