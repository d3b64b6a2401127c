package middlewares

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

// contextKey is an unexported type for context keys in this package.
// Using a custom type prevents collisions with keys from other packages
// that might use the same underlying string value.
type contextKey string

const (
	HeaderXRequestId  = "x-request-id"
	HeaderXOperatorId = "x-operator-id"

	// ContextKeyRequestID is the context key for the request ID.
	ContextKeyRequestID contextKey = HeaderXRequestId
	// ContextKeyOperatorID is the context key for the operator header.
	ContextKeyOperatorID contextKey = HeaderXOperatorId
)

// AttachRequestMetadata copies the chi request ID and the operator header
// into typed context values and echoes the request ID back to the client.
func AttachRequestMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestId := middleware.GetReqID(r.Context())
		operatorId := r.Header.Get(HeaderXOperatorId)

		ctx := context.WithValue(r.Context(), ContextKeyRequestID, requestId)
		ctx = context.WithValue(ctx, ContextKeyOperatorID, operatorId)

		w.Header().Set(HeaderXRequestId, requestId)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
