package logger

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// cycleIDKey marks the context storage slot for the polling-cycle identifier.
type cycleIDKey struct{}

// WithCycleID stamps a fresh cycle identifier onto ctx and returns it.
func WithCycleID(ctx context.Context) (context.Context, string) {
	id := uuid.NewString()
	return context.WithValue(ctx, cycleIDKey{}, id), id
}

// CycleIDFromContext returns the cycle identifier stored in ctx, or an empty
// string when absent.
func CycleIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(cycleIDKey{}).(string); ok {
		return id
	}

	return ""
}

// Middleware injects a correlation identifier into HTTP request contexts on
// the metrics and health surface.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), cycleIDKey{}, uuid.NewString())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
