// Package viewer decides WHICH simulated user a request acts as.
//
// This is identity selection, not authentication. The board has no login:
// a client may name a viewer in the X-User-ID header, and anything missing
// or malformed falls back to the default viewer. Handlers read the result
// with FromContext to compute per-viewer like state and the "My Submissions"
// filter.
package viewer

import (
	"context"
	"net/http"
	"strconv"
	"strings"
)

// Header carries the viewer id.
const Header = "X-User-ID"

// contextKey is unexported so no other package can read or overwrite the
// viewer id by accident.
type contextKey string

const viewerIDKey contextKey = "viewerID"

// Middleware stores the request's viewer id in its context.
func Middleware(defaultID int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := Parse(r.Header.Get(Header), defaultID)
			next.ServeHTTP(w, r.WithContext(WithID(r.Context(), id)))
		})
	}
}

// Parse returns the positive integer in raw, or fallback.
func Parse(raw string, fallback int64) int64 {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return fallback
	}
	return id
}

// WithID returns a copy of ctx carrying id.
func WithID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, viewerIDKey, id)
}

// FromContext returns the viewer id and whether one was set.
func FromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(viewerIDKey).(int64)
	return id, ok && id > 0
}
