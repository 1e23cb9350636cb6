package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/utafrali/reviewhub/pkg/logger"
)

type contextKeyType string

const userIDKey contextKeyType = "user_id"

// ResolveFunc maps a request credential to a user id. A value <= 0 means the
// caller is anonymous.
type ResolveFunc func(ctx context.Context, credential string) int64

// Identity resolves the bearer credential of every request and stores the
// resulting user id in the context. It never rejects a request: anonymous
// callers pass through and the operations they invoke decide what to allow.
func Identity(resolve ResolveFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			credential := BearerToken(r)
			if credential == "" {
				next.ServeHTTP(w, r)
				return
			}
			if id := resolve(r.Context(), credential); id > 0 {
				ctx := context.WithValue(r.Context(), userIDKey, id)
				ctx = logger.WithUserID(ctx, id)
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// BearerToken returns the token of an "Authorization: Bearer <token>" header,
// or "" when the header is missing or uses another scheme.
func BearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// UserIDFromContext returns the resolved user id, or 0 for anonymous callers.
func UserIDFromContext(ctx context.Context) int64 {
	if id, ok := ctx.Value(userIDKey).(int64); ok {
		return id
	}
	return 0
}
