package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

type contextKey string

const userIDKey contextKey = "userID"

// ErrNoUser is returned when a request carries no acting user.
var ErrNoUser = errors.New("acting user is required")

// ContextWithUserID returns a new context that carries the acting user.
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, userIDKey, strings.TrimSpace(userID))
}

// UserIDFromContext retrieves the acting user from the context, if any.
func UserIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(userIDKey).(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// RequireUser returns the acting user or ErrNoUser.
func RequireUser(ctx context.Context) (string, error) {
	id, ok := UserIDFromContext(ctx)
	if !ok {
		return "", ErrNoUser
	}
	return id, nil
}

// HeaderMiddleware copies the identity set by the upstream auth proxy in
// header into the request context.
func HeaderMiddleware(header string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id := strings.TrimSpace(r.Header.Get(header)); id != "" {
				r = r.WithContext(ContextWithUserID(r.Context(), id))
			}
			next.ServeHTTP(w, r)
		})
	}
}
