package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestUserIDRoundTrip(t *testing.T) {
	ctx := ContextWithUserID(context.Background(), "  admin-7 ")
	id, ok := UserIDFromContext(ctx)
	if !ok || id != "admin-7" {
		t.Fatalf("expected admin-7, got %q (%v)", id, ok)
	}

	if _, err := RequireUser(context.Background()); !errors.Is(err, ErrNoUser) {
		t.Fatalf("expected ErrNoUser, got %v", err)
	}
	if _, ok := UserIDFromContext(ContextWithUserID(context.Background(), " ")); ok {
		t.Fatalf("blank user id must not count as authenticated")
	}
}

func TestHeaderMiddleware(t *testing.T) {
	var seen string
	handler := HeaderMiddleware("X-User-ID")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UserIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-User-ID", "u-1")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if seen != "u-1" {
		t.Fatalf("expected u-1, got %q", seen)
	}

	seen = ""
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if seen != "" {
		t.Fatalf("expected no user without header, got %q", seen)
	}
}
