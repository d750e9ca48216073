// ABOUTME: Tests for the HTTP authentication middleware
// ABOUTME: Covers token extraction, validation failures, and identity propagation

package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestMiddleware_ValidToken(t *testing.T) {
	ts := NewTokenService(testSecret, time.Hour)
	token, _ := ts.Issue(7, "alice")

	var gotIdentity Identity
	var gotOK bool
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotIdentity, gotOK = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	Middleware(ts)(handler).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if !gotOK {
		t.Fatal("expected Identity in context")
	}
	if gotIdentity.UserID != 7 || gotIdentity.Username != "alice" {
		t.Errorf("identity = %+v, want {7 alice}", gotIdentity)
	}
}

func TestMiddleware_MissingToken(t *testing.T) {
	ts := NewTokenService(testSecret, time.Hour)

	// All malformed header shapes are identical to "no token"
	tests := []struct {
		name   string
		header string
	}{
		{name: "no header", header: ""},
		{name: "wrong scheme", header: "Basic abc123"},
		{name: "token without scheme", header: "raw-token-value"},
		{name: "bearer with empty token", header: "Bearer "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			})

			req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			Middleware(ts)(handler).ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
			if called {
				t.Error("downstream handler ran for unauthenticated request")
			}
		})
	}
}

func TestMiddleware_InvalidToken(t *testing.T) {
	ts := NewTokenService(testSecret, time.Hour)

	called := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-valid-token")
	rec := httptest.NewRecorder()

	Middleware(ts)(handler).ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
	if called {
		t.Error("downstream handler ran for invalid token")
	}
}

func TestMiddleware_ExpiredToken(t *testing.T) {
	expired := NewTokenService(testSecret, -time.Hour)
	token, _ := expired.Issue(7, "alice")

	ts := NewTokenService(testSecret, time.Hour)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	Middleware(ts)(handler).ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403 for expired token", rec.Code)
	}
}

func TestIdentityFromContext_Absent(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	_, ok := IdentityFromContext(req.Context())
	if ok {
		t.Error("IdentityFromContext() = ok for plain context")
	}
}
