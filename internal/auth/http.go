// ABOUTME: HTTP middleware for JWT authentication on API endpoints
// ABOUTME: Extracts the bearer token from the Authorization header and adds identity to context

package auth

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/appsecdash/appsec-gateway/internal/metrics"
)

// extractBearerToken extracts a bearer token from the Authorization header.
// A missing header, a non-Bearer scheme, and an empty token are all treated
// the same way: no token present.
func extractBearerToken(authHeader string) (string, bool) {
	if authHeader == "" {
		return "", false
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == "" {
		return "", false
	}
	return token, true
}

// Middleware creates an HTTP middleware that requires a valid bearer token.
// Requests without a token get 401; requests with an invalid or expired
// token get 403. On success the resolved Identity is attached to the request
// context and the next handler runs. The middleware is stateless - it never
// touches the database or the session registry.
func Middleware(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := extractBearerToken(r.Header.Get("Authorization"))
			if !ok {
				metrics.AuthFailuresTotal.WithLabelValues("missing_token").Inc()
				writeAuthError(w, http.StatusUnauthorized, "Access token required")
				return
			}

			identity, err := verifier.Verify(token)
			if err != nil {
				metrics.AuthFailuresTotal.WithLabelValues("invalid_token").Inc()
				writeAuthError(w, http.StatusForbidden, "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// writeAuthError writes the gateway's JSON error envelope without importing
// the gateway package (which would create an import cycle).
func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
