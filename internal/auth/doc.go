// Package auth provides authentication primitives for appsec-gateway.
//
// # Tokens
//
// Users authenticate with HS256-signed JWT bearer tokens:
//
//	ts := auth.NewTokenService(secret, 7*24*time.Hour)
//	token, err := ts.Issue(user.ID, user.Username)
//	identity, err := ts.Verify(token)
//
// Tokens carry {sub, name, iat, exp} and nothing else is trusted. There is
// no revocation list: a token remains valid until its expiry even after a
// password change or logout. This is a documented property of the design,
// bounded by the configured TTL (7 days by default).
//
// # Passwords
//
// Passwords are hashed with bcrypt (fresh salt per hash, tunable cost).
// Verification is constant-timing safe, including a DummyVerify path used
// when the user lookup missed, so login timing does not reveal whether a
// username exists.
//
// # HTTP Middleware
//
// Middleware gates API endpoints:
//
//   - no/malformed Authorization header: 401 "Access token required"
//   - present but invalid or expired token: 403 "Invalid or expired token"
//   - valid token: Identity attached to the request context
//
// Handlers retrieve the identity with IdentityFromContext.
package auth
