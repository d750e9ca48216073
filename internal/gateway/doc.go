// Package gateway exposes the appsec-gateway JSON API.
//
// # Overview
//
// The gateway owns the HTTP surface: routing, the bearer-token gate, and
// the translation of service-layer errors into wire responses. Public
// endpoints handle registration and login; everything else requires a
// valid token.
//
// # Error envelope
//
// Failing endpoints reply with a uniform envelope:
//
//	{"error": "<reason>", "message": "<optional detail>"}
//
// with 401 for missing tokens, 403 for invalid or expired tokens, 409 for
// registration conflicts, 400 for invalid input, and 500 for agent or
// configuration failures. Panics in handlers are recovered and rendered
// as a generic 500.
package gateway
