// Package store provides persistent storage for the gateway using SQLite.
//
// # Architecture
//
// The package exposes a single UserStore interface implemented by SQLiteStore
// (modernc.org/sqlite, no cgo) and MockUserStore (in-memory, for tests).
// The schema is created on open and idempotent migrations bring older
// databases up to date.
//
// # Data Model
//
// One table:
//
//	users (id, username UNIQUE, email UNIQUE, password_hash,
//	       credential_is_default, created_at, updated_at)
//
// Username and email uniqueness is enforced by the table constraints, so a
// conflicting insert fails atomically - there is no check-then-insert race
// at this layer.
//
// # Error Handling
//
// Lookups by id return ErrNotFound. Lookups by username or email return
// (nil, nil) on absence, because callers routinely probe for existence.
// Conflicting inserts return ErrUsernameExists or ErrEmailExists.
//
// Password hashes are stored opaque; the store never inspects them, and
// User.Sanitized strips them before records cross the API boundary.
package store
