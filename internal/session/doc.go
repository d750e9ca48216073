// Package session tracks live per-user agent sessions.
//
// Conversational agents are expensive to reinitialize and carry accumulating
// context, so the registry keys sessions by user identity rather than by
// connection: a user resumes their conversation across independent requests
// while staying strictly isolated from everyone else's.
//
// Sessions are process-local and never persisted; a restart loses them.
// Creation is lazy (first non-terminator message), teardown is explicit
// (the /end terminator or the session-end endpoint) and idempotent. There
// is no TTL or idle eviction; LastUsedAt is tracked so a policy could be
// layered on later.
package session
