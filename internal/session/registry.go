// ABOUTME: Per-user registry of live agent sessions, guarded for concurrent access
// ABOUTME: Governs lazy creation, reuse, and teardown of each user's conversation context

package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/appsecdash/appsec-gateway/internal/agent"
	"github.com/appsecdash/appsec-gateway/internal/metrics"
)

// Session is the process-local state for one user's conversation with the
// analysis agent. Exactly zero or one Session exists per user id at any
// time; the registry owns all sessions exclusively.
type Session struct {
	UserID       int64
	Conversation *agent.Conversation
	Role         agent.Capability
	CreatedAt    time.Time

	mu         sync.Mutex
	lastUsedAt time.Time
}

// Touch records use of the session.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUsedAt = time.Now()
}

// LastUsedAt returns the time of the most recent use. There is no idle
// eviction policy; the timestamp exists so one can be added without a
// schema change to the registry.
func (s *Session) LastUsedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsedAt
}

// Registry maps authenticated user ids to live sessions. It is constructed
// once at process start and passed to request handlers - shared mutable
// state, guarded by a single lock. Contention is low (one entry per user),
// so a coarse lock is sufficient.
type Registry struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
	logger   *slog.Logger
}

// NewRegistry creates an empty session registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		sessions: make(map[int64]*Session),
		logger:   logger.With("component", "session"),
	}
}

// GetOrCreate returns the user's existing session unchanged, preserving
// conversation memory and capability continuity, or creates one with the
// given options. The check-then-insert runs under one lock, so two
// concurrent first-messages from the same user converge on a single
// session. The second return value reports whether a session was created.
func (r *Registry) GetOrCreate(userID int64, opts agent.Options) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sess, exists := r.sessions[userID]; exists {
		sess.Touch()
		return sess, false
	}

	now := time.Now()
	sess := &Session{
		UserID:       userID,
		Conversation: agent.NewConversation(opts),
		Role:         opts.Role,
		CreatedAt:    now,
		lastUsedAt:   now,
	}
	r.sessions[userID] = sess

	metrics.SessionsCreatedTotal.Inc()
	metrics.SessionsActive.Set(float64(len(r.sessions)))

	r.logger.Info("session created",
		"user_id", userID,
		"role", opts.Role.String(),
		"total_sessions", len(r.sessions),
	)
	return sess, true
}

// End removes the user's session if present. Ending a non-existent session
// is not an error; the operation is idempotent.
func (r *Registry) End(userID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[userID]; !exists {
		return
	}

	delete(r.sessions, userID)
	metrics.SessionsActive.Set(float64(len(r.sessions)))

	r.logger.Info("session ended",
		"user_id", userID,
		"total_sessions", len(r.sessions),
	)
}

// Exists reports whether the user currently has a live session.
func (r *Registry) Exists(userID int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.sessions[userID]
	return exists
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
