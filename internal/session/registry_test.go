// ABOUTME: Tests for the per-user session registry
// ABOUTME: Covers reuse, idempotent teardown, isolation, and concurrent creation

package session

import (
	"log/slog"
	"sync"
	"testing"

	"github.com/appsecdash/appsec-gateway/internal/agent"
)

func newTestRegistry() *Registry {
	return NewRegistry(slog.Default())
}

func TestGetOrCreate_CreatesOnce(t *testing.T) {
	r := newTestRegistry()
	opts := agent.Options{Role: agent.CapabilityQuery, Environment: "development"}

	first, created := r.GetOrCreate(1, opts)
	if !created {
		t.Error("first GetOrCreate should create")
	}
	if first == nil || first.Conversation == nil {
		t.Fatal("created session has no conversation")
	}

	second, created := r.GetOrCreate(1, opts)
	if created {
		t.Error("second GetOrCreate should reuse")
	}
	if second != first {
		t.Error("GetOrCreate returned a different session for the same user")
	}
	if second.Conversation.ID() != first.Conversation.ID() {
		t.Error("conversation identity not preserved across reuse")
	}
}

func TestGetOrCreate_ReusePreservesOptions(t *testing.T) {
	r := newTestRegistry()

	first, _ := r.GetOrCreate(1, agent.Options{Role: agent.CapabilityCodeReview})

	// A later request with a different role must not reset the session
	second, created := r.GetOrCreate(1, agent.Options{Role: agent.CapabilityQuery})
	if created {
		t.Error("GetOrCreate created a second session for the same user")
	}
	if second.Role != first.Role {
		t.Errorf("session role changed on reuse: %q -> %q", first.Role, second.Role)
	}
}

func TestEnd_Idempotent(t *testing.T) {
	r := newTestRegistry()

	r.GetOrCreate(1, agent.Options{})

	r.End(1)
	if r.Exists(1) {
		t.Error("Exists(1) = true after End")
	}

	// Ending again must not panic or error
	r.End(1)
	if r.Exists(1) {
		t.Error("Exists(1) = true after second End")
	}

	// Ending a user that never had a session is fine too
	r.End(999)
}

func TestExists(t *testing.T) {
	r := newTestRegistry()

	if r.Exists(1) {
		t.Error("Exists(1) = true on empty registry")
	}

	r.GetOrCreate(1, agent.Options{})
	if !r.Exists(1) {
		t.Error("Exists(1) = false after creation")
	}
}

func TestIsolation_BetweenUsers(t *testing.T) {
	r := newTestRegistry()

	sessA, _ := r.GetOrCreate(1, agent.Options{})
	sessB, _ := r.GetOrCreate(2, agent.Options{})

	if sessA == sessB {
		t.Fatal("different users share a session")
	}
	if sessA.Conversation.ID() == sessB.Conversation.ID() {
		t.Error("different users share a conversation")
	}

	// Ending A leaves B untouched
	r.End(1)
	if r.Exists(1) {
		t.Error("Exists(1) = true after End")
	}
	if !r.Exists(2) {
		t.Error("Exists(2) = false after ending user 1's session")
	}
}

func TestGetOrCreate_ConcurrentSameUser(t *testing.T) {
	r := newTestRegistry()

	const goroutines = 32
	sessions := make([]*Session, goroutines)
	createdCount := 0

	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sess, created := r.GetOrCreate(42, agent.Options{})
			mu.Lock()
			sessions[i] = sess
			if created {
				createdCount++
			}
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	if createdCount != 1 {
		t.Errorf("created %d sessions for one user, want exactly 1", createdCount)
	}
	for i := 1; i < goroutines; i++ {
		if sessions[i] != sessions[0] {
			t.Fatal("concurrent GetOrCreate returned divergent sessions")
		}
	}
	if r.Count() != 1 {
		t.Errorf("Count() = %d, want 1", r.Count())
	}
}

func TestCount(t *testing.T) {
	r := newTestRegistry()

	for id := int64(1); id <= 5; id++ {
		r.GetOrCreate(id, agent.Options{})
	}
	if r.Count() != 5 {
		t.Errorf("Count() = %d, want 5", r.Count())
	}

	r.End(3)
	if r.Count() != 4 {
		t.Errorf("Count() = %d, want 4", r.Count())
	}
}
