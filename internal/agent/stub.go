// ABOUTME: Stub Runner implementation for testing
// ABOUTME: Counts invocations and returns canned responses without a real agent

package agent

import (
	"context"
	"sync"
)

// StubRunner is an in-memory Runner for tests. It records invocations and
// returns a fixed response or error.
type StubRunner struct {
	mu sync.Mutex

	// Response is returned by Run when Err is nil.
	Response string

	// Err, when set, is returned by Run.
	Err error

	calls []StubCall
}

// StubCall records one Run invocation.
type StubCall struct {
	ConversationID string
	Capability     Capability
	Message        string
}

// Run records the call and returns the configured response or error.
func (s *StubRunner) Run(ctx context.Context, conv *Conversation, capability Capability, message string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, StubCall{
		ConversationID: conv.ID(),
		Capability:     capability,
		Message:        message,
	})

	if s.Err != nil {
		return "", s.Err
	}
	return s.Response, nil
}

// Calls returns a copy of the recorded invocations.
func (s *StubRunner) Calls() []StubCall {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]StubCall, len(s.calls))
	copy(out, s.calls)
	return out
}

// CallCount returns the number of recorded invocations.
func (s *StubRunner) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}
