// ABOUTME: Invocation facade in front of the external analysis agent
// ABOUTME: Validates messages, dispatches to a Runner, and rejects empty replies

package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/appsecdash/appsec-gateway/internal/metrics"
)

// Agent errors
var (
	// ErrEmptyMessage is returned before invocation when the trimmed
	// message is empty.
	ErrEmptyMessage = errors.New("message is required")

	// ErrEmptyResponse is returned when the agent completed without
	// producing content. The agent must answer through its structured
	// return channel; an empty reply is a failure, never a silent success.
	ErrEmptyResponse = errors.New("agent returned an empty response")

	// ErrExecutionFailed wraps any failure from the external agent.
	ErrExecutionFailed = errors.New("agent execution failed")

	// ErrMissingAPIKey is returned when the agent credential is not
	// configured. Surfaces as a configuration error at the API boundary.
	ErrMissingAPIKey = errors.New("agent API key is not configured")
)

// Runner is the narrow interface to the external analysis agent. The agent
// itself is an opaque capability: Run receives the conversation (its
// accumulated context), the selected capability, and the user message, and
// must return the agent's answer as text.
type Runner interface {
	Run(ctx context.Context, conv *Conversation, capability Capability, message string) (string, error)
}

// Facade routes a user message plus selected capability to the external
// agent through a conversation handle.
type Facade struct {
	runner Runner
	logger *slog.Logger
}

// NewFacade creates a facade over the given runner.
func NewFacade(runner Runner, logger *slog.Logger) *Facade {
	return &Facade{
		runner: runner,
		logger: logger.With("component", "agent"),
	}
}

// Invoke validates the message, runs the capability on the conversation, and
// records the completed exchange. Failures from the runner - including an
// empty reply - are surfaced as ErrExecutionFailed with a diagnostic.
func (f *Facade) Invoke(ctx context.Context, conv *Conversation, capability Capability, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", ErrEmptyMessage
	}

	f.logger.Debug("invoking agent",
		"conversation_id", conv.ID(),
		"role", capability.String(),
		"history_len", conv.Len(),
	)

	metrics.AgentInvocationsTotal.WithLabelValues(capability.String()).Inc()

	response, err := f.runner.Run(ctx, conv, capability, message)
	if err != nil {
		if errors.Is(err, ErrMissingAPIKey) {
			return "", err
		}
		metrics.AgentErrorsTotal.WithLabelValues("run_failed").Inc()
		return "", fmt.Errorf("%w: %v", ErrExecutionFailed, err)
	}

	if strings.TrimSpace(response) == "" {
		metrics.AgentErrorsTotal.WithLabelValues("empty_response").Inc()
		return "", fmt.Errorf("%w: %v", ErrExecutionFailed, ErrEmptyResponse)
	}

	conv.Append(message, response)
	return response, nil
}
