// ABOUTME: HTTP client implementation of the Runner interface
// ABOUTME: Talks JSON to the appsec-agent service with API key authentication

package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// runRequest is the JSON body sent to the agent service.
type runRequest struct {
	Role        string        `json:"role"`
	Environment string        `json:"environment"`
	Verbose     bool          `json:"verbose"`
	Message     string        `json:"message"`
	History     []runExchange `json:"history,omitempty"`
}

// runExchange is one prior turn included for conversation continuity.
type runExchange struct {
	Message  string `json:"message"`
	Response string `json:"response"`
}

// runResponse is the JSON body returned by the agent service. The response
// field is the structured return channel; the gateway never recovers answers
// from logs or any other side channel.
type runResponse struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

// HTTPRunner invokes the appsec-agent service over HTTP.
type HTTPRunner struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewHTTPRunner creates a runner for the agent service at endpoint.
// A zero timeout disables the client timeout; per-request contexts still
// apply, so a cancelled request aborts the in-flight call.
func NewHTTPRunner(endpoint, apiKey string, timeout time.Duration) *HTTPRunner {
	return &HTTPRunner{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: timeout},
	}
}

// Run executes the capability against the agent service and returns its
// structured answer.
func (r *HTTPRunner) Run(ctx context.Context, conv *Conversation, capability Capability, message string) (string, error) {
	if r.apiKey == "" {
		return "", ErrMissingAPIKey
	}

	opts := conv.Options()
	reqBody := runRequest{
		Role:        capability.String(),
		Environment: opts.Environment,
		Verbose:     opts.Verbose,
		Message:     message,
	}
	for _, ex := range conv.History() {
		reqBody.History = append(reqBody.History, runExchange{
			Message:  ex.Message,
			Response: ex.Response,
		})
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint+"/v1/run", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", r.apiKey)
	req.Header.Set("X-Request-ID", uuid.New().String())

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling agent service: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return "", fmt.Errorf("reading agent response: %w", err)
	}

	var out runResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decoding agent response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode != http.StatusOK {
		if out.Error != "" {
			return "", fmt.Errorf("agent service returned status %d: %s", resp.StatusCode, out.Error)
		}
		return "", fmt.Errorf("agent service returned status %d", resp.StatusCode)
	}

	return out.Response, nil
}
