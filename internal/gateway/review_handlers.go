// ABOUTME: HTTP handlers for one-shot analysis runs: code review and threat modeling
// ABOUTME: Reviews write markdown reports; reports are served raw or rendered as HTML

package gateway

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/yuin/goldmark"

	"github.com/appsecdash/appsec-gateway/internal/agent"
	"github.com/appsecdash/appsec-gateway/internal/auth"
)

// codeReviewRequest is the JSON request body for POST /api/code-review.
type codeReviewRequest struct {
	RepoPath string `json:"repo_path" validate:"required"`
	Query    string `json:"query,omitempty"`
}

// threatModelingRequest is the JSON request body for POST /api/threat-modeling.
type threatModelingRequest struct {
	Description string `json:"description" validate:"required"`
	Context     string `json:"context,omitempty"`
}

// runOneShot invokes a capability on a fresh conversation that is discarded
// afterwards. One-shot runs never touch the user's chat session.
func (g *Gateway) runOneShot(r *http.Request, capability agent.Capability, message string) (string, error) {
	conv := agent.NewConversation(agent.Options{
		Role:        capability,
		Environment: g.config.Agent.Environment,
		Verbose:     g.config.Agent.Verbose,
	})
	return g.agents.Invoke(r.Context(), conv, capability, message)
}

// sendAgentError maps agent facade errors onto the API error taxonomy.
func (g *Gateway) sendAgentError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, agent.ErrEmptyMessage):
		g.sendJSONError(w, http.StatusBadRequest, "Message is required")
	case errors.Is(err, agent.ErrMissingAPIKey):
		g.logger.Error("agent credential not configured")
		g.sendJSONError(w, http.StatusInternalServerError, "Configuration error", "Agent API key is not configured")
	default:
		g.logger.Error("agent invocation failed", "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "Agent execution failed")
	}
}

func (g *Gateway) handleCodeReview(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		g.sendJSONError(w, http.StatusUnauthorized, "Access token required")
		return
	}

	var req codeReviewRequest
	if !g.decodeRequest(w, r, &req) {
		return
	}

	message := fmt.Sprintf("Perform a security-focused code review of the repository at %s.", req.RepoPath)
	if req.Query != "" {
		message += " Focus: " + req.Query
	}

	response, err := g.runOneShot(r, agent.CapabilityCodeReview, message)
	if err != nil {
		g.sendAgentError(w, err)
		return
	}

	report := fmt.Sprintf("# Code Review Report\n\n- **Repository:** %s\n- **Requested by:** %s\n- **Date:** %s\n\n---\n\n%s\n",
		req.RepoPath, identity.Username, time.Now().Format(time.RFC3339), response)

	reportID, err := g.reports.Save(report)
	if err != nil {
		g.logger.Error("failed to save report", "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "Failed to save report")
		return
	}

	g.sendJSON(w, http.StatusOK, map[string]any{
		"status":         "success",
		"message":        "Code review complete",
		"report_id":      reportID,
		"report_content": response,
	})
}

func (g *Gateway) handleListReports(w http.ResponseWriter, r *http.Request) {
	reports, err := g.reports.List()
	if err != nil {
		g.logger.Error("failed to list reports", "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "Failed to list reports")
		return
	}

	g.sendJSON(w, http.StatusOK, map[string]any{
		"reports": reports,
	})
}

func (g *Gateway) handleGetReport(w http.ResponseWriter, r *http.Request) {
	content, err := g.reports.Get(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, ErrReportNotFound) {
			g.sendJSONError(w, http.StatusNotFound, "Report not found")
			return
		}
		g.logger.Error("failed to read report", "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "Failed to read report")
		return
	}

	if r.URL.Query().Get("format") == "html" {
		var htmlBuf bytes.Buffer
		if err := goldmark.Convert(content, &htmlBuf); err != nil {
			g.logger.Error("failed to render report", "error", err)
			g.sendJSONError(w, http.StatusInternalServerError, "Failed to render report")
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(htmlBuf.Bytes())
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	_, _ = w.Write(content)
}

func (g *Gateway) handleThreatModeling(w http.ResponseWriter, r *http.Request) {
	var req threatModelingRequest
	if !g.decodeRequest(w, r, &req) {
		return
	}

	message := "Produce a threat model for the following system.\n\nDescription: " + req.Description
	if req.Context != "" {
		message += "\n\nAdditional context: " + req.Context
	}

	response, err := g.runOneShot(r, agent.CapabilityThreatModel, message)
	if err != nil {
		g.sendAgentError(w, err)
		return
	}

	g.sendJSON(w, http.StatusOK, map[string]any{
		"status":   "success",
		"analysis": response,
	})
}
