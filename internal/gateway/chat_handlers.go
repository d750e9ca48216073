// ABOUTME: HTTP handlers for the stateful chat session endpoints
// ABOUTME: Terminator handling, session reuse, and agent error mapping

package gateway

import (
	"errors"
	"net/http"
	"strings"

	"github.com/appsecdash/appsec-gateway/internal/agent"
	"github.com/appsecdash/appsec-gateway/internal/auth"
)

// chatRequest is the JSON request body for POST /api/chat. History lets a
// client seed a brand-new session with prior exchanges; it is ignored when
// a session already exists.
type chatRequest struct {
	Message string         `json:"message"`
	Role    string         `json:"role,omitempty"`
	History []chatExchange `json:"history,omitempty"`
}

// chatExchange is one prior user/agent turn supplied by the client.
type chatExchange struct {
	Message  string `json:"message"`
	Response string `json:"response"`
}

// sessionEndedMessage is the chat reply when the terminator command closes
// the session.
const sessionEndedMessage = "Session ended. Your next message will start a fresh conversation."

func (g *Gateway) handleChat(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		g.sendJSONError(w, http.StatusUnauthorized, "Access token required")
		return
	}

	var req chatRequest
	if !g.decodeRequest(w, r, &req) {
		return
	}

	role := agent.ParseCapability(req.Role)
	if req.Role == "" {
		role = agent.ParseCapability(g.config.Agent.DefaultRole)
	}

	// The terminator works whether or not a session exists. A user who
	// sends /end with no session still gets a clean "ended" reply.
	if agent.IsTerminator(req.Message) {
		g.sessions.End(identity.UserID)
		g.sendJSON(w, http.StatusOK, map[string]any{
			"status":       "success",
			"response":     sessionEndedMessage,
			"role":         role.String(),
			"sessionEnded": true,
		})
		return
	}

	if strings.TrimSpace(req.Message) == "" {
		g.sendJSONError(w, http.StatusBadRequest, "Message is required")
		return
	}

	sess, created := g.sessions.GetOrCreate(identity.UserID, agent.Options{
		Role:        role,
		Environment: g.config.Agent.Environment,
		Verbose:     g.config.Agent.Verbose,
	})
	if created {
		for _, ex := range req.History {
			if ex.Message != "" && ex.Response != "" {
				sess.Conversation.Append(ex.Message, ex.Response)
			}
		}
		g.logger.Info("chat session started", "user_id", identity.UserID, "role", sess.Role.String())
	}

	response, err := g.agents.Invoke(r.Context(), sess.Conversation, sess.Role, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, agent.ErrEmptyMessage):
			g.sendJSONError(w, http.StatusBadRequest, "Message is required")
		case errors.Is(err, agent.ErrMissingAPIKey):
			g.logger.Error("agent credential not configured")
			g.sendJSONError(w, http.StatusInternalServerError, "Configuration error", "Agent API key is not configured")
		default:
			g.logger.Error("chat invocation failed", "error", err, "user_id", identity.UserID)
			g.sendJSONError(w, http.StatusInternalServerError, "Agent execution failed")
		}
		return
	}

	g.sendJSON(w, http.StatusOK, map[string]any{
		"status":        "success",
		"response":      response,
		"role":          sess.Role.String(),
		"sessionActive": true,
	})
}

func (g *Gateway) handleChatEnd(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		g.sendJSONError(w, http.StatusUnauthorized, "Access token required")
		return
	}

	message := "No active session"
	if g.sessions.Exists(identity.UserID) {
		message = "Session ended"
	}
	g.sessions.End(identity.UserID)

	g.sendJSON(w, http.StatusOK, map[string]any{
		"status":       "success",
		"message":      message,
		"sessionEnded": true,
	})
}

func (g *Gateway) handleChatSession(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		g.sendJSONError(w, http.StatusUnauthorized, "Access token required")
		return
	}

	if !g.sessions.Exists(identity.UserID) {
		g.sendJSON(w, http.StatusOK, map[string]any{
			"hasSession": false,
			"message":    "No active session",
		})
		return
	}

	g.sendJSON(w, http.StatusOK, map[string]any{
		"hasSession": true,
		"message":    "Active session found",
	})
}
