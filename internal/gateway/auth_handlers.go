// ABOUTME: HTTP handlers for registration, login, profile, and password change
// ABOUTME: Maps account service errors onto the API error taxonomy

package gateway

import (
	"errors"
	"net/http"

	"github.com/appsecdash/appsec-gateway/internal/account"
	"github.com/appsecdash/appsec-gateway/internal/auth"
	"github.com/appsecdash/appsec-gateway/internal/store"
)

// registerRequest is the JSON request body for POST /api/auth/register.
// Only presence is validated here; any non-empty username and email are
// accepted, and the password length check lives in the account service.
type registerRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// loginRequest is the JSON request body for POST /api/auth/login.
// Username also accepts an email address.
type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// changePasswordRequest is the JSON request body for POST /api/auth/change-password.
type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
}

// userPayload is the public view of a user. The password hash never
// crosses this boundary.
type userPayload struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// profilePayload extends userPayload with the default-credential flag so
// clients can nag about unchanged bootstrap passwords.
type profilePayload struct {
	userPayload
	CredentialIsDefault bool `json:"credential_is_default"`
}

func toUserPayload(u *store.User) userPayload {
	return userPayload{ID: u.ID, Username: u.Username, Email: u.Email}
}

func toProfilePayload(u *store.User) profilePayload {
	return profilePayload{
		userPayload:         toUserPayload(u),
		CredentialIsDefault: u.CredentialIsDefault,
	}
}

func (g *Gateway) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !g.decodeRequest(w, r, &req) {
		return
	}

	user, token, err := g.accounts.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, account.ErrPasswordTooShort):
			g.sendJSONError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, store.ErrUsernameExists):
			g.sendJSONError(w, http.StatusConflict, "Username already exists")
		case errors.Is(err, store.ErrEmailExists):
			g.sendJSONError(w, http.StatusConflict, "Email already exists")
		default:
			g.logger.Error("registration failed", "error", err, "username", req.Username)
			g.sendJSONError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	g.sendJSON(w, http.StatusCreated, map[string]any{
		"message": "User registered successfully",
		"user":    toUserPayload(user),
		"token":   token,
	})
}

func (g *Gateway) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !g.decodeRequest(w, r, &req) {
		return
	}

	user, token, err := g.accounts.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, account.ErrInvalidCredentials) {
			g.sendJSONError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		g.logger.Error("login failed", "error", err, "username", req.Username)
		g.sendJSONError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	g.sendJSON(w, http.StatusOK, map[string]any{
		"message": "Login successful",
		"user":    toProfilePayload(user),
		"token":   token,
	})
}

func (g *Gateway) handleMe(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		g.sendJSONError(w, http.StatusUnauthorized, "Access token required")
		return
	}

	user, err := g.accounts.Get(r.Context(), identity.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			g.sendJSONError(w, http.StatusNotFound, "User not found")
			return
		}
		g.logger.Error("profile lookup failed", "error", err, "user_id", identity.UserID)
		g.sendJSONError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	g.sendJSON(w, http.StatusOK, map[string]any{
		"user": toProfilePayload(user),
	})
}

func (g *Gateway) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		g.sendJSONError(w, http.StatusUnauthorized, "Access token required")
		return
	}

	var req changePasswordRequest
	if !g.decodeRequest(w, r, &req) {
		return
	}

	user, err := g.accounts.ChangePassword(r.Context(), identity.UserID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, account.ErrInvalidCredentials):
			g.sendJSONError(w, http.StatusUnauthorized, "Current password is incorrect")
		case errors.Is(err, account.ErrPasswordTooShort):
			g.sendJSONError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, store.ErrNotFound):
			g.sendJSONError(w, http.StatusNotFound, "User not found")
		default:
			g.logger.Error("password change failed", "error", err, "user_id", identity.UserID)
			g.sendJSONError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	g.sendJSON(w, http.StatusOK, map[string]any{
		"message": "Password changed successfully",
		"user":    toProfilePayload(user),
	})
}
