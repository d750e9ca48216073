// ABOUTME: Shared JSON plumbing for the HTTP API handlers
// ABOUTME: Request decoding with validation, response encoding, and the error envelope

package gateway

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// maxRequestBody caps JSON request bodies at 1MB.
const maxRequestBody = 1 << 20

var validate = validator.New()

// errorResponse is the JSON error envelope used by every failing endpoint.
// Message carries additional detail and is omitted when empty.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// sendJSON writes v as a JSON response with the given status.
func (g *Gateway) sendJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		g.logger.Error("failed to encode response", "error", err)
	}
}

// sendJSONError writes the JSON error envelope. The first string is the
// error reason; an optional second string adds detail.
func (g *Gateway) sendJSONError(w http.ResponseWriter, status int, reason string, detail ...string) {
	resp := errorResponse{Error: reason}
	if len(detail) > 0 {
		resp.Message = detail[0]
	}
	g.sendJSON(w, status, resp)
}

// decodeRequest decodes and validates a JSON request body into dst. On
// failure it writes a 400 response and returns false; the handler should
// return immediately.
func (g *Gateway) decodeRequest(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		g.sendJSONError(w, http.StatusBadRequest, "Invalid JSON body")
		return false
	}

	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			g.sendJSONError(w, http.StatusBadRequest, "Validation failed", validationMessage(verrs[0]))
			return false
		}
		g.sendJSONError(w, http.StatusBadRequest, "Validation failed")
		return false
	}

	return true
}

// validationMessage renders a single field error in a client-friendly form.
func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return fe.Field() + " must be a valid email address"
	case "min":
		return fe.Field() + " must be at least " + fe.Param() + " characters"
	case "max":
		return fe.Field() + " must be at most " + fe.Param() + " characters"
	default:
		return fe.Field() + " is invalid"
	}
}
