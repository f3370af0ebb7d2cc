package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/SumukhChakkirala/chatApp/internal/core/domain"
	"github.com/SumukhChakkirala/chatApp/pkg/middleware"
	"github.com/google/uuid"
)

// envelope is the uniform response shape: a success flag plus either a
// payload or a human-readable reason.
type envelope map[string]any

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeOK(w http.ResponseWriter, body envelope) {
	if body == nil {
		body = envelope{}
	}
	body["success"] = true
	writeJSON(w, http.StatusOK, body)
}

func writeCreated(w http.ResponseWriter, body envelope) {
	body["success"] = true
	writeJSON(w, http.StatusCreated, body)
}

// writeError maps the domain taxonomy onto HTTP status codes. Anything
// outside the taxonomy is an upstream failure and reported as a 500
// without leaking driver details.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	msg := err.Error()
	switch {
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		status = http.StatusConflict
	default:
		msg = "internal error"
	}
	writeJSON(w, status, envelope{"success": false, "error": msg})
}

// userFacing shapes an error for a WebSocket error event; upstream
// failures are masked the same way as over HTTP.
func userFacing(err error) string {
	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrConflict):
		return err.Error()
	default:
		return "internal error"
	}
}

// currentUser pulls the authenticated id the middleware stored.
func currentUser(r *http.Request) (uuid.UUID, bool) {
	id, ok := r.Context().Value(middleware.UserIDKey).(uuid.UUID)
	return id, ok
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return domain.ErrValidation
	}
	return nil
}
