package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/inkwell-cms/backend/internal/domain"
)

// ErrorResponse is the error body shape shared by every endpoint:
// {"error":{"code":"...","message":"..."}}.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries a stable machine-readable code and a human message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON marshals v first so an encoding failure cannot produce a partial
// response after headers are sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":{"code":"internal","message":"failed to encode response"}}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}

// writeError writes the standard error body.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}

// writeDomainError maps the service-layer sentinel errors to HTTP responses.
// notFoundMsg names what was being looked up; the handler is the layer that
// knows that.
func (s *Server) writeDomainError(w http.ResponseWriter, err error, notFoundMsg string) {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", "missing required capability")
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, "validation_error", unwrapMessage(err))
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", notFoundMsg)
	default:
		s.log.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "internal server error")
	}
}

// unwrapMessage extracts the human-readable tail from a wrapped sentinel
// error, e.g. "service.PostService.Create: validation error: title: cannot
// be blank" → "title: cannot be blank".
func unwrapMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if i := strings.LastIndex(msg, "validation error: "); i >= 0 {
		return msg[i+len("validation error: "):]
	}
	return msg
}
