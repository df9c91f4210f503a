package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"sellerpromotions/admin-api/internal/core/middleend"
)

// ErrorResponse is the JSON body of every error this service produces.
type ErrorResponse struct {
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
}

// WriteError writes a JSON error response.
func WriteError(w http.ResponseWriter, statusCode int, message string, errs []string, log *slog.Logger) {
	WriteJSON(w, statusCode, ErrorResponse{Message: message, Errors: errs}, log)
}

// WriteUpstreamError answers with the middleend status and body when the
// failure came from the middleend, else with a 500 and the error message.
func WriteUpstreamError(w http.ResponseWriter, err error, log *slog.Logger) {
	var upstream *middleend.Error
	if !errors.As(err, &upstream) {
		WriteError(w, http.StatusInternalServerError, err.Error(), nil, log)
		return
	}

	status := upstream.Status
	if status < 400 || status > 599 {
		status = http.StatusInternalServerError
	}
	if upstream.HasData() {
		WriteRaw(w, status, upstream.Data, log)
		return
	}
	WriteError(w, status, upstream.Message, nil, log)
}

// WriteJSON encodes payload as the response body.
func WriteJSON(w http.ResponseWriter, statusCode int, payload any, log *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(payload); err != nil && log != nil {
		log.Error("failed to encode response", "error", err)
	}
}

// WriteRaw writes an already encoded JSON body. An empty body sends only the status.
func WriteRaw(w http.ResponseWriter, statusCode int, body json.RawMessage, log *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if len(body) == 0 {
		return
	}
	if _, err := w.Write(body); err != nil && log != nil {
		log.Error("failed to write response", "error", err)
	}
}
