package httputil

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/voicebridge-systems/voicebridge/internal/apierr"
)

// ErrorResponse is the uniform failure body for every relay endpoint.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// WriteJSON writes data as a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// WriteError writes a plain error body with the given status.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorResponse{Error: message})
}

// WriteAPIError classifies err and writes the matching status and body.
// Upstream errors surface the provider diagnostic under "details".
func WriteAPIError(w http.ResponseWriter, err error) {
	e := apierr.From(err)
	WriteJSON(w, e.Kind.HTTPStatus(), ErrorResponse{
		Error:   e.Message,
		Details: e.Details,
	})
}
