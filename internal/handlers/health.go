package handlers

import (
	"net/http"

	"github.com/voicebridge-systems/voicebridge/internal/httputil"
)

// Health implements GET /healthz.
func Health(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// Ready implements GET /readyz. The relay holds no warm-up state; it is
// ready as soon as it serves.
func Ready(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
