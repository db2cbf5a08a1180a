package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/voicebridge-systems/voicebridge/internal/handlers"
	"github.com/voicebridge-systems/voicebridge/internal/middleware"
)

// NewRouter registers the relay routes. The webhook route takes raw
// bodies straight from the provider and is never behind CORS; the
// /api/v1 surface is browser-facing and is.
func NewRouter(wh *handlers.WebhookHandler, rh *handlers.RelayHandler, cors middleware.CORSConfig) http.Handler {
	mux := http.NewServeMux()

	// Provider webhook
	mux.HandleFunc("/webhook", wh.HandleWebhook)

	// Client-facing relay endpoints
	api := http.NewServeMux()
	api.HandleFunc("/api/v1/calls", rh.HandleStartCall)
	api.HandleFunc("/api/v1/chat", rh.HandleChat)
	api.HandleFunc("/api/v1/checkout", rh.HandleCheckout)
	mux.Handle("/api/v1/", middleware.CORS(cors)(api))

	// Health endpoints
	mux.HandleFunc("/healthz", handlers.Health)
	mux.HandleFunc("/readyz", handlers.Ready)

	// Prometheus metrics
	mux.Handle("/metrics", promhttp.Handler())

	return middleware.RequestID(mux)
}
