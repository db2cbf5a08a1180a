package handlers

import (
	"io"
	"net/http"

	"github.com/voicebridge-systems/voicebridge/internal/apierr"
	"github.com/voicebridge-systems/voicebridge/internal/httputil"
	"github.com/voicebridge-systems/voicebridge/internal/journal"
	"github.com/voicebridge-systems/voicebridge/internal/logging"
	"github.com/voicebridge-systems/voicebridge/internal/metrics"
	"github.com/voicebridge-systems/voicebridge/internal/webhook"
)

// SignatureHeader carries the provider signature for webhook deliveries.
const SignatureHeader = "X-Relay-Signature"

// maxWebhookBody bounds how much of a delivery the relay will read.
const maxWebhookBody = 1 << 20

// WebhookHandler verifies and dispatches inbound payment events.
type WebhookHandler struct {
	verifier   *webhook.Verifier
	dispatcher *webhook.Dispatcher
	journal    journal.Publisher
	logger     *logging.Logger
}

// NewWebhookHandler wires the verifier, dispatcher, and optional journal.
func NewWebhookHandler(verifier *webhook.Verifier, dispatcher *webhook.Dispatcher, j journal.Publisher, logger *logging.Logger) *WebhookHandler {
	if j == nil {
		j = journal.Noop{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &WebhookHandler{
		verifier:   verifier,
		dispatcher: dispatcher,
		journal:    j,
		logger:     logger,
	}
}

// HandleWebhook implements POST /webhook. The body is read raw and
// verified byte-exact before any decoding; verification failure rejects
// the delivery with 400 and nothing else runs. After a successful
// dispatch the provider always gets 200 {received:true}, even when a
// handler fails internally, so it does not redeliver forever.
func (h *WebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodPost {
		httputil.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		httputil.WriteAPIError(w, apierr.Validation("unable to read request body"))
		return
	}
	defer r.Body.Close()

	if err := h.verifier.Verify(body, r.Header.Get(SignatureHeader)); err != nil {
		reason := webhook.FailureReason(err)
		metrics.WebhookVerifyFailures.WithLabelValues(reason).Inc()
		h.logger.WarnContext(ctx, "webhook verification failed",
			logging.Reason(reason),
			logging.IP(httputil.GetClientIP(r)),
		)
		httputil.WriteAPIError(w, apierr.Authentication("webhook verification failed", err))
		return
	}

	ev, err := webhook.ParseEvent(body)
	if err != nil {
		h.logger.WarnContext(ctx, "verified webhook body is not a valid envelope",
			logging.Error(err),
		)
		httputil.WriteAPIError(w, apierr.Validation("invalid event envelope"))
		return
	}

	if err := h.journal.Publish(ctx, ev); err != nil {
		metrics.JournalPublishErrors.Inc()
		h.logger.ErrorContext(ctx, "journal publish failed",
			logging.EventID(ev.ID),
			logging.Error(err),
		)
	}

	if err := h.dispatcher.Dispatch(ctx, ev); err != nil {
		// Dispatch failures are our problem, not the provider's: log and
		// acknowledge so the event is not redelivered indefinitely.
		h.logger.ErrorContext(ctx, "webhook dispatch failed",
			logging.EventID(ev.ID),
			logging.EventType(ev.Type),
			logging.Error(err),
		)
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"received": true})
}
