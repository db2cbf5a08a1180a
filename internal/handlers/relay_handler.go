package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/voicebridge-systems/voicebridge/internal/apierr"
	"github.com/voicebridge-systems/voicebridge/internal/httputil"
	"github.com/voicebridge-systems/voicebridge/internal/logging"
	"github.com/voicebridge-systems/voicebridge/internal/metrics"
	"github.com/voicebridge-systems/voicebridge/internal/payments"
	"github.com/voicebridge-systems/voicebridge/internal/voice"
)

// PaymentsClient is the payments provider surface the relay forwards to.
type PaymentsClient interface {
	CreateCheckoutSession(ctx context.Context, params payments.CheckoutParams) (*payments.CheckoutSession, error)
}

// VoiceClient is the voice/chat provider surface the relay forwards to.
type VoiceClient interface {
	StartCall(ctx context.Context, params voice.CallParams) (*voice.Call, error)
	SendChat(ctx context.Context, params voice.ChatParams) (*voice.ChatReply, error)
}

// RelayHandler forwards validated client requests to the providers and
// relays their responses. No state, no retries.
type RelayHandler struct {
	payments PaymentsClient
	voice    VoiceClient
	logger   *logging.Logger
}

func NewRelayHandler(paymentsClient PaymentsClient, voiceClient VoiceClient, logger *logging.Logger) *RelayHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &RelayHandler{
		payments: paymentsClient,
		voice:    voiceClient,
		logger:   logger,
	}
}

type startCallRequest struct {
	PhoneNumber string `json:"phone_number"`
	UserID      string `json:"user_id"`
}

// HandleStartCall implements POST /api/v1/calls.
func (h *RelayHandler) HandleStartCall(w http.ResponseWriter, r *http.Request) {
	const endpoint = "calls"

	if r.Method != http.MethodPost {
		h.methodNotAllowed(w, endpoint)
		return
	}

	var req startCallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.fail(r.Context(), w, endpoint, apierr.Validation("invalid JSON body"))
		return
	}
	if req.PhoneNumber == "" {
		h.fail(r.Context(), w, endpoint, apierr.Validation("phone_number is required"))
		return
	}
	if req.UserID == "" {
		h.fail(r.Context(), w, endpoint, apierr.Validation("user_id is required"))
		return
	}

	call, err := h.voice.StartCall(r.Context(), voice.CallParams{
		PhoneNumber: req.PhoneNumber,
		UserID:      req.UserID,
	})
	if err != nil {
		h.logger.ErrorContext(r.Context(), "start call failed",
			logging.UserID(req.UserID),
			logging.Error(err),
		)
		h.fail(r.Context(), w, endpoint, err)
		return
	}

	h.respond(w, endpoint, http.StatusOK, call)
}

type chatRequest struct {
	Message     string `json:"message"`
	UserID      string `json:"user_id"`
	SessionID   string `json:"session_id"`
	PhoneNumber string `json:"phone_number"`
}

// HandleChat implements POST /api/v1/chat.
func (h *RelayHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	const endpoint = "chat"

	if r.Method != http.MethodPost {
		h.methodNotAllowed(w, endpoint)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.fail(r.Context(), w, endpoint, apierr.Validation("invalid JSON body"))
		return
	}
	if req.Message == "" {
		h.fail(r.Context(), w, endpoint, apierr.Validation("message is required"))
		return
	}
	if req.UserID == "" {
		h.fail(r.Context(), w, endpoint, apierr.Validation("user_id is required"))
		return
	}

	reply, err := h.voice.SendChat(r.Context(), voice.ChatParams{
		Message:     req.Message,
		UserID:      req.UserID,
		SessionID:   req.SessionID,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		h.logger.ErrorContext(r.Context(), "chat relay failed",
			logging.UserID(req.UserID),
			logging.Error(err),
		)
		h.fail(r.Context(), w, endpoint, err)
		return
	}

	h.respond(w, endpoint, http.StatusOK, reply)
}

type checkoutRequest struct {
	PriceID  string `json:"price_id"`
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	PlanName string `json:"plan_name"`
}

// HandleCheckout implements POST /api/v1/checkout.
func (h *RelayHandler) HandleCheckout(w http.ResponseWriter, r *http.Request) {
	const endpoint = "checkout"

	if r.Method != http.MethodPost {
		h.methodNotAllowed(w, endpoint)
		return
	}

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.fail(r.Context(), w, endpoint, apierr.Validation("invalid JSON body"))
		return
	}
	if req.PriceID == "" {
		h.fail(r.Context(), w, endpoint, apierr.Validation("price_id is required"))
		return
	}
	if req.UserID == "" {
		h.fail(r.Context(), w, endpoint, apierr.Validation("user_id is required"))
		return
	}
	if req.Email == "" {
		h.fail(r.Context(), w, endpoint, apierr.Validation("email is required"))
		return
	}

	session, err := h.payments.CreateCheckoutSession(r.Context(), payments.CheckoutParams{
		PriceID:  req.PriceID,
		UserID:   req.UserID,
		Email:    req.Email,
		PlanName: req.PlanName,
	})
	if err != nil {
		h.logger.ErrorContext(r.Context(), "checkout session creation failed",
			logging.UserID(req.UserID),
			logging.Error(err),
		)
		h.fail(r.Context(), w, endpoint, err)
		return
	}

	h.respond(w, endpoint, http.StatusOK, session)
}

func (h *RelayHandler) respond(w http.ResponseWriter, endpoint string, status int, payload interface{}) {
	metrics.RelayRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
	httputil.WriteJSON(w, status, payload)
}

func (h *RelayHandler) fail(ctx context.Context, w http.ResponseWriter, endpoint string, err error) {
	e := apierr.From(err)
	status := e.Kind.HTTPStatus()
	metrics.RelayRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
	h.logger.WarnContext(ctx, "relay request failed",
		logging.Endpoint(endpoint),
		logging.Status(status),
		logging.Reason(e.Kind.String()),
		logging.Error(e),
	)
	httputil.WriteAPIError(w, e)
}

func (h *RelayHandler) methodNotAllowed(w http.ResponseWriter, endpoint string) {
	metrics.RelayRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(http.StatusMethodNotAllowed)).Inc()
	httputil.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
}
