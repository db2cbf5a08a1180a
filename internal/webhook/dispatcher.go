package webhook

import (
	"context"

	"github.com/voicebridge-systems/voicebridge/internal/logging"
	"github.com/voicebridge-systems/voicebridge/internal/metrics"
)

// Handler processes one verified event of a known type.
type Handler interface {
	Handle(ctx context.Context, ev Event) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, ev Event) error

func (f HandlerFunc) Handle(ctx context.Context, ev Event) error {
	return f(ctx, ev)
}

// Dispatcher routes verified events by type tag through a closed mapping.
// Unknown tags fall through to a default handler that records the tag and
// succeeds, so provider-added event types never break acknowledgement.
type Dispatcher struct {
	handlers map[string]Handler
	logger   *logging.Logger
}

// NewDispatcher constructs an empty dispatcher.
func NewDispatcher(logger *logging.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.Default()
	}
	return &Dispatcher{
		handlers: make(map[string]Handler),
		logger:   logger,
	}
}

// Register maps an event-type tag to a handler. Adding support for a new
// provider event is one Register call.
func (d *Dispatcher) Register(eventType string, h Handler) {
	d.handlers[eventType] = h
}

// Dispatch routes ev to its handler. A handler error is returned so the
// caller can log it as a dispatch failure, but dispatch of an unknown tag
// never errors.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) error {
	h, known := d.handlers[ev.Type]
	if !known {
		d.logger.InfoContext(ctx, "unhandled webhook event type",
			logging.EventType(ev.Type),
			logging.EventID(ev.ID),
		)
		metrics.WebhookEventsTotal.WithLabelValues(ev.Type, "unhandled").Inc()
		return nil
	}

	if err := h.Handle(ctx, ev); err != nil {
		metrics.WebhookEventsTotal.WithLabelValues(ev.Type, "error").Inc()
		return err
	}

	metrics.WebhookEventsTotal.WithLabelValues(ev.Type, "ok").Inc()
	return nil
}
