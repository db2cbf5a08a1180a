package webhook

import (
	"context"
	"errors"
	"fmt"

	"github.com/voicebridge-systems/voicebridge/internal/logging"
	"github.com/voicebridge-systems/voicebridge/internal/subscriptions"
)

// Event-type tags the payments provider delivers today. Tags added by the
// provider later fall through to the dispatcher default.
const (
	EventCheckoutCompleted   = "checkout.session.completed"
	EventSubscriptionCreated = "customer.subscription.created"
	EventSubscriptionUpdated = "customer.subscription.updated"
	EventSubscriptionDeleted = "customer.subscription.deleted"
	EventInvoicePaid         = "invoice.paid"
	EventInvoiceFailed       = "invoice.payment_failed"
)

// NewPaymentDispatcher builds the closed tag-to-handler mapping for
// payment provider events. Every handler is idempotent: a redelivered
// event ID is recorded once and otherwise ignored.
func NewPaymentDispatcher(store subscriptions.Store, logger *logging.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.Default()
	}
	ph := &paymentHandlers{store: store, logger: logger}

	d := NewDispatcher(logger)
	d.Register(EventCheckoutCompleted, HandlerFunc(ph.checkoutCompleted))
	d.Register(EventSubscriptionCreated, HandlerFunc(ph.subscriptionChanged))
	d.Register(EventSubscriptionUpdated, HandlerFunc(ph.subscriptionChanged))
	d.Register(EventSubscriptionDeleted, HandlerFunc(ph.subscriptionDeleted))
	d.Register(EventInvoicePaid, HandlerFunc(ph.invoicePaid))
	d.Register(EventInvoiceFailed, HandlerFunc(ph.invoiceFailed))
	return d
}

type paymentHandlers struct {
	store  subscriptions.Store
	logger *logging.Logger
}

type checkoutSession struct {
	ClientReferenceID string            `json:"client_reference_id"`
	CustomerEmail     string            `json:"customer_email"`
	Subscription      string            `json:"subscription"`
	Metadata          map[string]string `json:"metadata"`
}

type subscriptionObject struct {
	ID       string            `json:"id"`
	Status   string            `json:"status"`
	Metadata map[string]string `json:"metadata"`
}

type invoiceObject struct {
	ID           string            `json:"id"`
	Subscription string            `json:"subscription"`
	Metadata     map[string]string `json:"metadata"`
}

// firstDelivery records the event ID, returning false for redeliveries.
func (ph *paymentHandlers) firstDelivery(ctx context.Context, ev Event) (bool, error) {
	fresh, err := ph.store.MarkSeen(ctx, ev.ID)
	if err != nil {
		return false, fmt.Errorf("record event %s: %w", ev.ID, err)
	}
	if !fresh {
		ph.logger.InfoContext(ctx, "webhook event redelivered, skipping",
			logging.EventID(ev.ID),
			logging.EventType(ev.Type),
		)
	}
	return fresh, nil
}

func (ph *paymentHandlers) checkoutCompleted(ctx context.Context, ev Event) error {
	fresh, err := ph.firstDelivery(ctx, ev)
	if err != nil || !fresh {
		return err
	}

	var session checkoutSession
	if err := ev.Object(&session); err != nil {
		return err
	}
	if session.ClientReferenceID == "" {
		ph.logger.WarnContext(ctx, "checkout session has no client reference",
			logging.EventID(ev.ID),
		)
		return nil
	}

	plan := subscriptions.Plan{Plan: session.Metadata["plan_name"], Status: "active"}
	if err := ph.store.SetPlan(ctx, session.ClientReferenceID, plan); err != nil {
		return err
	}

	ph.logger.InfoContext(ctx, "checkout completed",
		logging.EventID(ev.ID),
		logging.UserID(session.ClientReferenceID),
	)
	return nil
}

func (ph *paymentHandlers) subscriptionChanged(ctx context.Context, ev Event) error {
	fresh, err := ph.firstDelivery(ctx, ev)
	if err != nil || !fresh {
		return err
	}

	var sub subscriptionObject
	if err := ev.Object(&sub); err != nil {
		return err
	}
	userID := sub.Metadata["user_id"]
	if userID == "" {
		ph.logger.WarnContext(ctx, "subscription event has no user metadata",
			logging.EventID(ev.ID),
			logging.EventType(ev.Type),
		)
		return nil
	}

	plan := subscriptions.Plan{Plan: sub.Metadata["plan_name"], Status: sub.Status}
	if err := ph.store.SetPlan(ctx, userID, plan); err != nil {
		return err
	}

	ph.logger.InfoContext(ctx, "subscription state recorded",
		logging.EventID(ev.ID),
		logging.EventType(ev.Type),
		logging.UserID(userID),
	)
	return nil
}

func (ph *paymentHandlers) subscriptionDeleted(ctx context.Context, ev Event) error {
	fresh, err := ph.firstDelivery(ctx, ev)
	if err != nil || !fresh {
		return err
	}

	var sub subscriptionObject
	if err := ev.Object(&sub); err != nil {
		return err
	}
	userID := sub.Metadata["user_id"]
	if userID == "" {
		return nil
	}

	if err := ph.store.ClearPlan(ctx, userID); err != nil {
		return err
	}

	ph.logger.InfoContext(ctx, "subscription cancelled",
		logging.EventID(ev.ID),
		logging.UserID(userID),
	)
	return nil
}

func (ph *paymentHandlers) invoicePaid(ctx context.Context, ev Event) error {
	fresh, err := ph.firstDelivery(ctx, ev)
	if err != nil || !fresh {
		return err
	}

	var inv invoiceObject
	if err := ev.Object(&inv); err != nil {
		return err
	}

	if userID := inv.Metadata["user_id"]; userID != "" {
		plan, err := ph.store.GetPlan(ctx, userID)
		if err != nil && !errors.Is(err, subscriptions.ErrNotFound) {
			return err
		}
		if err == nil && plan.Status != "active" {
			plan.Status = "active"
			if err := ph.store.SetPlan(ctx, userID, plan); err != nil {
				return err
			}
		}
	}

	ph.logger.InfoContext(ctx, "invoice paid",
		logging.EventID(ev.ID),
	)
	return nil
}

func (ph *paymentHandlers) invoiceFailed(ctx context.Context, ev Event) error {
	fresh, err := ph.firstDelivery(ctx, ev)
	if err != nil || !fresh {
		return err
	}

	var inv invoiceObject
	if err := ev.Object(&inv); err != nil {
		return err
	}

	if userID := inv.Metadata["user_id"]; userID != "" {
		plan, err := ph.store.GetPlan(ctx, userID)
		if err != nil {
			// Only a missing plan starts from scratch; a transport error
			// must not overwrite the recorded plan name with an empty one.
			if !errors.Is(err, subscriptions.ErrNotFound) {
				return err
			}
			plan = subscriptions.Plan{}
		}
		plan.Status = "past_due"
		if err := ph.store.SetPlan(ctx, userID, plan); err != nil {
			return err
		}
	}

	ph.logger.WarnContext(ctx, "invoice payment failed",
		logging.EventID(ev.ID),
	)
	return nil
}
