package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voicebridge-systems/voicebridge/internal/logging"
	"github.com/voicebridge-systems/voicebridge/internal/subscriptions"
)

func paymentEvent(t *testing.T, id, eventType string, object interface{}) Event {
	t.Helper()
	raw, err := json.Marshal(map[string]interface{}{"object": object})
	require.NoError(t, err)
	return Event{ID: id, Type: eventType, Data: raw}
}

func TestCheckoutCompleted_RecordsPlan(t *testing.T) {
	store := subscriptions.NewMemoryStore(time.Hour)
	d := NewPaymentDispatcher(store, logging.Default())
	ctx := context.Background()

	ev := paymentEvent(t, "evt_co_1", EventCheckoutCompleted, map[string]interface{}{
		"client_reference_id": "user-42",
		"customer_email":      "jo@example.com",
		"metadata":            map[string]string{"plan_name": "pro"},
	})

	require.NoError(t, d.Dispatch(ctx, ev))

	plan, err := store.GetPlan(ctx, "user-42")
	require.NoError(t, err)
	assert.Equal(t, "pro", plan.Plan)
	assert.Equal(t, "active", plan.Status)
}

func TestSubscriptionLifecycle(t *testing.T) {
	store := subscriptions.NewMemoryStore(time.Hour)
	d := NewPaymentDispatcher(store, logging.Default())
	ctx := context.Background()

	created := paymentEvent(t, "evt_sub_1", EventSubscriptionCreated, map[string]interface{}{
		"id":       "sub_1",
		"status":   "trialing",
		"metadata": map[string]string{"user_id": "user-7", "plan_name": "starter"},
	})
	require.NoError(t, d.Dispatch(ctx, created))

	plan, err := store.GetPlan(ctx, "user-7")
	require.NoError(t, err)
	assert.Equal(t, "trialing", plan.Status)

	updated := paymentEvent(t, "evt_sub_2", EventSubscriptionUpdated, map[string]interface{}{
		"id":       "sub_1",
		"status":   "active",
		"metadata": map[string]string{"user_id": "user-7", "plan_name": "starter"},
	})
	require.NoError(t, d.Dispatch(ctx, updated))

	plan, err = store.GetPlan(ctx, "user-7")
	require.NoError(t, err)
	assert.Equal(t, "active", plan.Status)

	deleted := paymentEvent(t, "evt_sub_3", EventSubscriptionDeleted, map[string]interface{}{
		"id":       "sub_1",
		"metadata": map[string]string{"user_id": "user-7"},
	})
	require.NoError(t, d.Dispatch(ctx, deleted))

	_, err = store.GetPlan(ctx, "user-7")
	assert.ErrorIs(t, err, subscriptions.ErrNotFound)
}

func TestRedelivery_IsNoOp(t *testing.T) {
	store := subscriptions.NewMemoryStore(time.Hour)
	d := NewPaymentDispatcher(store, logging.Default())
	ctx := context.Background()

	ev := paymentEvent(t, "evt_dup", EventSubscriptionCreated, map[string]interface{}{
		"id":       "sub_9",
		"status":   "active",
		"metadata": map[string]string{"user_id": "user-9", "plan_name": "pro"},
	})
	require.NoError(t, d.Dispatch(ctx, ev))
	require.NoError(t, store.ClearPlan(ctx, "user-9"))

	// Same event ID again: handler must not rewrite the plan.
	require.NoError(t, d.Dispatch(ctx, ev))
	_, err := store.GetPlan(ctx, "user-9")
	assert.ErrorIs(t, err, subscriptions.ErrNotFound)
}

func TestInvoiceFailed_MarksPastDue(t *testing.T) {
	store := subscriptions.NewMemoryStore(time.Hour)
	d := NewPaymentDispatcher(store, logging.Default())
	ctx := context.Background()

	require.NoError(t, store.SetPlan(ctx, "user-3", subscriptions.Plan{Plan: "pro", Status: "active"}))

	ev := paymentEvent(t, "evt_inv_1", EventInvoiceFailed, map[string]interface{}{
		"id":       "in_1",
		"metadata": map[string]string{"user_id": "user-3"},
	})
	require.NoError(t, d.Dispatch(ctx, ev))

	plan, err := store.GetPlan(ctx, "user-3")
	require.NoError(t, err)
	assert.Equal(t, "past_due", plan.Status)
	assert.Equal(t, "pro", plan.Plan)
}

func TestInvoicePaid_ReactivatesPlan(t *testing.T) {
	store := subscriptions.NewMemoryStore(time.Hour)
	d := NewPaymentDispatcher(store, logging.Default())
	ctx := context.Background()

	require.NoError(t, store.SetPlan(ctx, "user-5", subscriptions.Plan{Plan: "pro", Status: "past_due"}))

	ev := paymentEvent(t, "evt_inv_2", EventInvoicePaid, map[string]interface{}{
		"id":       "in_2",
		"metadata": map[string]string{"user_id": "user-5"},
	})
	require.NoError(t, d.Dispatch(ctx, ev))

	plan, err := store.GetPlan(ctx, "user-5")
	require.NoError(t, err)
	assert.Equal(t, "active", plan.Status)
}

func TestCheckoutCompleted_NoUserReference(t *testing.T) {
	store := subscriptions.NewMemoryStore(time.Hour)
	d := NewPaymentDispatcher(store, logging.Default())

	ev := paymentEvent(t, "evt_co_2", EventCheckoutCompleted, map[string]interface{}{
		"customer_email": "anon@example.com",
	})
	assert.NoError(t, d.Dispatch(context.Background(), ev))
}

type failingStore struct {
	subscriptions.Store
	markSeenErr error
	getPlanErr  error
}

func (f *failingStore) MarkSeen(ctx context.Context, eventID string) (bool, error) {
	if f.markSeenErr != nil {
		return false, f.markSeenErr
	}
	return f.Store.MarkSeen(ctx, eventID)
}

func (f *failingStore) GetPlan(ctx context.Context, userID string) (subscriptions.Plan, error) {
	if f.getPlanErr != nil {
		return subscriptions.Plan{}, f.getPlanErr
	}
	return f.Store.GetPlan(ctx, userID)
}

func TestInvoiceFailed_GetPlanErrorDoesNotWipePlan(t *testing.T) {
	inner := subscriptions.NewMemoryStore(time.Hour)
	ctx := context.Background()
	require.NoError(t, inner.SetPlan(ctx, "user-11", subscriptions.Plan{Plan: "pro", Status: "active"}))

	store := &failingStore{Store: inner, getPlanErr: fmt.Errorf("redis down")}
	d := NewPaymentDispatcher(store, logging.Default())

	ev := paymentEvent(t, "evt_inv_err", EventInvoiceFailed, map[string]interface{}{
		"id":       "in_11",
		"metadata": map[string]string{"user_id": "user-11"},
	})
	assert.Error(t, d.Dispatch(ctx, ev))

	plan, err := inner.GetPlan(ctx, "user-11")
	require.NoError(t, err)
	assert.Equal(t, "pro", plan.Plan, "transport error must not erase the plan name")
	assert.Equal(t, "active", plan.Status)
}

func TestInvoicePaid_GetPlanErrorPropagates(t *testing.T) {
	store := &failingStore{
		Store:      subscriptions.NewMemoryStore(time.Hour),
		getPlanErr: fmt.Errorf("redis down"),
	}
	d := NewPaymentDispatcher(store, logging.Default())

	ev := paymentEvent(t, "evt_paid_err", EventInvoicePaid, map[string]interface{}{
		"id":       "in_12",
		"metadata": map[string]string{"user_id": "user-12"},
	})
	assert.Error(t, d.Dispatch(context.Background(), ev))
}

func TestHandler_StoreErrorPropagates(t *testing.T) {
	store := &failingStore{
		Store:       subscriptions.NewMemoryStore(time.Hour),
		markSeenErr: fmt.Errorf("redis down"),
	}
	d := NewPaymentDispatcher(store, logging.Default())

	ev := paymentEvent(t, "evt_err", EventInvoicePaid, map[string]interface{}{"id": "in_9"})
	assert.Error(t, d.Dispatch(context.Background(), ev))
}
