// Package subscriptions records the outcome of payment webhook events so
// redelivered events stay idempotent. It is bookkeeping, not a billing
// source of truth: the payments provider owns subscription state.
package subscriptions

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no plan is recorded for a user.
var ErrNotFound = errors.New("subscription not found")

// Plan is the recorded billing state for one user.
type Plan struct {
	Plan   string `json:"plan"`
	Status string `json:"status"`
}

// Store is the bookkeeping contract used by webhook handlers.
// MarkSeen returns false when the event ID was already recorded, which
// makes at-least-once provider redelivery a no-op.
type Store interface {
	MarkSeen(ctx context.Context, eventID string) (bool, error)
	SetPlan(ctx context.Context, userID string, plan Plan) error
	GetPlan(ctx context.Context, userID string) (Plan, error)
	ClearPlan(ctx context.Context, userID string) error
	Close() error
}
