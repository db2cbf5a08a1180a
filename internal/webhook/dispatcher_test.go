package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/voicebridge-systems/voicebridge/internal/logging"
)

func TestDispatch_KnownTag(t *testing.T) {
	d := NewDispatcher(logging.Default())

	var handled Event
	d.Register("invoice.paid", HandlerFunc(func(_ context.Context, ev Event) error {
		handled = ev
		return nil
	}))

	ev := Event{ID: "evt_1", Type: "invoice.paid"}
	if err := d.Dispatch(context.Background(), ev); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if handled.ID != "evt_1" {
		t.Errorf("handler saw event %q, want evt_1", handled.ID)
	}
}

func TestDispatch_UnknownTagSucceeds(t *testing.T) {
	d := NewDispatcher(logging.Default())
	d.Register("invoice.paid", HandlerFunc(func(context.Context, Event) error {
		t.Error("known handler should not fire for unknown tag")
		return nil
	}))

	ev := Event{ID: "evt_2", Type: "payment_method.attached"}
	if err := d.Dispatch(context.Background(), ev); err != nil {
		t.Errorf("unknown tag must not error, got %v", err)
	}
}

func TestDispatch_HandlerErrorPropagates(t *testing.T) {
	d := NewDispatcher(logging.Default())
	boom := errors.New("store unavailable")
	d.Register("invoice.paid", HandlerFunc(func(context.Context, Event) error {
		return boom
	}))

	err := d.Dispatch(context.Background(), Event{ID: "evt_3", Type: "invoice.paid"})
	if !errors.Is(err, boom) {
		t.Errorf("expected handler error, got %v", err)
	}
}

func TestParseEvent(t *testing.T) {
	body := []byte(`{"id":"evt_9","type":"invoice.paid","data":{"object":{"id":"in_1"}}}`)

	ev, err := ParseEvent(body)
	if err != nil {
		t.Fatalf("ParseEvent() error = %v", err)
	}
	if ev.ID != "evt_9" || ev.Type != "invoice.paid" {
		t.Errorf("unexpected envelope: %+v", ev)
	}

	var obj struct {
		ID string `json:"id"`
	}
	if err := ev.Object(&obj); err != nil {
		t.Fatalf("Object() error = %v", err)
	}
	if obj.ID != "in_1" {
		t.Errorf("object ID = %q, want in_1", obj.ID)
	}
}

func TestParseEvent_Invalid(t *testing.T) {
	if _, err := ParseEvent([]byte("not json")); err == nil {
		t.Error("expected error for invalid JSON")
	}
	if _, err := ParseEvent([]byte(`{"id":"evt_1"}`)); err == nil {
		t.Error("expected error for envelope without type")
	}
	if _, err := ParseEvent([]byte(`{"type":"invoice.paid"}`)); err == nil {
		t.Error("expected error for envelope without id")
	}
}

func TestEventObject_MissingData(t *testing.T) {
	ev := Event{ID: "evt_1", Type: "invoice.paid"}
	var dst json.RawMessage
	if err := ev.Object(&dst); err == nil {
		t.Error("expected error for event without data")
	}

	ev.Data = json.RawMessage(`{}`)
	if err := ev.Object(&dst); err == nil {
		t.Error("expected error for data without object")
	}
}
