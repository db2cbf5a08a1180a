package webhook

import (
	"encoding/json"
	"fmt"
)

// Event is a verified provider notification. It is only ever constructed
// from bytes that passed signature verification, lives for the duration
// of one dispatch, and is never persisted.
type Event struct {
	ID   string          `json:"id"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// ParseEvent decodes the verified envelope bytes. The data member stays
// opaque; individual handlers decode only the fields they need.
func ParseEvent(body []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return Event{}, fmt.Errorf("decode event envelope: %w", err)
	}
	if ev.ID == "" {
		// The ID keys redelivery bookkeeping; an ID-less event would
		// collide with every other ID-less event in the seen set.
		return Event{}, fmt.Errorf("event envelope has no id")
	}
	if ev.Type == "" {
		return Event{}, fmt.Errorf("event envelope has no type")
	}
	return ev, nil
}

// Object decodes the provider object nested under data into dst.
func (e Event) Object(dst interface{}) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("event %s has no data", e.ID)
	}
	var wrapper struct {
		Object json.RawMessage `json:"object"`
	}
	if err := json.Unmarshal(e.Data, &wrapper); err != nil {
		return fmt.Errorf("decode event data: %w", err)
	}
	if len(wrapper.Object) == 0 {
		return fmt.Errorf("event %s data has no object", e.ID)
	}
	if err := json.Unmarshal(wrapper.Object, dst); err != nil {
		return fmt.Errorf("decode event object: %w", err)
	}
	return nil
}
