// Package journal fans verified webhook events out to NATS JetStream so
// downstream consumers (analytics, CRM sync) can react without polling
// the provider. It is optional: a publish failure never fails the
// inbound request.
package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/voicebridge-systems/voicebridge/internal/webhook"
)

// Publisher records verified events for downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, ev webhook.Event) error
	Close() error
}

// Entry is the journal wire format.
type Entry struct {
	EventID    string          `json:"event_id"`
	EventType  string          `json:"event_type"`
	ReceivedAt time.Time       `json:"received_at"`
	Data       json.RawMessage `json:"data,omitempty"`
}

// streamConfig is the relay events stream definition.
var streamConfig = jetstream.StreamConfig{
	Name:      "RELAY_EVENTS",
	Subjects:  []string{"relay.events.>"},
	MaxAge:    24 * time.Hour,
	MaxBytes:  100 * 1024 * 1024,
	MaxMsgs:   100000,
	Retention: jetstream.InterestPolicy,
	Storage:   jetstream.FileStorage,
}

// JetStreamJournal publishes entries to a NATS JetStream stream.
type JetStreamJournal struct {
	conn *nats.Conn
	js   jetstream.JetStream
}

// NewJetStreamJournal connects to NATS and ensures the stream exists.
func NewJetStreamJournal(ctx context.Context, natsURL string) (*JetStreamJournal, error) {
	conn, err := nats.Connect(natsURL,
		nats.Name("voicebridge-relay"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	if _, err := js.CreateOrUpdateStream(ctx, streamConfig); err != nil {
		conn.Close()
		return nil, fmt.Errorf("create events stream: %w", err)
	}

	return &JetStreamJournal{conn: conn, js: js}, nil
}

// Publish writes the event under relay.events.<type>.
func (j *JetStreamJournal) Publish(ctx context.Context, ev webhook.Event) error {
	entry := Entry{
		EventID:    ev.ID,
		EventType:  ev.Type,
		ReceivedAt: time.Now().UTC(),
		Data:       ev.Data,
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal journal entry: %w", err)
	}

	subject := "relay.events." + ev.Type
	if _, err := j.js.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("publish journal entry: %w", err)
	}
	return nil
}

func (j *JetStreamJournal) Close() error {
	j.conn.Close()
	return nil
}

// Noop discards entries. Used when the journal is disabled.
type Noop struct{}

func (Noop) Publish(context.Context, webhook.Event) error { return nil }
func (Noop) Close() error                                 { return nil }
