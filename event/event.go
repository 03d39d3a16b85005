// Package event defines the dispatch envelope: the JSON document sent to
// subscribers and stored verbatim in the delivery log.
package event

import (
	"encoding/json"
	"fmt"
	"time"
)

// TimestampLayout is the ISO-8601 layout used for envelope timestamps.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// TestEventType is the event type used by test-sends when none is given.
const TestEventType = "test.event"

// Envelope is the wire payload delivered to an endpoint.
type Envelope struct {
	// Event is the dot-separated event type name (e.g. "purchase.completed").
	Event string `json:"event"`

	// Timestamp is when the envelope was built, ISO-8601 in UTC.
	Timestamp string `json:"timestamp"`

	// Data is the event-specific object.
	Data any `json:"data"`
}

// New builds an envelope stamped with t.
func New(eventType string, data any, t time.Time) Envelope {
	if data == nil {
		data = map[string]any{}
	}
	return Envelope{
		Event:     eventType,
		Timestamp: t.UTC().Format(TimestampLayout),
		Data:      data,
	}
}

// Marshal serializes the envelope. Callers must reuse the returned bytes for
// signing, sending and storage rather than marshalling again.
func (e Envelope) Marshal() ([]byte, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("event: marshal envelope: %w", err)
	}
	return b, nil
}

// Decode parses a stored payload back into an envelope. Data is decoded
// as json.RawMessage so it can be re-encoded without changes.
func Decode(payload []byte) (Envelope, error) {
	var raw struct {
		Event     string          `json:"event"`
		Timestamp string          `json:"timestamp"`
		Data      json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return Envelope{}, fmt.Errorf("event: decode envelope: %w", err)
	}
	return Envelope{Event: raw.Event, Timestamp: raw.Timestamp, Data: raw.Data}, nil
}
