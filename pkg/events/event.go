package events

import (
	"context"
	"time"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "FILE_INGESTED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Publisher ships events to the bus.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Handler processes one delivered event. A returned error asks for
// redelivery where the bus supports it.
type Handler func(ctx context.Context, event Event) error

// Subscriber attaches a handler to events matching subject.
type Subscriber interface {
	Subscribe(ctx context.Context, subject, durableName string, handler Handler) error
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}
