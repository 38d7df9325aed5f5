// Package pubsub provides a generic publish/subscribe event system used for
// repository change notifications and log fan-out.
package pubsub

import (
	"context"
	"time"
)

// EventType represents the type of event being published.
type EventType string

const (
	// AddedEvent is published after a local archive joins the repository.
	AddedEvent EventType = "added"
	// ImportedEvent is published after a remote archive is pulled in.
	ImportedEvent EventType = "imported"
	// RemovedEvent is published after a distribution leaves the repository.
	RemovedEvent EventType = "removed"
	// LoggedEvent carries a formatted log line.
	LoggedEvent EventType = "logged"
)

// Event represents a published event with a typed payload.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Timestamp time.Time
}

// Subscriber provides a subscription channel for events.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}

// Publisher allows publishing events with a typed payload.
type Publisher[T any] interface {
	Publish(eventType EventType, payload T)
}
