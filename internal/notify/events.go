// Package notify delivers committed registry changes to observers.
//
// Delivery is best effort. Observers that fall behind lose events and
// re-derive state from the registry's read operations.
package notify

import "context"

// EventType names the kind of change.
type EventType string

const (
	AddedEvent   EventType = "added"
	RemovedEvent EventType = "removed"
)

// Event is a published change with a typed payload.
type Event[T any] struct {
	Type    EventType
	Payload T
}

// Subscriber hands out channels of published changes.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}

// Publisher offers changes to subscribers and reports how many missed each.
type Publisher[T any] interface {
	Publish(eventType EventType, payload T) int
}
