package shared

import "context"

// EventHandler reacts to cart events. Handlers run synchronously on the
// publishing goroutine, so a slow handler delays the intent that raised it.
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
	// EventTypes lists the event types to receive; empty means all
	EventTypes() []string
}

// EventPublisher is the only event dependency of the cart store
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventSubscriber registers handlers. Subscribing with no types receives every event.
type EventSubscriber interface {
	Subscribe(handler EventHandler, eventTypes ...string)
	Unsubscribe(handler EventHandler)
}

// EventBus is what the coordinator wires its persistence handler onto
type EventBus interface {
	EventPublisher
	EventSubscriber
}
