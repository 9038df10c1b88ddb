package hookbus

// Observer pattern interfaces for dispatcher events. Namespace, hook, and fire
// lifecycle changes are published as CloudEvents so hosts can audit or mirror
// dispatcher activity.

import (
	"context"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
)

// Observer defines the interface for objects that want to be notified of
// dispatcher events.
type Observer interface {
	// OnEvent is called when an event the observer subscribed to occurs.
	// Observers should return quickly; asynchronous delivery runs each
	// notification on its own goroutine.
	OnEvent(ctx context.Context, event cloudevents.Event) error

	// ObserverID returns a unique identifier for this observer.
	// Registering a second observer with the same ID replaces the first.
	ObserverID() string
}

// Subject defines the interface for objects that can be observed.
// Dispatcher implements it.
type Subject interface {
	// RegisterObserver adds an observer. If eventTypes is empty the observer
	// receives all events.
	RegisterObserver(observer Observer, eventTypes ...string) error

	// UnregisterObserver removes an observer. It is idempotent.
	UnregisterObserver(observer Observer) error

	// NotifyObservers sends an event to every interested observer.
	NotifyObservers(ctx context.Context, event cloudevents.Event) error

	// GetObservers returns information about currently registered observers.
	GetObservers() []ObserverInfo
}

// ObserverInfo provides information about a registered observer.
type ObserverInfo struct {
	// ID is the unique identifier of the observer
	ID string `json:"id"`

	// EventTypes are the event types this observer is subscribed to.
	// Empty slice means all events.
	EventTypes []string `json:"eventTypes"`

	// RegisteredAt indicates when the observer was registered
	RegisteredAt time.Time `json:"registeredAt"`
}

// EventType constants for dispatcher events, in reverse domain notation.
const (
	// Namespace events
	EventTypeNamespaceCreated = "com.hookbus.namespace.created"
	EventTypeNamespaceRemoved = "com.hookbus.namespace.removed"

	// Hook events
	EventTypeHookRegistered   = "com.hookbus.hook.registered"
	EventTypeHookUnregistered = "com.hookbus.hook.unregistered"

	// Fire events
	EventTypeFireCompleted = "com.hookbus.fire.completed"
	EventTypeFireStopped   = "com.hookbus.fire.stopped"
	EventTypeFireFailed    = "com.hookbus.fire.failed"

	// Config events
	EventTypeConfigApplied = "com.hookbus.config.applied"
)

// FunctionalObserver adapts a function to the Observer interface.
type FunctionalObserver struct {
	id      string
	handler func(ctx context.Context, event cloudevents.Event) error
}

// NewFunctionalObserver creates an observer that calls handler for each event.
func NewFunctionalObserver(id string, handler func(ctx context.Context, event cloudevents.Event) error) Observer {
	return &FunctionalObserver{
		id:      id,
		handler: handler,
	}
}

// OnEvent implements the Observer interface by calling the handler function.
func (f *FunctionalObserver) OnEvent(ctx context.Context, event cloudevents.Event) error {
	return f.handler(ctx, event)
}

// ObserverID implements the Observer interface by returning the observer ID.
func (f *FunctionalObserver) ObserverID() string {
	return f.id
}
