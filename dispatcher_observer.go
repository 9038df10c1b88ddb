package hookbus

import (
	"context"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
)

// observerRegistration holds information about a registered observer
type observerRegistration struct {
	observer     Observer
	eventTypes   map[string]bool // set of event types this observer is interested in
	registeredAt time.Time
}

func (r *observerRegistration) wants(eventType string) bool {
	return len(r.eventTypes) == 0 || r.eventTypes[eventType]
}

// RegisterObserver adds an observer to receive dispatcher events.
// If eventTypes is empty, the observer receives all events.
func (d *Dispatcher) RegisterObserver(observer Observer, eventTypes ...string) error {
	if observer == nil {
		return ErrObserverNil
	}

	d.observerMutex.Lock()
	defer d.observerMutex.Unlock()

	eventTypeMap := make(map[string]bool)
	for _, eventType := range eventTypes {
		eventTypeMap[eventType] = true
	}

	d.observers[observer.ObserverID()] = &observerRegistration{
		observer:     observer,
		eventTypes:   eventTypeMap,
		registeredAt: time.Now(),
	}

	d.logger.Info("Observer registered", "observerID", observer.ObserverID(), "eventTypes", eventTypes)
	return nil
}

// UnregisterObserver removes an observer. It is idempotent.
func (d *Dispatcher) UnregisterObserver(observer Observer) error {
	if observer == nil {
		return ErrObserverNil
	}

	d.observerMutex.Lock()
	defer d.observerMutex.Unlock()

	if _, exists := d.observers[observer.ObserverID()]; exists {
		delete(d.observers, observer.ObserverID())
		d.logger.Info("Observer unregistered", "observerID", observer.ObserverID())
	}

	return nil
}

// NotifyObservers sends a CloudEvent to every interested observer. Delivery is
// asynchronous unless the dispatcher was built WithSynchronousEvents or ctx
// carries WithSynchronousNotification. Observer errors and panics are logged,
// never returned.
func (d *Dispatcher) NotifyObservers(ctx context.Context, event cloudevents.Event) error {
	if event.Time().IsZero() {
		event.SetTime(time.Now())
	}
	if err := ValidateCloudEvent(event); err != nil {
		d.logger.Error("Invalid CloudEvent", "eventType", event.Type(), "error", err)
		return err
	}

	d.observerMutex.RLock()
	targets := make([]*observerRegistration, 0, len(d.observers))
	for _, registration := range d.observers {
		if registration.wants(event.Type()) {
			targets = append(targets, registration)
		}
	}
	d.observerMutex.RUnlock()

	inline := d.syncEvents || IsSynchronousNotification(ctx)
	for _, registration := range targets {
		if inline {
			d.deliver(ctx, registration.observer, event)
			continue
		}
		d.notifyWG.Add(1)
		go func(observer Observer) {
			defer d.notifyWG.Done()
			d.deliver(ctx, observer, event)
		}(registration.observer)
	}

	return nil
}

func (d *Dispatcher) deliver(ctx context.Context, observer Observer, event cloudevents.Event) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Observer panicked", "observerID", observer.ObserverID(), "event", event.Type(), "panic", r)
		}
	}()

	if err := observer.OnEvent(ctx, event); err != nil {
		d.logger.Error("Observer error", "observerID", observer.ObserverID(), "event", event.Type(), "error", err)
	}
}

// GetObservers returns information about currently registered observers.
func (d *Dispatcher) GetObservers() []ObserverInfo {
	d.observerMutex.RLock()
	defer d.observerMutex.RUnlock()

	info := make([]ObserverInfo, 0, len(d.observers))
	for _, registration := range d.observers {
		eventTypes := make([]string, 0, len(registration.eventTypes))
		for eventType := range registration.eventTypes {
			eventTypes = append(eventTypes, eventType)
		}

		info = append(info, ObserverInfo{
			ID:           registration.observer.ObserverID(),
			EventTypes:   eventTypes,
			RegisteredAt: registration.registeredAt,
		})
	}

	return info
}

// Close waits for in-flight asynchronous observer notifications, or until ctx
// is done.
func (d *Dispatcher) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.notifyWG.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// emitEvent builds and publishes a dispatcher event. It skips all work when
// nobody is listening.
func (d *Dispatcher) emitEvent(ctx context.Context, eventType string, data map[string]interface{}) {
	d.observerMutex.RLock()
	listening := len(d.observers) > 0
	d.observerMutex.RUnlock()
	if !listening {
		return
	}

	event := NewCloudEvent(eventType, eventSource, data, nil)
	if err := d.NotifyObservers(ctx, event); err != nil {
		d.logger.Error("Failed to notify observers", "event", eventType, "error", err)
	}
}
