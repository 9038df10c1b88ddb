package hookbus

import "context"

type inlineDeliveryKey struct{}

// WithSynchronousNotification returns a context that makes observer events
// emitted on its behalf arrive before the emitting call returns. Pass it to
// Fire or NotifyObservers when a caller needs to assert on events right away
// without building the whole dispatcher WithSynchronousEvents.
func WithSynchronousNotification(ctx context.Context) context.Context {
	return context.WithValue(ctx, inlineDeliveryKey{}, true)
}

// IsSynchronousNotification reports whether ctx asks for inline delivery.
func IsSynchronousNotification(ctx context.Context) bool {
	inline, _ := ctx.Value(inlineDeliveryKey{}).(bool)
	return inline
}
