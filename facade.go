package hookbus

import "context"

// Facade maps member-style access on one namespace to fires:
// Invoke(name) fires "<id>.<name>.call", Get fires "<id>.<name>.get", and
// Set fires "<id>.<name>.set". name may itself be dotted ("node1.status").
type Facade struct {
	dispatcher *Dispatcher
	id         string
}

// ID returns the namespace the façade fires into.
func (f *Facade) ID() string { return f.id }

// Invoke calls the method name with args and returns its value, or nil when
// no hook produced one.
func (f *Facade) Invoke(ctx context.Context, name string, args ...any) (any, error) {
	res, err := f.dispatcher.Fire(ctx, f.pattern(name, ActionCall), args...)
	if err != nil {
		return nil, err
	}
	return res.Value, nil
}

// Get reads the property name.
func (f *Facade) Get(ctx context.Context, name string) (any, error) {
	res, err := f.dispatcher.Fire(ctx, f.pattern(name, ActionGet))
	if err != nil {
		return nil, err
	}
	return res.Value, nil
}

// Set writes value to the property name.
func (f *Facade) Set(ctx context.Context, name string, value any) error {
	_, err := f.dispatcher.Fire(ctx, f.pattern(name, ActionSet), value)
	return err
}

// RegisterMethod registers fn as the method name on this namespace.
func (f *Facade) RegisterMethod(name string, fn HookFunc, opts ...HookOption) (UnregisterFunc, error) {
	return f.dispatcher.RegisterMethod(f.id+Separator+name, fn, opts...)
}

// RegisterProperty registers getter and setter for the property name.
func (f *Facade) RegisterProperty(name string, getter, setter HookFunc, opts ...HookOption) (UnregisterFunc, error) {
	return f.dispatcher.RegisterProperty(f.id+Separator+name, getter, setter, opts...)
}

// Has reports whether the namespace has a hook for name with the given action.
func (f *Facade) Has(name, action string) (bool, error) {
	return f.dispatcher.HasMatch(f.pattern(name, action))
}

func (f *Facade) pattern(name, action string) string {
	return f.id + Separator + name + Separator + action
}
