package hookbus

// Conventional actions used by the method and property helpers.
const (
	ActionCall = "call"
	ActionGet  = "get"
	ActionSet  = "set"
)

// RegisterMethod registers fn under pattern+".call".
func (d *Dispatcher) RegisterMethod(pattern string, fn HookFunc, opts ...HookOption) (UnregisterFunc, error) {
	return d.AddHook(pattern+Separator+ActionCall, fn, opts...)
}

// RegisterProperty registers getter under pattern+".get" and setter under
// pattern+".set". Either may be nil to make the property read-only or
// write-only, but not both. The returned function removes both hooks.
func (d *Dispatcher) RegisterProperty(pattern string, getter, setter HookFunc, opts ...HookOption) (UnregisterFunc, error) {
	if getter == nil && setter == nil {
		return nil, ErrNilHookFunc
	}

	var unregisters []UnregisterFunc
	if getter != nil {
		unget, err := d.AddHook(pattern+Separator+ActionGet, getter, opts...)
		if err != nil {
			return nil, err
		}
		unregisters = append(unregisters, unget)
	}
	if setter != nil {
		unset, err := d.AddHook(pattern+Separator+ActionSet, setter, opts...)
		if err != nil {
			for _, u := range unregisters {
				u()
			}
			return nil, err
		}
		unregisters = append(unregisters, unset)
	}

	return func() {
		for _, u := range unregisters {
			u()
		}
	}, nil
}
