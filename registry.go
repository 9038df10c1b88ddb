package hookbus

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps namespace ids to namespaces. Each Dispatcher owns exactly one;
// there is no package-level registry, so independent dispatchers never share
// state.
type Registry struct {
	mu         sync.RWMutex
	namespaces map[string]*Namespace
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		namespaces: make(map[string]*Namespace),
	}
}

// Create builds a namespace and stores it under id. An existing namespace with
// the same id is replaced outright and its hooks are lost.
func (r *Registry) Create(id string, phases []string, shared map[string]any) (*Namespace, error) {
	if err := validateNamespaceID(id); err != nil {
		return nil, err
	}
	ph, err := ParsePhases(phases)
	if err != nil {
		return nil, fmt.Errorf("namespace %q: %w", id, err)
	}

	ns := newNamespace(id, ph, shared)

	r.mu.Lock()
	r.namespaces[id] = ns
	r.mu.Unlock()

	return ns, nil
}

// Remove deletes the namespace stored under id.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.namespaces[id]; !exists {
		return fmt.Errorf("%w: %q", ErrNamespaceNotFound, id)
	}
	delete(r.namespaces, id)
	return nil
}

// Lookup returns the namespace stored under id.
func (r *Registry) Lookup(id string) (*Namespace, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ns, exists := r.namespaces[id]
	if !exists {
		return nil, fmt.Errorf("%w: %q", ErrNamespaceNotFound, id)
	}
	return ns, nil
}

// IDs returns the registered namespace ids in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.namespaces))
	for id := range r.namespaces {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of registered namespaces.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.namespaces)
}
