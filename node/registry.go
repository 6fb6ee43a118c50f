package node

import (
	"sort"
	"sync"

	"github.com/kbukum/nodegraph/errors"
)

// Observer is notified of every kind registered in a Registry it subscribed
// to.
type Observer interface {
	KindRegistered(k *Kind)
}

// Registry provides named kind lookup for dynamic graph construction.
// Registries can subscribe to each other so that kinds defined in one
// become available in the other.
type Registry struct {
	mu        sync.RWMutex
	kinds     map[string]*Kind
	order     []*Kind
	observers []Observer
}

// NewRegistry creates a new empty Registry.
func NewRegistry() *Registry {
	return &Registry{kinds: make(map[string]*Kind)}
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the registry used by Define. It holds the
// built-in kinds.
func DefaultRegistry() *Registry { return defaultRegistry }

// Define creates a kind and registers it.
func (r *Registry) Define(name string, sig Signature, fn Func, opts ...KindOption) (*Kind, error) {
	k, err := NewKind(name, sig, fn, opts...)
	if err != nil {
		return nil, err
	}
	if err := r.Register(k); err != nil {
		return nil, err
	}
	return k, nil
}

// Register adds a kind and notifies observers. Registering the same kind
// twice is a no-op; another kind with a taken name is an error.
func (r *Registry) Register(k *Kind) error {
	r.mu.Lock()
	if existing, ok := r.kinds[k.name]; ok {
		r.mu.Unlock()
		if existing == k {
			return nil
		}
		return errors.AlreadyExists("kind", k.name)
	}
	r.kinds[k.name] = k
	r.order = append(r.order, k)
	observers := append([]Observer(nil), r.observers...)
	r.mu.Unlock()

	for _, o := range observers {
		o.KindRegistered(k)
	}
	return nil
}

// KindRegistered makes a Registry usable as an Observer of another one.
// Name clashes keep the kind registered first.
func (r *Registry) KindRegistered(k *Kind) {
	_ = r.Register(k)
}

// Lookup retrieves a kind by name.
func (r *Registry) Lookup(name string) (*Kind, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	k, ok := r.kinds[name]
	return k, ok
}

// Get is like Lookup but returns a NOT_FOUND error for unknown names.
func (r *Registry) Get(name string) (*Kind, error) {
	k, ok := r.Lookup(name)
	if !ok {
		return nil, errors.NotFound("kind", name)
	}
	return k, nil
}

// Kinds returns the registered kinds in registration order.
func (r *Registry) Kinds() []*Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Kind(nil), r.order...)
}

// List returns sorted names of all registered kinds.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.kinds))
	for name := range r.kinds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Subscribe replays every registered kind to o and then keeps notifying it
// of new ones.
func (r *Registry) Subscribe(o Observer) {
	r.mu.Lock()
	existing := append([]*Kind(nil), r.order...)
	r.observers = append(r.observers, o)
	r.mu.Unlock()

	for _, k := range existing {
		o.KindRegistered(k)
	}
}

// Unsubscribe stops notifying o.
func (r *Registry) Unsubscribe(o Observer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.observers {
		if existing == o {
			r.observers = append(r.observers[:i], r.observers[i+1:]...)
			return
		}
	}
}
