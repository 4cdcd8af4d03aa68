package invoker

import (
	"fmt"
	"sort"
	"sync"
)

// Constructor builds an invoker from configuration.
type Constructor func(cfg Config) (Invoker, error)

// Registry maps variant names to constructors.
type Registry struct {
	mu           sync.RWMutex
	constructors map[string]Constructor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{constructors: make(map[string]Constructor)}
}

// Register adds or replaces the constructor for name.
func (r *Registry) Register(name string, c Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.constructors[name] = c
}

// New builds the invoker selected by cfg.Type and wraps it with metrics.
func (r *Registry) New(cfg Config) (Invoker, error) {
	r.mu.RLock()
	c, ok := r.constructors[cfg.Type]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported invoker type %q (available: %v)", cfg.Type, r.Names())
	}
	inv, err := c(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating %s invoker: %w", cfg.Type, err)
	}
	return Instrument(inv), nil
}

// Names returns the registered variant names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.constructors))
	for name := range r.constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var defaultRegistry = NewRegistry()

// Register adds a constructor to the default registry. Variant packages
// call it from init().
func Register(name string, c Constructor) {
	defaultRegistry.Register(name, c)
}

// New builds an invoker from the default registry.
func New(cfg Config) (Invoker, error) {
	return defaultRegistry.New(cfg)
}

// Names lists the variants in the default registry.
func Names() []string {
	return defaultRegistry.Names()
}
