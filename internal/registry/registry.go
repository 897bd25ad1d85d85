package registry

import (
	"fmt"
	"sync"

	"github.com/vk/buildgrid/internal/target"
)

// Registry stores target definitions in declaration order.
type Registry struct {
	mu      sync.RWMutex
	targets map[string]*target.Definition
	order   []string
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		targets: make(map[string]*target.Definition),
	}
}

// Register adds a definition. It fails with *DuplicateTargetError if the name
// is already present, and with a plain error for a structurally invalid
// definition.
func (r *Registry) Register(def *target.Definition) error {
	if def == nil {
		return fmt.Errorf("cannot register a nil target definition")
	}
	if err := def.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.targets[def.Name]; exists {
		return &DuplicateTargetError{Name: def.Name}
	}
	r.targets[def.Name] = def
	r.order = append(r.order, def.Name)
	return nil
}

// MustRegister is Register for definitions built in Go code, where a failure
// is a programming error.
func (r *Registry) MustRegister(defs ...*target.Definition) {
	for _, def := range defs {
		if err := r.Register(def); err != nil {
			panic(err)
		}
	}
}

// Resolve returns the definition registered under name.
func (r *Registry) Resolve(name string) (*target.Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.targets[name]
	if !ok {
		return nil, &UnknownTargetError{Name: name}
	}
	return def, nil
}

// Index returns the declaration position of name, or -1.
func (r *Registry) Index(name string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i, n := range r.order {
		if n == name {
			return i
		}
	}
	return -1
}

// All returns every definition in declaration order.
func (r *Registry) All() []*target.Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*target.Definition, 0, len(r.order))
	for _, n := range r.order {
		out = append(out, r.targets[n])
	}
	return out
}

// Names returns every registered name in declaration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of registered targets.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
