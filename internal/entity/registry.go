package entity

import (
	"fmt"
	"reflect"
	"sync"
)

// Registry caches one descriptor per entity type for the process lifetime.
// Registration happens at startup; later reads are concurrent and cheap.
type Registry struct {
	mu      sync.RWMutex
	byType  map[reflect.Type]*Descriptor
	byTable map[string]*Descriptor
	ordered []*Descriptor
}

func NewRegistry() *Registry {
	return &Registry{
		byType:  make(map[reflect.Type]*Descriptor),
		byTable: make(map[string]*Descriptor),
	}
}

// Register derives and caches the descriptor for T, bound to the given table.
// Registering the same type twice returns the cached descriptor. Types whose
// relations target unregistered types fail; register targets first.
func Register[T any](r *Registry, table string) (*Descriptor, error) {
	t := reflect.TypeOf((*T)(nil)).Elem()

	r.mu.Lock()
	defer r.mu.Unlock()

	if d, ok := r.byType[t]; ok {
		return d, nil
	}
	if _, ok := r.byTable[table]; ok {
		return nil, fmt.Errorf("entity: table %q is already registered", table)
	}
	d, err := describe(t, table, r)
	if err != nil {
		return nil, err
	}
	r.byType[t] = d
	r.byTable[table] = d
	r.ordered = append(r.ordered, d)
	return d, nil
}

// MustRegister is Register for startup paths where a bad entity declaration
// is a programming error.
func MustRegister[T any](r *Registry, table string) *Descriptor {
	d, err := Register[T](r, table)
	if err != nil {
		panic(err)
	}
	return d
}

// ForType returns the descriptor registered for a reflect type.
func (r *Registry) ForType(t reflect.Type) (*Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byType[t]
	return d, ok
}

// All returns descriptors in registration order.
func (r *Registry) All() []*Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Descriptor, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// lookupLocked serves describe while the write lock is held.
func (r *Registry) lookupLocked(t reflect.Type) (*Descriptor, bool) {
	d, ok := r.byType[t]
	return d, ok
}
