package domain

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Backend produces a backup artifact for the target it was built for.
// Implementations own every resource they open (child processes, temp files)
// and release them before returning, success or failure.
type Backend interface {
	Execute(ctx context.Context) (*Artifact, error)
	Kind() EngineKind
}

// BackendFactory builds a Backend bound to a single target.
type BackendFactory func(target Target) Backend

// UnknownEngineError is returned when no backend is registered for a
// target's engine kind. It indicates a configuration defect, not a
// transient fault, so it is never retried.
type UnknownEngineError struct {
	Kind EngineKind
}

func (e *UnknownEngineError) Error() string {
	return fmt.Sprintf("no backend registered for engine kind %q", e.Kind)
}

// Registry maps engine kinds to backend factories. Registration normally
// happens once at startup before any run; the lock makes it safe for tests
// that swap factories in concurrently. Re-registration for the same kind
// overwrites the previous entry.
type Registry struct {
	mu        sync.RWMutex
	factories map[EngineKind]BackendFactory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[EngineKind]BackendFactory)}
}

func (r *Registry) Register(kind EngineKind, factory BackendFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[kind] = factory
}

func (r *Registry) Resolve(kind EngineKind) (BackendFactory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	factory, ok := r.factories[kind]
	if !ok {
		return nil, &UnknownEngineError{Kind: kind}
	}
	return factory, nil
}

// Kinds returns the registered engine kinds, sorted for stable logging.
func (r *Registry) Kinds() []EngineKind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]EngineKind, 0, len(r.factories))
	for kind := range r.factories {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
