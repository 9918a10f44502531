package seeder

import (
	"fmt"
	"sync"
)

// Source is one seed module. It exports a single factory or an ordered
// sequence of them.
type Source interface {
	Factories() ([]Factory, error)
}

// SourceFunc adapts a function into a Source.
type SourceFunc func() ([]Factory, error)

func (f SourceFunc) Factories() ([]Factory, error) { return f() }

// Factories is a fixed list of factories usable as a Source.
type Factories []Factory

func (f Factories) Factories() ([]Factory, error) { return f, nil }

// Registry collects factories registered from Go code, typically in init().
type Registry struct {
	mu        sync.Mutex
	factories []Factory
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends factories to the registry.
func (r *Registry) Register(factories ...Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories = append(r.factories, factories...)
}

func (r *Registry) Factories() ([]Factory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Factory(nil), r.factories...), nil
}

// Loader flattens the factories exported by every configured source. The
// resulting order is discovery order and carries no dependency information.
type Loader struct {
	sources []Source
}

func NewLoader(sources ...Source) *Loader {
	return &Loader{sources: sources}
}

// Add appends sources to the loader.
func (l *Loader) Add(sources ...Source) {
	l.sources = append(l.sources, sources...)
}

func (l *Loader) LoadAll() ([]Factory, error) {
	var all []Factory
	for i, source := range l.sources {
		if source == nil {
			continue
		}
		factories, err := source.Factories()
		if err != nil {
			return nil, fmt.Errorf("failed to load seed source %d: %w", i, err)
		}
		for _, f := range factories {
			if f == nil {
				return nil, fmt.Errorf("seed source %d exported a nil factory", i)
			}
			all = append(all, f)
		}
	}
	return all, nil
}
