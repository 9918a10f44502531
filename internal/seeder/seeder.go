package seeder

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Seeder resolves an unordered set of factories against a growing store,
// persisting every definition as soon as its references exist.
type Seeder struct {
	persistence Persistence
	reporter    *Reporter
}

// Option configures a Seeder.
type Option func(*Seeder)

// WithReporter sets the progress reporter.
func WithReporter(r *Reporter) Option {
	return func(s *Seeder) { s.reporter = r }
}

func New(p Persistence, opts ...Option) *Seeder {
	s := &Seeder{persistence: p}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type pendingFactory struct {
	index   int
	factory Factory
}

func (p pendingFactory) name() string {
	if name := p.factory.Name(); name != "" {
		return name
	}
	return fmt.Sprintf("factory#%d", p.index)
}

type attemptState int

const (
	attemptReady attemptState = iota
	attemptBlocked
	attemptFailed
)

// attempt is the outcome of building one factory against the current refs.
type attempt struct {
	state   attemptState
	def     *Definition
	missing *DependencyMissingError
	err     error
}

// Seed runs passes over the pending factories until all are resolved or a
// pass makes no progress. Each call starts from an empty store.
func (s *Seeder) Seed(ctx context.Context, factories []Factory) (*Result, error) {
	runID := uuid.NewString()
	store := NewStore()
	refs := newRefs(store)

	pending := make([]pendingFactory, len(factories))
	for i, f := range factories {
		pending[i] = pendingFactory{index: i, factory: f}
	}

	s.reporter.Start(runID, len(factories))

	passes := 0
	for len(pending) > 0 {
		passes++
		s.reporter.Pass(passes, pendingNames(pending))

		var (
			next       []pendingFactory
			stuck      []StuckFactory
			progressed bool
		)
		for _, p := range pending {
			a := try(p, refs)
			switch a.state {
			case attemptBlocked:
				s.reporter.Blocked(p.name(), a.missing)
				next = append(next, p)
				stuck = append(stuck, StuckFactory{Name: p.name(), Missing: a.missing})
			case attemptFailed:
				s.reporter.Failed(a.err)
				return nil, a.err
			case attemptReady:
				if err := s.commit(ctx, store, a.def); err != nil {
					s.reporter.Failed(err)
					return nil, err
				}
				s.reporter.Resolved(a.def.Collection, len(a.def.Entities))
				progressed = true
			}
		}

		if len(next) > 0 && !progressed {
			err := &UnresolvableDependencyError{Stuck: stuck}
			s.reporter.Failed(err)
			return nil, err
		}
		pending = next
	}

	refsSnap, stashSnap := store.Snapshot()
	result := &Result{
		RunID:  runID,
		Refs:   refsSnap,
		Stash:  stashSnap,
		Order:  store.Order(),
		Passes: passes,
	}
	s.reporter.Done(result)
	return result, nil
}

func try(p pendingFactory, refs *Refs) attempt {
	def, err := p.factory.Build(refs)
	if err != nil {
		if errors.Is(err, ErrDependencyMissing) {
			var missing *DependencyMissingError
			if !errors.As(err, &missing) {
				missing = &DependencyMissingError{Collection: err.Error()}
			}
			return attempt{state: attemptBlocked, missing: missing}
		}
		return attempt{state: attemptFailed, err: fmt.Errorf("factory %s failed: %w", p.name(), err)}
	}
	if def == nil {
		return attempt{state: attemptFailed, err: fmt.Errorf("factory %s returned no definition", p.name())}
	}
	return attempt{state: attemptReady, def: def}
}

// commit validates a definition against the store and persists its entities
// in declaration order.
func (s *Seeder) commit(ctx context.Context, store *Store, def *Definition) error {
	if err := validate(store, def); err != nil {
		return err
	}

	if err := store.Claim(def.Collection); err != nil {
		return err
	}

	model := def.ModelName()
	for _, entity := range def.Entities {
		payload := copyDocument(entity.Data)
		if payload == nil {
			payload = Document{}
		}

		doc, err := s.persistence.Create(ctx, model, payload)
		if err != nil {
			return fmt.Errorf("failed to persist %s.%s: %w", def.Collection, entity.Key, err)
		}
		id, ok := doc[IDField]
		if !ok || id == nil {
			return fmt.Errorf("persisted %s.%s has no %s", def.Collection, entity.Key, IDField)
		}
		if err := store.Put(def.Collection, entity.Key, id, doc); err != nil {
			return err
		}
	}
	return nil
}

func validate(store *Store, def *Definition) error {
	if def.Collection == "" {
		return fmt.Errorf("definition has no collection key")
	}
	if store.Claimed(def.Collection) {
		return &DuplicateCollectionError{Collection: def.Collection}
	}

	seen := make(map[string]bool, len(def.Entities))
	for i, entity := range def.Entities {
		if entity.Key == "" {
			return fmt.Errorf("entity %d of %s has no key", i, def.Collection)
		}
		if seen[entity.Key] || store.Has(def.Collection, entity.Key) {
			return &DuplicateEntityError{Collection: def.Collection, Entity: entity.Key}
		}
		seen[entity.Key] = true
	}
	return nil
}

func pendingNames(pending []pendingFactory) []string {
	names := make([]string, len(pending))
	for i, p := range pending {
		names[i] = p.name()
	}
	return names
}
