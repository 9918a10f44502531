package seeder

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrDependencyMissing is matched by every error a factory returns because a
// reference it reads has not been seeded yet. The engine retries such
// factories on the next pass.
var ErrDependencyMissing = errors.New("dependency missing")

// DependencyMissingError reports the first unresolved reference a factory hit.
type DependencyMissingError struct {
	Collection string
	Entity     string
}

func (e *DependencyMissingError) Error() string {
	return fmt.Sprintf("reference %s is not seeded yet", e.Path())
}

// Path returns the missing reference as collection or collection.entity.
func (e *DependencyMissingError) Path() string {
	if e.Entity == "" {
		return e.Collection
	}
	return e.Collection + "." + e.Entity
}

func (e *DependencyMissingError) Is(target error) bool {
	return target == ErrDependencyMissing
}

// FieldNotFoundError is returned when a reference path names a field the
// seeded document does not have. Unlike a missing entity this never resolves.
type FieldNotFoundError struct {
	Collection string
	Entity     string
	Field      string
}

func (e *FieldNotFoundError) Error() string {
	return fmt.Sprintf("field %q not found on %s.%s", e.Field, e.Collection, e.Entity)
}

// DuplicateEntityError is returned when the same collection/entity pair is
// written twice.
type DuplicateEntityError struct {
	Collection string
	Entity     string
}

func (e *DuplicateEntityError) Error() string {
	return fmt.Sprintf("duplicate entity %s.%s", e.Collection, e.Entity)
}

// DuplicateCollectionError is returned when a second definition claims a
// collection key that an earlier definition of the run already produced.
type DuplicateCollectionError struct {
	Collection string
}

func (e *DuplicateCollectionError) Error() string {
	return fmt.Sprintf("duplicate collection %s: already produced by another definition", e.Collection)
}

// StuckFactory describes a factory that could not be resolved.
type StuckFactory struct {
	Name    string
	Missing *DependencyMissingError
}

// UnresolvableDependencyError is returned when a full pass resolves nothing
// while factories are still pending: the pending set has a cycle or waits on
// something that is never produced.
type UnresolvableDependencyError struct {
	Stuck []StuckFactory
}

// Collections returns the sorted names of the stuck factories.
func (e *UnresolvableDependencyError) Collections() []string {
	names := make([]string, 0, len(e.Stuck))
	for _, s := range e.Stuck {
		names = append(names, s.Name)
	}
	sort.Strings(names)
	return names
}

func (e *UnresolvableDependencyError) Error() string {
	parts := make([]string, 0, len(e.Stuck))
	for _, s := range e.Stuck {
		if s.Missing != nil {
			parts = append(parts, fmt.Sprintf("%s (waiting on %s)", s.Name, s.Missing.Path()))
		} else {
			parts = append(parts, s.Name)
		}
	}
	sort.Strings(parts)
	return "unresolvable dependencies: " + strings.Join(parts, ", ")
}
