package seeder

import (
	"fmt"
	"strings"
)

// Refs is the read-only view of the store handed to factories. Every lookup of
// an entity that is not seeded yet fails with a *DependencyMissingError.
type Refs struct {
	store *Store
}

func newRefs(store *Store) *Refs {
	return &Refs{store: store}
}

// Has reports whether collection/entity has been seeded.
func (r *Refs) Has(collection, entity string) bool {
	return r.store.Has(collection, entity)
}

// Ref returns the reference document ({_id: ...}) of an entity.
func (r *Refs) Ref(collection, entity string) (Document, error) {
	doc, ok := r.store.ref(collection, entity)
	if !ok {
		return nil, &DependencyMissingError{Collection: collection, Entity: entity}
	}
	return copyDocument(doc), nil
}

// ID returns the persisted identifier of an entity.
func (r *Refs) ID(collection, entity string) (interface{}, error) {
	doc, ok := r.store.ref(collection, entity)
	if !ok {
		return nil, &DependencyMissingError{Collection: collection, Entity: entity}
	}
	return doc[IDField], nil
}

// Doc returns the full persisted document of an entity.
func (r *Refs) Doc(collection, entity string) (Document, error) {
	doc, ok := r.store.doc(collection, entity)
	if !ok {
		return nil, &DependencyMissingError{Collection: collection, Entity: entity}
	}
	return copyDocument(doc), nil
}

// Lookup resolves a dotted path of the form collection.entity[.field...].
// A bare collection.entity yields the identifier. Maps and slices are
// returned as copies.
func (r *Refs) Lookup(path string) (interface{}, error) {
	parts := strings.Split(path, ".")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return nil, fmt.Errorf("invalid reference %q: expected collection.entity[.field]", path)
	}

	collection, entity := parts[0], parts[1]
	if len(parts) == 2 {
		return r.ID(collection, entity)
	}

	doc, ok := r.store.doc(collection, entity)
	if !ok {
		return nil, &DependencyMissingError{Collection: collection, Entity: entity}
	}

	var current interface{} = doc
	for i, field := range parts[2:] {
		next, ok := fieldOf(current, field)
		if !ok {
			return nil, &FieldNotFoundError{
				Collection: collection,
				Entity:     entity,
				Field:      strings.Join(parts[2:3+i], "."),
			}
		}
		current = next
	}
	return copyValue(current), nil
}

func fieldOf(value interface{}, name string) (interface{}, bool) {
	switch m := value.(type) {
	case Document:
		v, ok := m[name]
		return v, ok
	case map[string]interface{}:
		v, ok := m[name]
		return v, ok
	default:
		return nil, false
	}
}
