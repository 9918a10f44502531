package seeder

import "context"

// IDField is the document field holding the persisted identifier.
const IDField = "_id"

// Document is a persisted or to-be-persisted record.
type Document map[string]interface{}

// Collections maps collection key -> entity key -> document.
type Collections map[string]map[string]Document

// Entity is one named payload of a definition.
type Entity struct {
	Key  string
	Data Document
}

// Definition is what a factory produces once every reference it needs exists.
type Definition struct {
	Collection string // key used in refs and stash
	Model      string // persistence collection, defaults to Collection
	Entities   []Entity
}

// ModelName returns the persistence collection the entities are written to.
func (d *Definition) ModelName() string {
	if d.Model != "" {
		return d.Model
	}
	return d.Collection
}

// Persistence creates documents in the backing store. The returned document
// must contain IDField.
type Persistence interface {
	Create(ctx context.Context, model string, payload Document) (Document, error)
}

// Result is the outcome of one resolution run.
type Result struct {
	RunID  string
	Refs   Collections
	Stash  Collections
	Order  []string // collection keys in the order they were resolved
	Passes int
}

// Count returns the number of seeded entities.
func (r *Result) Count() int {
	n := 0
	for _, entities := range r.Refs {
		n += len(entities)
	}
	return n
}
