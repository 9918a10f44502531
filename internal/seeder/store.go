package seeder

// Store accumulates the identifiers and documents of seeded entities for a
// single run. Entries are never removed or overwritten.
type Store struct {
	refs    Collections
	stash   Collections
	order   []string
	claimed map[string]bool
}

func NewStore() *Store {
	return &Store{
		refs:    make(Collections),
		stash:   make(Collections),
		claimed: make(map[string]bool),
	}
}

// Claim reserves a collection key for one definition. A key can be claimed
// once per run.
func (s *Store) Claim(collection string) error {
	if s.claimed[collection] {
		return &DuplicateCollectionError{Collection: collection}
	}
	s.claimed[collection] = true
	return nil
}

// Claimed reports whether a definition already produced collection.
func (s *Store) Claimed(collection string) bool {
	return s.claimed[collection]
}

// Put records a seeded entity under collection/entity. The store keeps its
// own copy of doc.
func (s *Store) Put(collection, entity string, id interface{}, doc Document) error {
	if s.Has(collection, entity) {
		return &DuplicateEntityError{Collection: collection, Entity: entity}
	}

	if _, ok := s.refs[collection]; !ok {
		s.refs[collection] = make(map[string]Document)
		s.stash[collection] = make(map[string]Document)
		s.order = append(s.order, collection)
	}

	s.refs[collection][entity] = Document{IDField: id}
	s.stash[collection][entity] = copyDocument(doc)
	return nil
}

func (s *Store) Has(collection, entity string) bool {
	_, ok := s.refs[collection][entity]
	return ok
}

func (s *Store) ref(collection, entity string) (Document, bool) {
	doc, ok := s.refs[collection][entity]
	return doc, ok
}

func (s *Store) doc(collection, entity string) (Document, bool) {
	doc, ok := s.stash[collection][entity]
	return doc, ok
}

// Snapshot copies the current refs and stash. Later writes to the store are
// not visible through the returned maps.
func (s *Store) Snapshot() (refs, stash Collections) {
	return copyCollections(s.refs), copyCollections(s.stash)
}

// Order returns collection keys in the order their first entity was stored.
func (s *Store) Order() []string {
	return append([]string(nil), s.order...)
}

func copyCollections(src Collections) Collections {
	dst := make(Collections, len(src))
	for collection, entities := range src {
		out := make(map[string]Document, len(entities))
		for key, doc := range entities {
			out[key] = copyDocument(doc)
		}
		dst[collection] = out
	}
	return dst
}

// copyDocument copies doc including nested maps and slices.
func copyDocument(doc Document) Document {
	if doc == nil {
		return nil
	}
	out := make(Document, len(doc))
	for k, v := range doc {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v interface{}) interface{} {
	switch t := v.(type) {
	case Document:
		return copyDocument(t)
	case map[string]interface{}:
		if t == nil {
			return t
		}
		out := make(map[string]interface{}, len(t))
		for k, item := range t {
			out[k] = copyValue(item)
		}
		return out
	case []interface{}:
		if t == nil {
			return t
		}
		out := make([]interface{}, len(t))
		for i, item := range t {
			out[i] = copyValue(item)
		}
		return out
	default:
		return v
	}
}
