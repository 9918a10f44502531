// Package memory is an in-process document store. It backs dry runs and
// tests and mimics MongoDB identifier generation.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Lumos-Labs-HQ/colonize/internal/seeder"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Adapter struct {
	mu          sync.Mutex
	connected   bool
	collections map[string][]seeder.Document

	// FailOn makes Create fail for the named model.
	FailOn map[string]error
}

func New() *Adapter {
	return &Adapter{collections: make(map[string][]seeder.Document)}
}

func (a *Adapter) Connect(ctx context.Context, url string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.connected = true
	return nil
}

func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.connected = false
	return nil
}

func (a *Adapter) Ping(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.connected {
		return fmt.Errorf("memory store not connected")
	}
	return nil
}

func (a *Adapter) DropDatabase(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.collections = make(map[string][]seeder.Document)
	return nil
}

func (a *Adapter) Create(ctx context.Context, collection string, payload seeder.Document) (seeder.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.FailOn[collection]; err != nil {
		return nil, err
	}

	doc := make(seeder.Document, len(payload)+1)
	for k, v := range payload {
		doc[k] = v
	}
	if _, ok := doc[seeder.IDField]; !ok {
		doc[seeder.IDField] = primitive.NewObjectID()
	}

	a.collections[collection] = append(a.collections[collection], doc)
	return copyDoc(doc), nil
}

// Documents returns a copy of every document stored in collection.
func (a *Adapter) Documents(collection string) []seeder.Document {
	a.mu.Lock()
	defer a.mu.Unlock()

	docs := make([]seeder.Document, 0, len(a.collections[collection]))
	for _, doc := range a.collections[collection] {
		docs = append(docs, copyDoc(doc))
	}
	return docs
}

// CollectionNames returns the sorted names of non-empty collections.
func (a *Adapter) CollectionNames() []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	names := make([]string, 0, len(a.collections))
	for name := range a.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func copyDoc(doc seeder.Document) seeder.Document {
	out := make(seeder.Document, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}
