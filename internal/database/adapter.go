package database

import (
	"context"

	"github.com/Lumos-Labs-HQ/colonize/internal/seeder"
)

// Adapter is a document store the seeder can write fixtures into.
type Adapter interface {
	Connect(ctx context.Context, url string) error
	Close() error
	Ping(ctx context.Context) error

	// DropDatabase removes every collection of the connected database.
	DropDatabase(ctx context.Context) error

	// Create inserts payload into collection and returns the stored document,
	// including generated fields such as _id.
	Create(ctx context.Context, collection string, payload seeder.Document) (seeder.Document, error)
}

var _ seeder.Persistence = Adapter(nil)
