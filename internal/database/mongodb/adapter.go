package mongodb

import (
	"context"
	"fmt"

	"github.com/Lumos-Labs-HQ/colonize/internal/seeder"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Adapter struct {
	client   *mongo.Client
	database *mongo.Database
	dbName   string
}

func New() *Adapter {
	return &Adapter{}
}

func (a *Adapter) Connect(ctx context.Context, url string) error {
	clientOpts := options.Client().ApplyURI(url)
	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	a.client = client
	a.dbName = extractDBName(url, clientOpts)
	a.database = client.Database(a.dbName)
	return nil
}

// DatabaseName returns the database fixtures are written to.
func (a *Adapter) DatabaseName() string {
	return a.dbName
}

func (a *Adapter) Close() error {
	if a.client == nil {
		return nil
	}
	client := a.client
	a.client, a.database = nil, nil
	return client.Disconnect(context.Background())
}

func (a *Adapter) Ping(ctx context.Context) error {
	if a.client == nil {
		return fmt.Errorf("database not connected")
	}
	return a.client.Ping(ctx, nil)
}

func (a *Adapter) DropDatabase(ctx context.Context) error {
	if a.database == nil {
		return fmt.Errorf("database not connected")
	}
	if err := a.database.Drop(ctx); err != nil {
		return fmt.Errorf("failed to drop database %s: %w", a.dbName, err)
	}
	return nil
}

// Create inserts payload and reads the stored document back so that fields
// generated by the server are part of the result.
func (a *Adapter) Create(ctx context.Context, collection string, payload seeder.Document) (seeder.Document, error) {
	if a.database == nil {
		return nil, fmt.Errorf("database not connected")
	}

	coll := a.database.Collection(collection)
	res, err := coll.InsertOne(ctx, bson.M(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to insert into %s: %w", collection, err)
	}

	var doc bson.M
	if err := coll.FindOne(ctx, bson.M{"_id": res.InsertedID}).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to read back %s %v: %w", collection, res.InsertedID, err)
	}
	return toDocument(doc), nil
}

// ListCollections returns the collection names of the connected database.
func (a *Adapter) ListCollections(ctx context.Context) ([]string, error) {
	if a.database == nil {
		return nil, fmt.Errorf("database not connected")
	}
	names, err := a.database.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	return names, nil
}
