// Package sqlstore keeps fixture documents as JSON rows in a relational
// database: one table per collection with an id and a document column.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Lumos-Labs-HQ/colonize/internal/seeder"
	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

// collectionsTable records every table created for a collection so that
// DropDatabase only removes what the seeder owns.
const collectionsTable = "_colonize_collections"

var validIdentifier = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

type Dialect struct {
	Name        string
	Driver      string
	Placeholder squirrel.PlaceholderFormat
	dsn         func(url string) string
}

var (
	Postgres = Dialect{
		Name:        "postgresql",
		Driver:      "pgx",
		Placeholder: squirrel.Dollar,
		dsn:         func(url string) string { return url },
	}
	MySQL = Dialect{
		Name:        "mysql",
		Driver:      "mysql",
		Placeholder: squirrel.Question,
		dsn:         func(url string) string { return strings.TrimPrefix(url, "mysql://") },
	}
	SQLite = Dialect{
		Name:        "sqlite",
		Driver:      "sqlite3",
		Placeholder: squirrel.Question,
		dsn: func(url string) string {
			path := strings.TrimPrefix(url, "sqlite://")
			if !strings.Contains(path, "?") {
				path += "?cache=shared&_journal_mode=WAL"
			}
			return path
		},
	}
)

type Adapter struct {
	dialect Dialect
	db      *sql.DB
	qb      squirrel.StatementBuilderType

	mu    sync.Mutex
	known map[string]bool
}

func New(dialect Dialect) *Adapter {
	return &Adapter{
		dialect: dialect,
		qb:      squirrel.StatementBuilder.PlaceholderFormat(dialect.Placeholder),
		known:   make(map[string]bool),
	}
}

func (a *Adapter) Connect(ctx context.Context, url string) error {
	db, err := sql.Open(a.dialect.Driver, a.dialect.dsn(url))
	if err != nil {
		return fmt.Errorf("failed to open %s connection: %w", a.dialect.Name, err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping %s: %w", a.dialect.Name, err)
	}

	create := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (name VARCHAR(255) PRIMARY KEY)", collectionsTable)
	if _, err := db.ExecContext(ctx, create); err != nil {
		db.Close()
		return fmt.Errorf("failed to create %s: %w", collectionsTable, err)
	}

	a.db = db
	return nil
}

func (a *Adapter) Close() error {
	if a.db == nil {
		return nil
	}
	db := a.db
	a.db = nil
	return db.Close()
}

func (a *Adapter) Ping(ctx context.Context) error {
	if a.db == nil {
		return fmt.Errorf("database not connected")
	}
	return a.db.PingContext(ctx)
}

func (a *Adapter) Create(ctx context.Context, collection string, payload seeder.Document) (seeder.Document, error) {
	if a.db == nil {
		return nil, fmt.Errorf("database not connected")
	}
	if err := a.ensureCollection(ctx, collection); err != nil {
		return nil, err
	}

	doc := make(seeder.Document, len(payload)+1)
	for k, v := range payload {
		doc[k] = v
	}
	id := idString(doc[seeder.IDField])
	doc[seeder.IDField] = id

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s document: %w", collection, err)
	}

	_, err = a.qb.Insert(collection).
		Columns("id", "document").
		Values(id, string(data)).
		RunWith(a.db).
		ExecContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to insert into %s: %w", collection, err)
	}

	return a.find(ctx, collection, id)
}

// find returns the stored document with the given id.
func (a *Adapter) find(ctx context.Context, collection, id string) (seeder.Document, error) {
	var raw string
	err := a.qb.Select("document").
		From(collection).
		Where(squirrel.Eq{"id": id}).
		RunWith(a.db).
		QueryRowContext(ctx).
		Scan(&raw)
	if err != nil {
		return nil, fmt.Errorf("failed to read back %s %s: %w", collection, id, err)
	}

	var doc seeder.Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("failed to decode %s %s: %w", collection, id, err)
	}
	return doc, nil
}

// Count returns the number of documents in collection.
func (a *Adapter) Count(ctx context.Context, collection string) (int, error) {
	if !validIdentifier.MatchString(collection) {
		return 0, fmt.Errorf("invalid collection name: %s", collection)
	}
	var n int
	err := a.qb.Select("COUNT(*)").From(collection).RunWith(a.db).QueryRowContext(ctx).Scan(&n)
	return n, err
}

// ListCollections returns the collections created by the seeder.
func (a *Adapter) ListCollections(ctx context.Context) ([]string, error) {
	if a.db == nil {
		return nil, fmt.Errorf("database not connected")
	}

	rows, err := a.qb.Select("name").From(collectionsTable).RunWith(a.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, rows.Err()
}

func (a *Adapter) DropDatabase(ctx context.Context) error {
	names, err := a.ListCollections(ctx)
	if err != nil {
		return err
	}

	for _, name := range names {
		if !validIdentifier.MatchString(name) {
			return fmt.Errorf("invalid collection name: %s", name)
		}
		if _, err := a.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+name); err != nil {
			return fmt.Errorf("failed to drop %s: %w", name, err)
		}
	}

	if _, err := a.qb.Delete(collectionsTable).RunWith(a.db).ExecContext(ctx); err != nil {
		return fmt.Errorf("failed to clear %s: %w", collectionsTable, err)
	}

	a.mu.Lock()
	a.known = make(map[string]bool)
	a.mu.Unlock()
	return nil
}

func (a *Adapter) ensureCollection(ctx context.Context, name string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.known[name] {
		return nil
	}
	if !validIdentifier.MatchString(name) || name == collectionsTable {
		return fmt.Errorf("invalid collection name: %s", name)
	}

	create := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (id VARCHAR(64) PRIMARY KEY, document TEXT NOT NULL)", name)
	if _, err := a.db.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("failed to create collection %s: %w", name, err)
	}

	var n int
	err := a.qb.Select("COUNT(*)").
		From(collectionsTable).
		Where(squirrel.Eq{"name": name}).
		RunWith(a.db).
		QueryRowContext(ctx).
		Scan(&n)
	if err != nil {
		return fmt.Errorf("failed to look up collection %s: %w", name, err)
	}
	if n == 0 {
		_, err := a.qb.Insert(collectionsTable).Columns("name").Values(name).RunWith(a.db).ExecContext(ctx)
		if err != nil {
			return fmt.Errorf("failed to register collection %s: %w", name, err)
		}
	}

	a.known[name] = true
	return nil
}

func idString(id interface{}) string {
	switch v := id.(type) {
	case nil:
		return uuid.NewString()
	case string:
		if v == "" {
			return uuid.NewString()
		}
		return v
	case interface{ Hex() string }:
		return v.Hex()
	default:
		return fmt.Sprint(v)
	}
}
