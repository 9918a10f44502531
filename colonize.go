// Package colonize seeds a document store with interdependent fixtures.
//
// Factories describe the entities of one collection and may reference the
// identifiers of entities produced by other factories. Seed keeps running
// passes over the factories until every one of them has been persisted, so
// they can be declared in any order:
//
//	colonize.Register(colonize.Func("users", func(refs *colonize.Refs) (*colonize.Definition, error) {
//		owner, err := refs.ID("organisations", "primary")
//		if err != nil {
//			return nil, err
//		}
//		return &colonize.Definition{
//			Collection: "users",
//			Entities: []colonize.Entity{
//				{Key: "primary", Data: colonize.Document{"name": "Mike", "ownedBy": owner}},
//			},
//		}, nil
//	}))
//
//	c, err := colonize.Initialize(ctx, colonize.Config{
//		StoreURL:            "mongodb://localhost:27017/colonize-test",
//		ConnectionWhitelist: []string{"mongodb://localhost:27017/colonize-test"},
//		SeedingPath:         "seeding",
//	})
//	...
//	defer c.Close()
//	result, err := c.Seed(ctx)
package colonize

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/Lumos-Labs-HQ/colonize/internal/config"
	"github.com/Lumos-Labs-HQ/colonize/internal/database"
	"github.com/Lumos-Labs-HQ/colonize/internal/fixtures"
	"github.com/Lumos-Labs-HQ/colonize/internal/seeder"
)

type (
	Config      = config.Config
	Adapter     = database.Adapter
	Document    = seeder.Document
	Collections = seeder.Collections
	Definition  = seeder.Definition
	Entity      = seeder.Entity
	Factory     = seeder.Factory
	Source      = seeder.Source
	Refs        = seeder.Refs
	Result      = seeder.Result

	UnsafeConnectionError       = config.UnsafeConnectionError
	DependencyMissingError      = seeder.DependencyMissingError
	FieldNotFoundError          = seeder.FieldNotFoundError
	DuplicateEntityError        = seeder.DuplicateEntityError
	DuplicateCollectionError    = seeder.DuplicateCollectionError
	UnresolvableDependencyError = seeder.UnresolvableDependencyError
	StuckFactory                = seeder.StuckFactory
)

var (
	ErrDependencyMissing = seeder.ErrDependencyMissing
	ErrClosed            = errors.New("colonization is closed")
)

// Func adapts build into a Factory named after the collection it produces.
func Func(name string, build func(refs *Refs) (*Definition, error)) Factory {
	return seeder.Func(name, build)
}

// Static wraps a definition without references.
func Static(def *Definition) Factory {
	return seeder.Static(def)
}

var registry = seeder.NewRegistry()

// Register adds factories to the process-wide registry read by every
// Colonization that was not created with WithoutRegistry.
func Register(factories ...Factory) {
	registry.Register(factories...)
}

type options struct {
	adapter    Adapter
	sources    []Source
	output     io.Writer
	noRegistry bool
}

type Option func(*options)

// WithAdapter replaces the adapter picked from the configured provider.
func WithAdapter(a Adapter) Option {
	return func(o *options) { o.adapter = a }
}

func WithFactories(factories ...Factory) Option {
	return func(o *options) { o.sources = append(o.sources, seeder.Factories(factories)) }
}

func WithSources(sources ...Source) Option {
	return func(o *options) { o.sources = append(o.sources, sources...) }
}

// WithOutput sends progress output to w. Without it output goes to stdout
// when Config.Verbose is set and is discarded otherwise.
func WithOutput(w io.Writer) Option {
	return func(o *options) { o.output = w }
}

// WithoutRegistry ignores factories added through Register.
func WithoutRegistry() Option {
	return func(o *options) { o.noRegistry = true }
}

// Colonization is a connected seeding session.
type Colonization struct {
	cfg     Config
	adapter Adapter
	loader  *seeder.Loader
	engine  *seeder.Seeder

	mu      sync.Mutex
	dropped bool
	closed  bool
}

// Initialize validates cfg, refuses URLs missing from the connection
// whitelist with *UnsafeConnectionError and connects to the store.
func Initialize(ctx context.Context, cfg Config, opts ...Option) (*Colonization, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	url, err := cfg.GetStoreURL()
	if err != nil {
		return nil, err
	}

	adapter := o.adapter
	if adapter == nil {
		adapter, err = database.NewAdapter(cfg.Provider)
		if err != nil {
			return nil, err
		}
	}
	if err := adapter.Connect(ctx, url); err != nil {
		return nil, fmt.Errorf("failed to connect to store: %w", err)
	}

	loader := seeder.NewLoader()
	if !o.noRegistry {
		loader.Add(registry)
	}
	if cfg.SeedingPath != "" {
		var dirOpts []fixtures.DirOption
		if cfg.Pattern != "" {
			dirOpts = append(dirOpts, fixtures.WithPattern(cfg.Pattern))
		}
		if cfg.FakerSeed != 0 {
			dirOpts = append(dirOpts, fixtures.WithSeed(cfg.FakerSeed))
		}
		loader.Add(fixtures.NewDir(cfg.SeedingPath, dirOpts...))
	}
	loader.Add(o.sources...)

	output := o.output
	if output == nil && cfg.Verbose {
		output = os.Stdout
	}

	return &Colonization{
		cfg:     cfg,
		adapter: adapter,
		loader:  loader,
		engine:  seeder.New(adapter, seeder.WithReporter(seeder.NewReporter(output))),
	}, nil
}

// Seed loads every factory and persists all of them. Each call resolves
// against an empty reference store. With DropStoreBeforeSeed the store is
// wiped before the first call only.
func (c *Colonization) Seed(ctx context.Context) (*Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClosed
	}

	if c.cfg.DropStoreBeforeSeed && !c.dropped {
		if err := c.adapter.DropDatabase(ctx); err != nil {
			return nil, fmt.Errorf("failed to drop store: %w", err)
		}
		c.dropped = true
	}

	factories, err := c.loader.LoadAll()
	if err != nil {
		return nil, err
	}
	return c.engine.Seed(ctx, factories)
}

// Drop wipes the connected store.
func (c *Colonization) Drop(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if err := c.adapter.DropDatabase(ctx); err != nil {
		return fmt.Errorf("failed to drop store: %w", err)
	}
	return nil
}

// Close disconnects from the store. Calling it again is a no-op.
func (c *Colonization) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	return c.adapter.Close()
}
