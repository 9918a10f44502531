// Package fixtures discovers seed definitions stored as YAML or JSON files.
//
// A fixture file declares one or more definitions:
//
//	collection: users
//	model: users
//	entities:
//	  - key: primary
//	    data:
//	      name: Mike Vercoelen
//	      email: !fake email
//	      ownedBy: !ref organisations.primary
//
// `!ref collection.entity` reads the identifier of a seeded entity and
// `!ref collection.entity.field` reads a field of its stored document. JSON
// files use {"$ref": "organisations.primary"} instead of the tag.
package fixtures

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/Lumos-Labs-HQ/colonize/internal/seeder"
	"github.com/bmatcuk/doublestar/v4"
)

// DefaultPattern matches every fixture file below the seeding path.
const DefaultPattern = "**/*.{yaml,yml,json}"

// Dir is a seeder.Source reading fixture files below a directory.
type Dir struct {
	path    string
	pattern string
	seed    *int64
	faker   *Faker
}

type DirOption func(*Dir)

// WithPattern overrides DefaultPattern.
func WithPattern(pattern string) DirOption {
	return func(d *Dir) { d.pattern = pattern }
}

// WithSeed makes `!fake` values deterministic. Every load starts a new
// generator from seed, so repeated loads yield the same values.
func WithSeed(seed int64) DirOption {
	return func(d *Dir) { d.seed = &seed }
}

func NewDir(path string, opts ...DirOption) *Dir {
	d := &Dir{path: path, pattern: DefaultPattern}
	for _, opt := range opts {
		opt(d)
	}
	if d.seed == nil {
		d.faker = newTimeSeededFaker()
	}
	return d
}

// Files returns the fixture files the directory contains, sorted.
func (d *Dir) Files() ([]string, error) {
	info, err := os.Stat(d.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seeding path %s: %w", d.path, err)
	}
	if !info.IsDir() {
		return []string{d.path}, nil
	}

	matches, err := doublestar.Glob(os.DirFS(d.path), d.pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("failed to glob %s in %s: %w", d.pattern, d.path, err)
	}
	sort.Strings(matches)

	files := make([]string, 0, len(matches))
	for _, m := range matches {
		files = append(files, filepath.Join(d.path, filepath.FromSlash(m)))
	}
	return files, nil
}

func (d *Dir) Factories() ([]seeder.Factory, error) {
	files, err := d.Files()
	if err != nil {
		return nil, err
	}

	faker := d.faker
	if d.seed != nil {
		faker = NewFaker(*d.seed)
	}

	var factories []seeder.Factory
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", file, err)
		}
		parsed, err := Parse(d.rel(file), data, faker)
		if err != nil {
			return nil, err
		}
		factories = append(factories, parsed...)
	}
	return factories, nil
}

func (d *Dir) rel(file string) string {
	if rel, err := filepath.Rel(d.path, file); err == nil && rel != "." {
		return rel
	}
	return filepath.Base(file)
}
