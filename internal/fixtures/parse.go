package fixtures

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Lumos-Labs-HQ/colonize/internal/seeder"
	"gopkg.in/yaml.v3"
)

// definitionNode is the on-disk shape of one definition. refName is accepted
// as an alias of collection and key.
type definitionNode struct {
	Collection string       `yaml:"collection"`
	RefName    string       `yaml:"refName"`
	Model      string       `yaml:"model"`
	Entities   []entityNode `yaml:"entities"`
}

type entityNode struct {
	Key     string    `yaml:"key"`
	RefName string    `yaml:"refName"`
	Data    yaml.Node `yaml:"data"`
}

type compiledEntity struct {
	key  string
	data interface{}
}

// fileFactory builds a definition from a parsed fixture file entry.
type fileFactory struct {
	file       string
	collection string
	model      string
	entities   []compiledEntity
}

func (f *fileFactory) Name() string { return f.collection }

func (f *fileFactory) Build(refs *seeder.Refs) (*seeder.Definition, error) {
	def := &seeder.Definition{
		Collection: f.collection,
		Model:      f.model,
		Entities:   make([]seeder.Entity, 0, len(f.entities)),
	}
	for _, e := range f.entities {
		v, err := render(e.data, refs)
		if err != nil {
			return nil, fmt.Errorf("%s: %s.%s: %w", f.file, f.collection, e.key, err)
		}
		data, _ := v.(map[string]interface{})
		def.Entities = append(def.Entities, seeder.Entity{Key: e.key, Data: seeder.Document(data)})
	}
	return def, nil
}

// Parse reads the definitions in a fixture file. A file holds a single
// definition, a sequence of definitions, or several YAML documents.
func Parse(name string, data []byte, faker *Faker) ([]seeder.Factory, error) {
	if faker == nil {
		faker = newTimeSeededFaker()
	}
	c := &compiler{faker: faker}

	var factories []seeder.Factory
	dec := yaml.NewDecoder(bytes.NewReader(data))
	for {
		var doc yaml.Node
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		if len(doc.Content) == 0 {
			continue
		}

		root := doc.Content[0]
		nodes := []*yaml.Node{root}
		if root.Kind == yaml.SequenceNode {
			nodes = root.Content
		}
		for _, n := range nodes {
			f, err := c.definition(name, n)
			if err != nil {
				return nil, err
			}
			factories = append(factories, f)
		}
	}
	return factories, nil
}

func (c *compiler) definition(file string, n *yaml.Node) (*fileFactory, error) {
	var def definitionNode
	if err := n.Decode(&def); err != nil {
		return nil, fmt.Errorf("%s:%d: invalid definition: %w", file, n.Line, err)
	}

	f := &fileFactory{
		file:       file,
		collection: firstNonEmpty(def.Collection, def.RefName),
		model:      def.Model,
	}
	if f.collection == "" {
		return nil, fmt.Errorf("%s:%d: definition has no collection", file, n.Line)
	}

	for _, e := range def.Entities {
		key := firstNonEmpty(e.Key, e.RefName)
		if key == "" {
			return nil, fmt.Errorf("%s: %s: entity has no key", file, f.collection)
		}

		var data interface{} = map[string]interface{}{}
		if e.Data.Kind != 0 {
			v, err := c.compile(&e.Data)
			if err != nil {
				return nil, fmt.Errorf("%s: %s.%s: %w", file, f.collection, key, err)
			}
			if v != nil {
				if _, ok := v.(map[string]interface{}); !ok {
					return nil, fmt.Errorf("%s: %s.%s: data must be a mapping", file, f.collection, key)
				}
				data = v
			}
		}

		for _, path := range refsIn(data) {
			if strings.Count(path, ".") < 1 {
				return nil, fmt.Errorf("%s: %s.%s: invalid reference %q", file, f.collection, key, path)
			}
		}

		f.entities = append(f.entities, compiledEntity{key: key, data: data})
	}
	return f, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
