package fixtures

import (
	"fmt"

	"github.com/Lumos-Labs-HQ/colonize/internal/seeder"
	"gopkg.in/yaml.v3"
)

const (
	refTag   = "!ref"
	fakeTag  = "!fake"
	mergeTag = "!!merge"
	refKey   = "$ref"
)

// refExpr is a reference left in a compiled payload, resolved at build time.
type refExpr struct {
	path string
}

type compiler struct {
	faker *Faker
}

// compile turns a YAML node into a payload template: plain values, maps,
// slices and refExpr leaves.
func (c *compiler) compile(n *yaml.Node) (interface{}, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return c.compile(n.Content[0])
	case yaml.AliasNode:
		return c.compile(n.Alias)
	case yaml.ScalarNode:
		switch n.Tag {
		case refTag:
			return refExpr{path: n.Value}, nil
		case fakeTag:
			v, err := c.faker.Fake(n.Value)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", n.Line, err)
			}
			return v, nil
		}
		var v interface{}
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return v, nil
	case yaml.SequenceNode:
		out := make([]interface{}, 0, len(n.Content))
		for _, item := range n.Content {
			v, err := c.compile(item)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case yaml.MappingNode:
		return c.compileMapping(n)
	default:
		return nil, fmt.Errorf("line %d: unsupported node", n.Line)
	}
}

func (c *compiler) compileMapping(n *yaml.Node) (interface{}, error) {
	if len(n.Content) == 2 && n.Content[0].Value == refKey {
		if n.Content[1].Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: %s must be a string", n.Line, refKey)
		}
		return refExpr{path: n.Content[1].Value}, nil
	}

	out := make(map[string]interface{}, len(n.Content)/2)
	var merged []map[string]interface{}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, value := n.Content[i], n.Content[i+1]

		v, err := c.compile(value)
		if err != nil {
			return nil, err
		}

		if key.Tag == mergeTag {
			switch m := v.(type) {
			case map[string]interface{}:
				merged = append(merged, m)
			case []interface{}:
				for _, item := range m {
					if im, ok := item.(map[string]interface{}); ok {
						merged = append(merged, im)
					}
				}
			default:
				return nil, fmt.Errorf("line %d: merge value must be a mapping", key.Line)
			}
			continue
		}
		out[key.Value] = v
	}

	for _, m := range merged {
		for k, v := range m {
			if _, ok := out[k]; !ok {
				out[k] = v
			}
		}
	}
	return out, nil
}

// render replaces every refExpr in a compiled template with its value from
// refs. Missing references surface as seeder.DependencyMissingError.
func render(v interface{}, refs *seeder.Refs) (interface{}, error) {
	switch t := v.(type) {
	case refExpr:
		return refs.Lookup(t.path)
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, item := range t {
			r, err := render(item, refs)
			if err != nil {
				return nil, err
			}
			out[k] = r
		}
		return out, nil
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, item := range t {
			r, err := render(item, refs)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return out, nil
	default:
		return v, nil
	}
}

// refsIn lists the reference paths used by a template.
func refsIn(v interface{}) []string {
	switch t := v.(type) {
	case refExpr:
		return []string{t.path}
	case map[string]interface{}:
		var out []string
		for _, item := range t {
			out = append(out, refsIn(item)...)
		}
		return out
	case []interface{}:
		var out []string
		for _, item := range t {
			out = append(out, refsIn(item)...)
		}
		return out
	default:
		return nil
	}
}
