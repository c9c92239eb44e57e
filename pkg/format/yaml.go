package format

import (
	"errors"
	"fmt"

	"github.com/hazyhaar/healthdash/pkg/record"
	"gopkg.in/yaml.v3"
)

func init() {
	Register(&yamlAdapter{})
}

type yamlAdapter struct{}

func (a *yamlAdapter) ID() string           { return "yaml" }
func (a *yamlAdapter) Extensions() []string { return []string{".yaml", ".yml"} }
func (a *yamlAdapter) Description() string  { return "YAML sequence of records, or a mapping holding one" }

func (a *yamlAdapter) Parse(data []byte) (*Result, error) {
	text, err := decodeText(data)
	if err != nil {
		return nil, err
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(text, &doc); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	if doc.Kind == 0 {
		return nil, ErrNoArrayData
	}
	c := &yamlConverter{budget: expansionBudget(&doc)}
	v, err := c.convert(&doc, 0)
	if err != nil {
		return nil, err
	}
	items, err := arrayData(v)
	if err != nil {
		return nil, err
	}
	return &Result{Records: items}, nil
}

const (
	maxYAMLDepth = 64
	// Aliases may expand a document to at most this many times its own node
	// count.
	yamlAliasFactor = 10
	minYAMLBudget   = 1 << 12
)

var (
	errYAMLDepth   = errors.New("YAML document nested too deeply")
	errYAMLAliases = errors.New("YAML aliases expand too far")
)

// expansionBudget is the number of nodes the converter may visit for doc.
func expansionBudget(doc *yaml.Node) int {
	var count func(n *yaml.Node) int
	count = func(n *yaml.Node) int {
		total := 1
		for _, c := range n.Content {
			total += count(c)
		}
		return total
	}
	return max(count(doc)*yamlAliasFactor, minYAMLBudget)
}

// yamlConverter converts a node tree, keeping mapping keys in document order.
// Integers and floats become numbers, anything untagged or quoted stays text.
// Every visited node, aliased ones included, is charged to budget.
type yamlConverter struct {
	budget int
}

func (c *yamlConverter) convert(n *yaml.Node, depth int) (record.Value, error) {
	if depth > maxYAMLDepth {
		return record.Value{}, errYAMLDepth
	}
	if c.budget--; c.budget < 0 {
		return record.Value{}, errYAMLAliases
	}
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return record.Null(), nil
		}
		return c.convert(n.Content[0], depth+1)
	case yaml.AliasNode:
		return c.convert(n.Alias, depth+1)
	case yaml.SequenceNode:
		items := make([]record.Value, 0, len(n.Content))
		for _, child := range n.Content {
			item, err := c.convert(child, depth+1)
			if err != nil {
				return record.Value{}, err
			}
			items = append(items, item)
		}
		return record.Array(items), nil
	case yaml.MappingNode:
		obj := record.NewObject()
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i]
			if key.Kind == yaml.AliasNode && key.Alias != nil {
				key = key.Alias
			}
			item, err := c.convert(n.Content[i+1], depth+1)
			if err != nil {
				return record.Value{}, err
			}
			obj.Set(key.Value, item)
		}
		return record.ObjectOf(obj), nil
	case yaml.ScalarNode:
		switch n.ShortTag() {
		case "!!null":
			return record.Null(), nil
		case "!!bool":
			var b bool
			if err := n.Decode(&b); err != nil {
				return record.Value{}, fmt.Errorf("line %d: %w", n.Line, err)
			}
			return record.Bool(b), nil
		case "!!int", "!!float":
			var f float64
			if err := n.Decode(&f); err != nil {
				return record.Value{}, fmt.Errorf("line %d: %w", n.Line, err)
			}
			return record.Number(f), nil
		default:
			return record.String(n.Value), nil
		}
	default:
		return record.Null(), nil
	}
}
