package harness

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/ldgraph/internal/ld"
)

// nodeValue converts a YAML node into a value, keeping mapping order.
// Keys @type, @id and @context map to their reserved names; nulls are
// dropped. An unset node is nil.
func nodeValue(n *yaml.Node) (ld.Value, error) {
	switch n.Kind {
	case 0:
		return nil, nil
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return nodeValue(n.Content[0])
	case yaml.AliasNode:
		return nodeValue(n.Alias)
	case yaml.MappingNode:
		rec := ld.NewRecord()
		for i := 0; i+1 < len(n.Content); i += 2 {
			var key string
			if err := n.Content[i].Decode(&key); err != nil {
				return nil, fmt.Errorf("line %d: mapping key: %w", n.Content[i].Line, err)
			}
			v, err := nodeValue(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			rec.Set(ld.PropertyName(key), v)
		}
		return rec, nil
	case yaml.SequenceNode:
		out := make(ld.List, 0, len(n.Content))
		for _, elem := range n.Content {
			v, err := nodeValue(elem)
			if err != nil {
				return nil, err
			}
			if v != nil {
				out = append(out, v)
			}
		}
		return out, nil
	case yaml.ScalarNode:
		return scalarValue(n)
	default:
		return nil, fmt.Errorf("line %d: unsupported YAML node kind %d", n.Line, n.Kind)
	}
}

func scalarValue(n *yaml.Node) (ld.Value, error) {
	switch n.ShortTag() {
	case "!!null":
		return nil, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return ld.Bool(b), nil
	case "!!int", "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return ld.Number(f), nil
	case "!!timestamp":
		var t time.Time
		if err := n.Decode(&t); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return ld.NewDate(t), nil
	default:
		return ld.String(n.Value), nil
	}
}

// nodeRecord converts a node that must be a mapping.
func nodeRecord(n *yaml.Node) (*ld.Record, error) {
	v, err := nodeValue(n)
	if err != nil {
		return nil, err
	}
	rec, ok := v.(*ld.Record)
	if !ok {
		return nil, fmt.Errorf("line %d: expected a mapping", n.Line)
	}
	return rec, nil
}
