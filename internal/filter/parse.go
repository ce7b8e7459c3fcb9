package filter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/roach88/ldgraph/internal/ld"
)

// SyntaxError reports a malformed filter.
type SyntaxError struct {
	// Path locates the offending entry, e.g. "address.city.$regex".
	Path   string
	Reason string
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	if e.Path == "" {
		return "filter: " + e.Reason
	}
	return fmt.Sprintf("filter %s: %s", e.Path, e.Reason)
}

// Parse builds the AST for a filter value.
func Parse(v ld.Value) (Node, error) {
	return parse(v, "")
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func parse(v ld.Value, path string) (Node, error) {
	rec, ok := v.(*ld.Record)
	if !ok || rec == nil {
		return Compare{Op: OpEq, Operand: v}, nil
	}

	var nodes []Node
	var err error
	rec.Range(func(k string, val ld.Value) bool {
		var n Node
		if strings.HasPrefix(k, "$") {
			n, err = parseOperator(Op(k), val, join(path, k))
		} else {
			var sub Node
			sub, err = parse(val, join(path, k))
			n = Field{Name: k, Node: sub}
		}
		if err != nil {
			return false
		}
		nodes = append(nodes, n)
		return true
	})
	if err != nil {
		return nil, err
	}

	if len(nodes) == 1 {
		return nodes[0], nil
	}
	return And{Nodes: nodes}, nil
}

func parseOperator(op Op, val ld.Value, path string) (Node, error) {
	switch op {
	case OpAnd, OpOr:
		subs := ld.Values(val)
		if len(subs) == 0 {
			return nil, &SyntaxError{Path: path, Reason: "expects a non-empty list of filters"}
		}
		nodes := make([]Node, 0, len(subs))
		for i, s := range subs {
			n, err := parse(s, fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, n)
		}
		if op == OpAnd {
			return And{Nodes: nodes}, nil
		}
		return Or{Nodes: nodes}, nil

	case OpNot:
		n, err := parse(val, path)
		if err != nil {
			return nil, err
		}
		return Not{Node: n}, nil

	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
		return Compare{Op: op, Operand: val}, nil

	case OpContains:
		if ld.IsNil(val) {
			return nil, &SyntaxError{Path: path, Reason: "expects a value"}
		}
		return Contains{Operand: val}, nil

	case OpIncludes, OpStartsWith, OpEndsWith:
		s, ok := ld.ScalarString(val)
		if !ok {
			return nil, &SyntaxError{Path: path, Reason: "expects a scalar"}
		}
		return Text{Op: op, Operand: s}, nil

	case OpRegex:
		s, ok := val.(ld.String)
		if !ok {
			return nil, &SyntaxError{Path: path, Reason: "expects a pattern string"}
		}
		re, err := regexp.Compile("(?i)" + string(s))
		if err != nil {
			return nil, &SyntaxError{Path: path, Reason: err.Error()}
		}
		return Regex{Pattern: re}, nil

	case OpAny:
		n, err := parse(val, path)
		if err != nil {
			return nil, err
		}
		return Any{Node: n}, nil

	default:
		return nil, &SyntaxError{Path: path, Reason: fmt.Sprintf("unknown operator %q", op)}
	}
}
