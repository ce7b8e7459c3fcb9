package filter

import (
	"strings"

	"github.com/roach88/ldgraph/internal/ld"
)

// Eval reports whether candidate satisfies n.
//
// A list-valued candidate is treated as a set at the leaves: a leaf holds
// when the list as a whole or any of its elements satisfies it. $ne and
// $not negate that membership test, never a per-element one, so a record
// never matches both a predicate and its negation.
func Eval(n Node, candidate ld.Value) bool {
	switch node := n.(type) {
	case And:
		for _, sub := range node.Nodes {
			if !Eval(sub, candidate) {
				return false
			}
		}
		return true
	case Or:
		for _, sub := range node.Nodes {
			if Eval(sub, candidate) {
				return true
			}
		}
		return false
	case Not:
		return !Eval(node.Node, candidate)
	case Compare:
		return compare(node, candidate)
	case Contains:
		have := ld.Values(candidate)
		if len(have) == 0 {
			return false
		}
		for _, want := range ld.Values(node.Operand) {
			if !ld.Contains(have, want) {
				return false
			}
		}
		return true
	case Text:
		return anyMember(candidate, func(v ld.Value) bool {
			s, ok := ld.ScalarString(v)
			if !ok {
				return false
			}
			switch node.Op {
			case OpIncludes:
				return strings.Contains(s, node.Operand)
			case OpStartsWith:
				return strings.HasPrefix(s, node.Operand)
			default:
				return strings.HasSuffix(s, node.Operand)
			}
		})
	case Regex:
		return anyMember(candidate, func(v ld.Value) bool {
			s, ok := ld.ScalarString(v)
			return ok && node.Pattern.MatchString(s)
		})
	case Any:
		if Eval(node.Node, candidate) {
			return true
		}
		rec, ok := candidate.(*ld.Record)
		if !ok || rec == nil {
			return false
		}
		found := false
		rec.Range(func(_ string, v ld.Value) bool {
			found = Eval(node.Node, v)
			return !found
		})
		return found
	case Field:
		return anyMember(candidate, func(v ld.Value) bool {
			rec, ok := v.(*ld.Record)
			if !ok || rec == nil {
				return false
			}
			return Eval(node.Node, rec.Get(node.Name))
		})
	default:
		return false
	}
}

// anyMember applies fn to a scalar or record, or to each element of a list.
// An empty list is undefined.
func anyMember(v ld.Value, fn func(ld.Value) bool) bool {
	list, ok := v.(ld.List)
	if !ok {
		return fn(v)
	}
	if len(list) == 0 {
		return fn(nil)
	}
	for _, elem := range list {
		if fn(elem) {
			return true
		}
	}
	return false
}

// compare orders by ld.Compare, so undefined sorts before any value.
func compare(node Compare, candidate ld.Value) bool {
	switch node.Op {
	case OpEq:
		return equals(candidate, node.Operand)
	case OpNe:
		return !equals(candidate, node.Operand)
	}

	return anyMember(candidate, func(v ld.Value) bool {
		switch node.Op {
		case OpLt:
			return ld.Lt(v, node.Operand)
		case OpLe:
			return ld.Le(v, node.Operand)
		case OpGt:
			return ld.Gt(v, node.Operand)
		case OpGe:
			return ld.Ge(v, node.Operand)
		default:
			return false
		}
	})
}

// equals reports whether candidate is operand, or a list holding it.
func equals(candidate, operand ld.Value) bool {
	if ld.IsSame(candidate, operand) {
		return true
	}
	list, ok := candidate.(ld.List)
	return ok && ld.Contains(list, operand)
}
