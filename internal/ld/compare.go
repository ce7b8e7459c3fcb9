package ld

import (
	"cmp"
	"strings"
	"time"

	"github.com/roach88/ldgraph/internal/ident"
)

// IsSame reports whether a and b denote the same thing.
//
//   - Lists: element-wise bidirectional containment
//   - Valid records with ids: type sets intersect AND id sets intersect
//   - Scalars: strict equality (same kind, same value); dates by instant
//   - Mismatched kinds are never the same
//
// Records without ids (or without types) have no identity to compare and
// fall back to canonical equality, which keeps IsSame reflexive.
func IsSame(a, b Value) bool {
	if IsNil(a) || IsNil(b) {
		return IsNil(a) && IsNil(b)
	}

	switch av := a.(type) {
	case List:
		bv, ok := b.(List)
		if !ok {
			return false
		}
		return containsAll(av, bv) && containsAll(bv, av)
	case *Record:
		bv, ok := b.(*Record)
		if !ok {
			return false
		}
		if av == bv {
			return true
		}
		if hasIdentity(av) && hasIdentity(bv) {
			return intersects(av.Types(), bv.Types()) && intersects(av.IDs(), bv.IDs())
		}
		return canonicalString(av) == canonicalString(bv)
	case Date:
		bv, ok := b.(Date)
		return ok && av.Equal(bv.Time)
	default:
		return a == b
	}
}

// Contains reports whether some element of vals IsSame as v.
func Contains(vals List, v Value) bool {
	for _, elem := range vals {
		if IsSame(elem, v) {
			return true
		}
	}
	return false
}

// Unique returns vals without IsSame duplicates, first occurrence kept.
func Unique(vals List) List {
	out := make(List, 0, len(vals))
	for _, v := range vals {
		if !Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}

func hasIdentity(r *Record) bool {
	return r.Valid() && len(r.IDs()) > 0
}

func containsAll(haystack, needles List) bool {
	for _, n := range needles {
		if !Contains(haystack, n) {
			return false
		}
	}
	return true
}

func intersects(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

// Compare returns a total order over values.
//
// Undefined sorts before any defined value. Valid records compare by type
// then id. Dates compare chronologically, including two strings that both
// parse as dates. Numbers compare numerically and strings lexically.
// Anything else compares by canonical JSON.
func Compare(a, b Value) int {
	switch {
	case IsNil(a) && IsNil(b):
		return 0
	case IsNil(a):
		return -1
	case IsNil(b):
		return 1
	}

	if ra, ok := a.(*Record); ok && ra.Valid() {
		if rb, ok := b.(*Record); ok && rb.Valid() {
			if c := strings.Compare(strings.Join(ra.Types(), ","), strings.Join(rb.Types(), ",")); c != 0 {
				return c
			}
			return strings.Compare(strings.Join(ra.IDs(), ","), strings.Join(rb.IDs(), ","))
		}
	}

	if ta, ok := asTime(a); ok {
		if tb, ok := asTime(b); ok {
			return ta.Compare(tb)
		}
	}

	if na, ok := a.(Number); ok {
		if nb, ok := b.(Number); ok {
			return cmp.Compare(na, nb)
		}
	}

	if sa, ok := a.(String); ok {
		if sb, ok := b.(String); ok {
			return strings.Compare(string(sa), string(sb))
		}
	}

	return strings.Compare(canonicalString(a), canonicalString(b))
}

func asTime(v Value) (time.Time, bool) {
	switch val := v.(type) {
	case Date:
		return val.Time, true
	case String:
		return ident.ParseDate(string(val))
	default:
		return time.Time{}, false
	}
}

// Lt reports a < b under Compare.
func Lt(a, b Value) bool { return Compare(a, b) < 0 }

// Gt reports a > b under Compare.
func Gt(a, b Value) bool { return Compare(a, b) > 0 }

// Le reports IsSame(a, b) or a < b.
func Le(a, b Value) bool { return IsSame(a, b) || Lt(a, b) }

// Ge reports IsSame(a, b) or a > b.
func Ge(a, b Value) bool { return IsSame(a, b) || Gt(a, b) }

// Eq reports structural equality. Two valid records are equal iff neither
// has a property value the other lacks; other values compare by canonical
// JSON.
func Eq(a, b Value) bool {
	if IsNil(a) || IsNil(b) {
		return IsNil(a) && IsNil(b)
	}
	ra, aok := a.(*Record)
	rb, bok := b.(*Record)
	if aok && bok && ra.Valid() && rb.Valid() {
		return Diff(ra, rb).Len() == 0 && Diff(rb, ra).Len() == 0
	}
	return canonicalString(a) == canonicalString(b)
}
