package graph

import "github.com/roach88/ldgraph/internal/ld"

// Unflatten resolves root against table, replacing reference-valued
// properties with the matching entries, recursively.
//
// root may be a reference or a partially populated record. Only
// properties already present are resolved; a reference whose entry is not
// in the table stays in place. A reference to the record being expanded,
// or to one already expanded anywhere in this call, is left as is.
// At most MaxDepth levels below root are expanded; deeper references stay.
func (n *Normalizer) Unflatten(root *ld.Record, table []*ld.Record) *ld.Record {
	if root == nil {
		return nil
	}
	u := &unflattener{
		index:   make(map[ld.Key]*ld.Record),
		visited: make(map[ld.Key]bool),
	}
	for _, node := range table {
		for _, k := range ld.Identities(node) {
			if _, ok := u.index[k]; !ok {
				u.index[k] = node
			}
		}
	}
	return u.expand(root, 0)
}

type unflattener struct {
	index   map[ld.Key]*ld.Record
	visited map[ld.Key]bool
}

func (u *unflattener) lookup(r *ld.Record) *ld.Record {
	for _, k := range ld.Identities(r) {
		if node, ok := u.index[k]; ok {
			return node
		}
	}
	return nil
}

func (u *unflattener) seen(r *ld.Record) bool {
	for _, k := range ld.Identities(r) {
		if u.visited[k] {
			return true
		}
	}
	return false
}

func (u *unflattener) expand(rec *ld.Record, depth int) *ld.Record {
	base := rec
	if ld.IsReference(rec) {
		if node := u.lookup(rec); node != nil {
			base = node
		}
	}
	if depth > MaxDepth {
		return rec.Clone()
	}

	for _, k := range ld.Identities(base) {
		u.visited[k] = true
	}

	out := ld.NewRecord()
	base.Range(func(k string, v ld.Value) bool {
		out.Set(k, u.value(v, base, depth))
		return true
	})
	return out
}

func (u *unflattener) value(v ld.Value, current *ld.Record, depth int) ld.Value {
	switch val := v.(type) {
	case *ld.Record:
		if val == nil {
			return nil
		}
		if len(val.IDs()) == 0 || !val.Valid() {
			// Value object: no identity, expand its properties in place.
			return u.expand(val, depth+1)
		}
		if ld.IsSame(val, current) || u.seen(val) {
			return val.Clone()
		}
		if ld.IsReference(val) && u.lookup(val) == nil {
			return val.Clone()
		}
		return u.expand(val, depth+1)
	case ld.List:
		out := make(ld.List, len(val))
		for i, elem := range val {
			out[i] = u.value(elem, current, depth)
		}
		return out
	default:
		return v
	}
}
