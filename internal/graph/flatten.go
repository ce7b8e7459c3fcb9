package graph

import (
	"github.com/roach88/ldgraph/internal/ident"
	"github.com/roach88/ldgraph/internal/ld"
)

// Flatten denormalizes r into a node table.
//
// Steps, all on a copy of r:
//  1. every valid, non-inline record lacking an id gets one (content
//     derived when the vocabulary allows, otherwise a generated blank node)
//  2. the tree is cleaned, which injects inverse back-references
//  3. every nested entity is collected and replaced by its reference
//  4. entries with colliding identity are merged
//
// The root is always the first entry. Pure references (type and id only)
// are not emitted as entries.
func (n *Normalizer) Flatten(r *ld.Record) ([]*ld.Record, error) {
	if !r.Valid() {
		return nil, ld.NewInvalidRecordError("flatten", "record has no type")
	}

	work := r.Clone()
	n.assignIDs(work, true, make(map[*ld.Record]bool))
	work = n.alg.Clean(work)

	f := &flattener{
		n:       n,
		visited: make(map[*ld.Record]bool),
		inlined: make(map[*ld.Record]bool),
	}
	f.node(work)

	return n.alg.Deduplicate(f.nodes)
}

// assignIDs gives an id to every valid record that will become a node.
func (n *Normalizer) assignIDs(rec *ld.Record, root bool, visited map[*ld.Record]bool) {
	if visited[rec] {
		return
	}
	visited[rec] = true

	if rec.Valid() && len(rec.IDs()) == 0 && (root || !n.vocab.IsInline(rec)) {
		if id, ok := n.vocab.DeriveID(rec); ok {
			rec.Set(ld.PropID, ld.String(id))
		} else {
			rec.Set(ld.PropID, ld.String(ident.Blank(n.ids)))
		}
	}

	rec.Range(func(_ string, v ld.Value) bool {
		for _, elem := range ld.Values(v) {
			if child, ok := elem.(*ld.Record); ok {
				n.assignIDs(child, false, visited)
			}
		}
		return true
	})
}

type flattener struct {
	n       *Normalizer
	nodes   []*ld.Record
	visited map[*ld.Record]bool
	inlined map[*ld.Record]bool
}

// node emits rec as a table entry. The slot is reserved before children
// are visited so parents precede their children.
func (f *flattener) node(rec *ld.Record) {
	if f.visited[rec] {
		return
	}
	f.visited[rec] = true

	slot := len(f.nodes)
	f.nodes = append(f.nodes, nil)

	out := ld.NewRecord()
	rec.Range(func(k string, v ld.Value) bool {
		out.Set(k, f.replace(v))
		return true
	})
	f.nodes[slot] = out
}

func (f *flattener) replace(v ld.Value) ld.Value {
	switch val := v.(type) {
	case *ld.Record:
		if val == nil {
			return nil
		}
		if !val.Valid() || len(val.IDs()) == 0 || f.n.vocab.IsInline(val) {
			return f.inline(val)
		}
		if !ld.IsReference(val) {
			f.node(val)
		}
		return ld.RefOf(val)
	case ld.List:
		out := make(ld.List, 0, len(val))
		for _, elem := range val {
			if rv := f.replace(elem); !ld.IsNil(rv) {
				out = append(out, rv)
			}
		}
		return out
	default:
		return v
	}
}

// inline copies a value object, extracting any entities nested in it.
// A value object that contains itself is dropped at the repeat.
func (f *flattener) inline(rec *ld.Record) ld.Value {
	if f.inlined[rec] {
		return nil
	}
	f.inlined[rec] = true
	defer delete(f.inlined, rec)

	out := ld.NewRecord()
	rec.Range(func(k string, v ld.Value) bool {
		out.Set(k, f.replace(v))
		return true
	})
	return out
}
