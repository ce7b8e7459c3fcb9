package algebra

import (
	"github.com/roach88/ldgraph/internal/ident"
	"github.com/roach88/ldgraph/internal/ld"
)

// Clean returns a structurally normalized copy of r:
//   - undefined properties and undefined list elements are dropped
//   - empty lists become undefined, single-element lists become scalars
//   - type and id are deduplicated before collapsing
//   - a canonical id derived from content replaces a missing or generated
//     (blank-node) id, and references to the old id inside r are rewritten
//   - children under configured parent properties get the inverse
//     back-reference to their parent
//
// Nested records are cleaned recursively; cycles are visited once.
func (a *Algebra) Clean(r *ld.Record) *ld.Record {
	if r == nil {
		return nil
	}
	c := &cleaner{
		alg:     a,
		visited: make(map[*ld.Record]bool),
		renames: make(map[string]string),
	}
	out := r.Clone()
	c.record(out)
	if len(c.renames) > 0 {
		rewriteIDs(out, c.renames, make(map[*ld.Record]bool))
	}
	return out
}

type cleaner struct {
	alg     *Algebra
	visited map[*ld.Record]bool
	renames map[string]string // old blank id -> canonical id
}

// record cleans rec in place. rec is always part of a fresh clone.
func (c *cleaner) record(rec *ld.Record) {
	if c.visited[rec] {
		return
	}
	c.visited[rec] = true

	for _, k := range rec.Keys() {
		v := c.value(rec.Get(k))
		if k == ld.PropType || k == ld.PropID {
			v = ld.Collapse(ld.Unique(ld.Values(v)))
		}
		rec.Set(k, v)
	}

	c.canonicalID(rec)
	c.inverses(rec)
}

func (c *cleaner) value(v ld.Value) ld.Value {
	switch val := v.(type) {
	case *ld.Record:
		if val == nil {
			return nil
		}
		c.record(val)
		return val
	case ld.List:
		out := make(ld.List, 0, len(val))
		for _, elem := range val {
			if cv := c.value(elem); !ld.IsNil(cv) {
				out = append(out, cv)
			}
		}
		return ld.Collapse(out)
	default:
		return v
	}
}

func (c *cleaner) canonicalID(rec *ld.Record) {
	if !rec.Valid() {
		return
	}
	ids := rec.IDs()
	for _, id := range ids {
		if !ident.IsBlank(id) {
			return
		}
	}
	derived, ok := c.alg.vocab.DeriveID(rec)
	if !ok {
		return
	}
	for _, old := range ids {
		if old != derived {
			c.renames[old] = derived
		}
	}
	rec.Set(ld.PropID, ld.String(derived))
}

func (c *cleaner) inverses(rec *ld.Record) {
	if !rec.Valid() || len(rec.IDs()) == 0 {
		return
	}
	for _, k := range rec.Keys() {
		inv, ok := c.alg.vocab.InverseOf(rec, k)
		if !ok {
			continue
		}
		for _, child := range ld.Values(rec.Get(k)) {
			cr, ok := child.(*ld.Record)
			if !ok || !cr.Valid() || ld.IsReference(cr) {
				continue
			}
			ref := ld.RefOf(rec)
			if !ld.Contains(ld.Values(cr.Get(inv)), ref) {
				cr.Set(inv, union(cr.Get(inv), ref))
			}
		}
	}
}

// rewriteIDs replaces renamed ids everywhere inside rec.
func rewriteIDs(rec *ld.Record, renames map[string]string, visited map[*ld.Record]bool) {
	if visited[rec] {
		return
	}
	visited[rec] = true

	if ids := ld.Values(rec.Get(ld.PropID)); len(ids) > 0 {
		changed := false
		out := make(ld.List, 0, len(ids))
		for _, v := range ids {
			if s, ok := v.(ld.String); ok {
				if to, ok := renames[string(s)]; ok {
					v = ld.String(to)
					changed = true
				}
			}
			out = append(out, v)
		}
		if changed {
			rec.Set(ld.PropID, ld.Collapse(ld.Unique(out)))
		}
	}

	rec.Range(func(_ string, v ld.Value) bool {
		for _, elem := range ld.Values(v) {
			if child, ok := elem.(*ld.Record); ok {
				rewriteIDs(child, renames, visited)
			}
		}
		return true
	})
}
