package algebra

import (
	"github.com/roach88/ldgraph/internal/ld"
	"github.com/roach88/ldgraph/internal/vocab"
)

// Algebra applies the record algebra under a vocabulary.
type Algebra struct {
	vocab *vocab.Vocabulary
}

// New creates an Algebra. A nil vocabulary applies no vocabulary rules.
func New(v *vocab.Vocabulary) *Algebra {
	return &Algebra{vocab: v}
}

// Vocabulary returns the vocabulary in use.
func (a *Algebra) Vocabulary() *vocab.Vocabulary {
	return a.vocab
}

// Merge unions, per property, the value sets of x and y (each value added
// without duplicates) and cleans the result.
//
// Returns *ld.InvalidRecordError if either side has no type and
// *ld.IdentityMismatchError if they are not the same entity.
func (a *Algebra) Merge(x, y *ld.Record) (*ld.Record, error) {
	if !x.Valid() {
		return nil, ld.NewInvalidRecordError("merge", "left record has no type")
	}
	if !y.Valid() {
		return nil, ld.NewInvalidRecordError("merge", "right record has no type")
	}
	if !ld.IsSame(x, y) {
		return nil, ld.NewIdentityMismatchError("merge", x, y)
	}

	out := x.Clone()
	y.Range(func(k string, v ld.Value) bool {
		out.Set(k, union(out.Get(k), ld.CloneValue(v)))
		return true
	})
	return a.Clean(out), nil
}

// SetValue returns a copy of r with v added to prop, skipping values
// already present.
func SetValue(r *ld.Record, prop string, v ld.Value) *ld.Record {
	out := r.Clone()
	out.Set(prop, union(out.Get(prop), ld.CloneValue(v)))
	return out
}

// EnsureID returns a copy of r that has an id. Explicit ids are kept;
// otherwise the vocabulary's content-derived id is used, then fallback.
// Without either the call fails.
func (a *Algebra) EnsureID(r *ld.Record, fallback func() string) (*ld.Record, error) {
	if !r.Valid() {
		return nil, ld.NewInvalidRecordError("setID", "record has no type")
	}
	out := r.Clone()
	if len(out.IDs()) > 0 {
		return out, nil
	}
	if id, ok := a.vocab.DeriveID(out); ok {
		out.Set(ld.PropID, ld.String(id))
		return out, nil
	}
	if fallback == nil {
		return nil, ld.NewInvalidRecordError("setID", "no id, no derivable id and no default")
	}
	out.Set(ld.PropID, ld.String(fallback()))
	return out, nil
}

// Deduplicate merges records denoting the same entity. The result keeps
// first-occurrence order; later duplicates are folded into the first.
func (a *Algebra) Deduplicate(records []*ld.Record) ([]*ld.Record, error) {
	out := make([]*ld.Record, 0, len(records))
	index := make(map[ld.Key]int)

	for _, r := range records {
		if !r.Valid() {
			return nil, ld.NewInvalidRecordError("deduplicate", "record has no type")
		}

		pos := -1
		for _, k := range ld.Identities(r) {
			if i, ok := index[k]; ok {
				pos = i
				break
			}
		}
		if pos < 0 && len(r.IDs()) == 0 {
			for i, existing := range out {
				if ld.IsSame(existing, r) {
					pos = i
					break
				}
			}
		}

		if pos < 0 {
			pos = len(out)
			out = append(out, r.Clone())
		} else {
			merged, err := a.Merge(out[pos], r)
			if err != nil {
				return nil, err
			}
			out[pos] = merged
		}
		for _, k := range ld.Identities(out[pos]) {
			index[k] = pos
		}
	}
	return out, nil
}

// union appends the incoming values not already present.
func union(existing, incoming ld.Value) ld.Value {
	vals := append(ld.List(nil), ld.Values(existing)...)
	for _, v := range ld.Values(incoming) {
		if !ld.Contains(vals, v) {
			vals = append(vals, v)
		}
	}
	return ld.Collapse(vals)
}
