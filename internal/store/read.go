package store

import (
	"fmt"

	"github.com/RoaringBitmap/roaring"

	"github.com/roach88/ldgraph/internal/filter"
	"github.com/roach88/ldgraph/internal/ld"
	"github.com/roach88/ldgraph/internal/stats"
)

// Materialized returns a copy of the flat materialized record for ref,
// with references left unresolved. Returns nil for an unknown ref.
func (s *Store) Materialized(ref *ld.Record) *ld.Record {
	if !ref.Valid() {
		return nil
	}
	rec := s.records[ref.Key()]
	if rec == nil {
		return nil
	}
	return rec.Clone()
}

// Get returns the fully resolved record for ref: its materialized record
// with every reachable reference expanded. Returns nil for an unknown ref.
func (s *Store) Get(ref *ld.Record) (*ld.Record, error) {
	if !ref.Valid() {
		return nil, ld.NewInvalidRecordError("get", "reference has no type")
	}
	root := s.records[ref.Key()]
	if root == nil {
		return nil, nil
	}

	// Children can reveal further children, so iterate until no new
	// reference turns up.
	table := []*ld.Record{root}
	seen := map[ld.Key]bool{ref.Key(): true}
	for i := 0; i < len(table); i++ {
		references(table[i], func(k ld.Key) {
			if seen[k] {
				return
			}
			seen[k] = true
			if child := s.records[k]; child != nil {
				table = append(table, child)
			}
		})
	}

	return s.norm.Unflatten(root.Key().Ref(), table), nil
}

// references calls fn with the key of every reference nested in r. Inline
// records are searched; referenced records are not.
func references(r *ld.Record, fn func(ld.Key)) {
	var walk func(v ld.Value)
	walk = func(v ld.Value) {
		switch t := v.(type) {
		case *ld.Record:
			if t == nil {
				return
			}
			if ld.IsReference(t) {
				for _, k := range ld.Identities(t) {
					fn(k)
				}
				return
			}
			t.Range(func(_ string, elem ld.Value) bool {
				walk(elem)
				return true
			})
		case ld.List:
			for _, elem := range t {
				walk(elem)
			}
		}
	}
	r.Range(func(k string, v ld.Value) bool {
		if k != ld.PropType && k != ld.PropID {
			walk(v)
		}
		return true
	})
}

// Search returns copies of the materialized records that satisfy
// filterParams and do not satisfy negativeFilterParams (either may be
// nil), in materialization order.
//
// A filter naming a plain string type is answered from the type index.
func (s *Store) Search(filterParams, negativeFilterParams ld.Value) ([]*ld.Record, error) {
	m, err := filter.Compile(filterParams, negativeFilterParams)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	out := []*ld.Record{}
	s.candidates(filterParams).Iterate(func(slot uint32) bool {
		rec := s.records[s.keys[slot]]
		if m.Meets(rec) {
			out = append(out, rec.Clone())
		}
		return true
	})
	return out, nil
}

// candidates returns the slots worth evaluating for filterParams.
func (s *Store) candidates(filterParams ld.Value) *roaring.Bitmap {
	if f, ok := filterParams.(*ld.Record); ok && f != nil {
		if t, ok := f.Get(ld.PropType).(ld.String); ok {
			if bm := s.types[string(t)]; bm != nil {
				return bm.Clone()
			}
			return roaring.New()
		}
	}
	all := roaring.New()
	if len(s.keys) > 0 {
		all.AddRange(0, uint64(len(s.keys)))
	}
	return all
}

// Stats returns per-property confidence statistics for ref.
func (s *Store) Stats(ref *ld.Record) (map[string]stats.PropertyStats, error) {
	key, err := targetOf("stats", ref)
	if err != nil {
		return nil, err
	}
	obs, err := s.log.Read(key)
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	return stats.Compute(obs, s.combiner), nil
}
