package observe

import (
	"slices"

	"github.com/roach88/ldgraph/internal/ld"
)

// AllProperties as the property of a Delete retracts every property of
// the target except type, so the key itself survives.
const AllProperties = "*"

func isWildcard(o Observation) bool {
	return o.Kind == Delete && o.PropertyID == AllProperties
}

// Partition groups observations by property, keeping input order.
// Whole-record deletes join every partition but type's, after its own
// observations, and form no partition of their own.
func Partition(obs []Observation) map[string][]Observation {
	out := make(map[string][]Observation)
	var wildcards []Observation
	for _, o := range obs {
		if isWildcard(o) {
			wildcards = append(wildcards, o)
			continue
		}
		out[o.PropertyID] = append(out[o.PropertyID], o)
	}
	if len(wildcards) == 0 {
		return out
	}
	for prop, group := range out {
		if prop != ld.PropType {
			out[prop] = append(group, wildcards...)
		}
	}
	return out
}

// Survivors returns, in priority order, the observations of one property
// that still contribute a value after Delete and Replace are applied.
func Survivors(obs []Observation) []Observation {
	sorted := Sort(obs)
	alive := make([]bool, len(sorted))
	for i := range alive {
		alive[i] = true
	}

	for i, o := range sorted {
		if !alive[i] || o.Kind == Add {
			continue
		}
		for j := i + 1; j < len(sorted); j++ {
			if !alive[j] || !Higher(o, sorted[j]) {
				continue
			}
			if o.Kind == Delete || ld.IsNil(o.PreviousValue) || ld.IsSame(sorted[j].Value, o.PreviousValue) {
				alive[j] = false
			}
		}
	}

	var out []Observation
	for i, o := range sorted {
		if alive[i] && o.Kind != Delete && !ld.IsNil(o.Value) {
			out = append(out, o)
		}
	}
	return out
}

// ReduceProperty returns the materialized value of one property: a scalar
// for one surviving value, a list for several, nil for none.
func ReduceProperty(obs []Observation) ld.Value {
	survivors := Survivors(obs)
	vals := make(ld.List, 0, len(survivors))
	for _, o := range survivors {
		if !ld.Contains(vals, o.Value) {
			vals = append(vals, ld.CloneValue(o.Value))
		}
	}
	return ld.Collapse(vals)
}

// Reduce materializes the record for target from obs. Observations for
// other targets are ignored. Returns nil when nothing targets it.
//
// type comes first, then id, then the other properties in the order they
// were first observed.
func Reduce(target ld.Key, obs []Observation) *ld.Record {
	var mine []Observation
	for _, o := range obs {
		if o.Target == target {
			mine = append(mine, o)
		}
	}
	if len(mine) == 0 {
		return nil
	}

	byProp := Partition(mine)
	props := make([]string, 0, len(byProp))
	first := make(map[string]Observation, len(byProp))
	for prop, group := range byProp {
		props = append(props, prop)
		first[prop] = slices.MinFunc(ownObservations(group), compareEmission)
	}
	slices.SortFunc(props, func(a, b string) int {
		return compareEmission(first[a], first[b])
	})

	out := ld.NewRecord()
	typ := ReduceProperty(byProp[ld.PropType])
	if ld.IsNil(typ) {
		typ = ld.String(target.Type)
	}
	out.Set(ld.PropType, typ)
	out.Set(ld.PropID, ld.String(target.ID))

	for _, prop := range props {
		if prop == ld.PropType || prop == ld.PropID {
			continue
		}
		out.Set(prop, ReduceProperty(byProp[prop]))
	}
	return out
}

// ownObservations drops the whole-record deletes Partition added.
func ownObservations(group []Observation) []Observation {
	own := make([]Observation, 0, len(group))
	for _, o := range group {
		if !isWildcard(o) {
			own = append(own, o)
		}
	}
	return own
}
