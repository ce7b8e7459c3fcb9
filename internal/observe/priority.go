package observe

import (
	"cmp"
	"slices"
	"strings"
)

// Higher reports whether a strictly outranks b. Observations of the same
// group are incomparable.
func Higher(a, b Observation) bool {
	if a.Group == b.Group {
		return false
	}
	if a.Credibility != b.Credibility {
		return a.Credibility > b.Credibility
	}
	return a.Timestamp.After(b.Timestamp)
}

// ComparePriority orders a before b when a has higher priority; the
// remaining ties are broken by group, index and id so the order is total.
func ComparePriority(a, b Observation) int {
	if c := cmp.Compare(b.Credibility, a.Credibility); c != 0 {
		return c
	}
	if c := b.Timestamp.Compare(a.Timestamp); c != 0 {
		return c
	}
	if c := strings.Compare(a.Group, b.Group); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Index, b.Index); c != 0 {
		return c
	}
	return strings.Compare(a.ID, b.ID)
}

// Sort returns a copy of obs in priority order, highest first.
func Sort(obs []Observation) []Observation {
	out := slices.Clone(obs)
	slices.SortStableFunc(out, ComparePriority)
	return out
}

// compareEmission orders observations by when they were made, for
// emitting properties in a stable, insertion-like order.
func compareEmission(a, b Observation) int {
	if c := a.Timestamp.Compare(b.Timestamp); c != 0 {
		return c
	}
	if c := strings.Compare(a.Group, b.Group); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Index, b.Index); c != 0 {
		return c
	}
	return strings.Compare(a.ID, b.ID)
}
