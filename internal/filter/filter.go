package filter

import (
	"log/slog"

	"github.com/roach88/ldgraph/internal/ld"
)

// Matcher is a compiled pair of positive and negative filters.
type Matcher struct {
	include Node // nil = no positive filter
	exclude Node // nil = no negative filter
}

// Compile parses filterParams and negativeFilterParams. Either may be nil.
func Compile(filterParams, negativeFilterParams ld.Value) (*Matcher, error) {
	m := &Matcher{}
	if !ld.IsNil(filterParams) {
		n, err := Parse(filterParams)
		if err != nil {
			return nil, err
		}
		m.include = n
	}
	if !ld.IsNil(negativeFilterParams) {
		n, err := Parse(negativeFilterParams)
		if err != nil {
			return nil, err
		}
		m.exclude = n
	}
	return m, nil
}

// Meets reports whether r is valid, satisfies the positive filter and
// does not satisfy the negative filter.
func (m *Matcher) Meets(r *ld.Record) bool {
	if !r.Valid() {
		return false
	}
	if m.include != nil && !Eval(m.include, r) {
		return false
	}
	if m.exclude != nil && Eval(m.exclude, r) {
		return false
	}
	return true
}

// MeetsFilterParams reports whether r is valid, satisfies filterParams (if
// given) and does not satisfy negativeFilterParams (if given). A malformed
// filter matches nothing.
func MeetsFilterParams(r *ld.Record, filterParams, negativeFilterParams ld.Value) bool {
	m, err := Compile(filterParams, negativeFilterParams)
	if err != nil {
		slog.Debug("filter rejected", "error", err)
		return false
	}
	return m.Meets(r)
}

// Match reports whether candidate satisfies filter. A malformed filter
// matches nothing.
func Match(candidate, f ld.Value) bool {
	n, err := Parse(f)
	if err != nil {
		slog.Debug("filter rejected", "error", err)
		return false
	}
	return Eval(n, candidate)
}

// Filter returns the valid records satisfying f, in input order. A
// malformed filter yields an empty result.
func Filter(records []*ld.Record, f ld.Value) []*ld.Record {
	out := []*ld.Record{}
	m, err := Compile(f, nil)
	if err != nil {
		slog.Debug("filter rejected", "error", err)
		return out
	}
	for _, r := range records {
		if m.Meets(r) {
			out = append(out, r)
		}
	}
	return out
}
