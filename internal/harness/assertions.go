package harness

import (
	"fmt"

	"github.com/roach88/ldgraph/internal/ld"
)

// ExpectationError describes one failed expectation.
type ExpectationError struct {
	Step     int
	Op       string
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *ExpectationError) Error() string {
	return fmt.Sprintf("step %d (%s): expected %s, got %s", e.Step, e.Op, e.Expected, e.Actual)
}

func (h *Harness) fail(op, expected, actual string) {
	err := &ExpectationError{Step: h.step, Op: op, Expected: expected, Actual: actual}
	h.result.AddError(err.Error())
}

// subsetMatch reports whether got satisfies want: every property of a
// wanted record must match in got, lists match as sets of the same size,
// and anything else must be the same value.
func subsetMatch(want, got ld.Value) bool {
	switch w := want.(type) {
	case *ld.Record:
		g, ok := got.(*ld.Record)
		if !ok || g == nil {
			return false
		}
		match := true
		w.Range(func(k string, wv ld.Value) bool {
			match = subsetMatch(wv, g.Get(k))
			return match
		})
		return match
	case ld.List:
		gl := ld.Values(got)
		if len(gl) != len(w) {
			return false
		}
		for _, elem := range w {
			found := false
			for _, candidate := range gl {
				if subsetMatch(elem, candidate) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		return true
	default:
		return ld.IsSame(want, got)
	}
}

func render(v ld.Value) string {
	if v == nil {
		return "nothing"
	}
	data, err := ld.Canonical(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
