package ld

// Diff returns, for each property of a, the values not IsSame as any value
// of the same property of b. Properties with nothing left are omitted and
// context is ignored.
//
// Returns nil if either input is not a valid record.
func Diff(a, b *Record) *Record {
	if !a.Valid() || !b.Valid() {
		return nil
	}

	out := NewRecord()
	a.Range(func(k string, v Value) bool {
		if k == PropContext {
			return true
		}
		theirs := Values(b.Get(k))
		var rest List
		for _, mine := range Values(v) {
			if !Contains(theirs, mine) {
				rest = append(rest, mine)
			}
		}
		out.Set(k, Collapse(rest))
		return true
	})
	return out
}
