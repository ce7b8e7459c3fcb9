package ld

import "strings"

// Key is the composed (type, id) key used to index observations and
// materialized records. Records with several types or ids are keyed by
// the first of each.
type Key struct {
	Type string
	ID   string
}

// String renders the key as "Type/ID".
func (k Key) String() string {
	return k.Type + "/" + k.ID
}

// IsZero reports whether the key has no id.
func (k Key) IsZero() bool {
	return k.ID == ""
}

// Ref returns the reference record for the key.
func (k Key) Ref() *Record {
	return NewRecord(P(PropType, String(k.Type)), P(PropID, String(k.ID)))
}

// CompareKeys orders keys by type then id.
func CompareKeys(a, b Key) int {
	if c := strings.Compare(a.Type, b.Type); c != 0 {
		return c
	}
	return strings.Compare(a.ID, b.ID)
}

// RefOf returns the reference of r: a new record holding only its type
// and id.
func RefOf(r *Record) *Record {
	return NewRecord(
		P(PropType, CloneValue(r.Get(PropType))),
		P(PropID, CloneValue(r.Get(PropID))),
	)
}

// IsReference reports whether r carries identity and nothing else
// (context aside).
func IsReference(r *Record) bool {
	if !r.Valid() || len(r.IDs()) == 0 {
		return false
	}
	only := true
	r.Range(func(k string, _ Value) bool {
		if k != PropType && k != PropID && k != PropContext {
			only = false
		}
		return only
	})
	return only
}

// Identities returns every (type, id) pair of r. Two valid records are
// the same entity iff they share at least one pair.
func Identities(r *Record) []Key {
	types, ids := r.Types(), r.IDs()
	keys := make([]Key, 0, len(types)*len(ids))
	for _, t := range types {
		for _, id := range ids {
			keys = append(keys, Key{Type: t, ID: id})
		}
	}
	return keys
}
