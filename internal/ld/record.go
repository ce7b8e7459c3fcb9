package ld

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Reserved property names.
const (
	PropType    = "type"
	PropID      = "id"
	PropContext = "context"
)

// keyAliases maps JSON-LD keywords accepted on input to reserved names.
var keyAliases = map[string]string{
	"@type":    PropType,
	"@id":      PropID,
	"@context": PropContext,
}

// Record is an ordered mapping from property name to Value.
// The zero value is not usable; create records with NewRecord.
//
// Record methods mutate in place. Package-level operations elsewhere
// (merge, clean, flatten) always work on a Clone.
type Record struct {
	props *orderedmap.OrderedMap[string, Value]
}

func (*Record) ldValue() {}

// Pair is a property/value pair for Record construction.
type Pair struct {
	Key   string
	Value Value
}

// P is shorthand for Pair.
// Example: NewRecord(P("type", String("Person")), P("id", String("p1")))
func P(key string, value Value) Pair {
	return Pair{Key: key, Value: value}
}

// NewRecord creates a record from pairs in order. Nil values are skipped.
func NewRecord(pairs ...Pair) *Record {
	r := &Record{props: orderedmap.New[string, Value]()}
	for _, p := range pairs {
		r.Set(p.Key, p.Value)
	}
	return r
}

// Get returns the value of key, or nil when absent.
func (r *Record) Get(key string) Value {
	if r == nil {
		return nil
	}
	v, _ := r.props.Get(key)
	return v
}

// Has reports whether key is present.
func (r *Record) Has(key string) bool {
	if r == nil {
		return false
	}
	_, ok := r.props.Get(key)
	return ok
}

// Set assigns key. Setting nil removes the property. An existing key
// keeps its position.
func (r *Record) Set(key string, v Value) {
	if IsNil(v) {
		r.props.Delete(key)
		return
	}
	r.props.Set(key, v)
}

// Delete removes key.
func (r *Record) Delete(key string) {
	r.props.Delete(key)
}

// Len returns the number of properties.
func (r *Record) Len() int {
	if r == nil {
		return 0
	}
	return r.props.Len()
}

// Keys returns property names in insertion order.
func (r *Record) Keys() []string {
	if r == nil {
		return nil
	}
	keys := make([]string, 0, r.props.Len())
	for pair := r.props.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Range calls fn for each property in insertion order until fn returns false.
// fn must not add or remove properties.
func (r *Record) Range(fn func(key string, v Value) bool) {
	if r == nil {
		return
	}
	for pair := r.props.Oldest(); pair != nil; pair = pair.Next() {
		if !fn(pair.Key, pair.Value) {
			return
		}
	}
}

// Clone returns a deep copy. Shared and cyclic sub-records keep their
// shape: a record reachable twice is copied once.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	return cloneRecord(r, make(map[*Record]*Record))
}

// CloneValue deep-copies any value with the same sharing rules as Clone.
func CloneValue(v Value) Value {
	return cloneValue(v, make(map[*Record]*Record))
}

func cloneRecord(r *Record, seen map[*Record]*Record) *Record {
	if c, ok := seen[r]; ok {
		return c
	}
	c := NewRecord()
	seen[r] = c
	r.Range(func(k string, v Value) bool {
		c.Set(k, cloneValue(v, seen))
		return true
	})
	return c
}

func cloneValue(v Value, seen map[*Record]*Record) Value {
	switch val := v.(type) {
	case *Record:
		if val == nil {
			return nil
		}
		return cloneRecord(val, seen)
	case List:
		out := make(List, len(val))
		for i, elem := range val {
			out[i] = cloneValue(elem, seen)
		}
		return out
	default:
		return v
	}
}

// Types returns the type labels, coerced to strings, in order.
func (r *Record) Types() []string {
	return labels(r.Get(PropType))
}

// IDs returns the identifiers, coerced to strings, in order.
func (r *Record) IDs() []string {
	return labels(r.Get(PropID))
}

// Valid reports whether r is a record with at least one type label.
func (r *Record) Valid() bool {
	return r != nil && len(r.Types()) > 0
}

// Key returns the composed primary key (first type, first id).
func (r *Record) Key() Key {
	var k Key
	if types := r.Types(); len(types) > 0 {
		k.Type = types[0]
	}
	if ids := r.IDs(); len(ids) > 0 {
		k.ID = ids[0]
	}
	return k
}

func labels(v Value) []string {
	var out []string
	for _, elem := range Values(v) {
		s, ok := ScalarString(elem)
		if !ok || s == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}

// PropertyName maps a JSON-LD keyword (@type, @id, @context) to its
// reserved property name. Other names are returned unchanged.
func PropertyName(key string) string {
	if alias, ok := keyAliases[key]; ok {
		return alias
	}
	return key
}
