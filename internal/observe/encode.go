package observe

import (
	"github.com/roach88/ldgraph/internal/ld"
)

// ToObservations emits one Add per value per property of a flattened
// record, all in observation group. The id property is the target and is
// not observed.
func ToObservations(r *ld.Record, meta Metadata, group string) ([]Observation, error) {
	if !r.Valid() {
		return nil, ld.NewInvalidRecordError("observe", "record has no type")
	}
	target := r.Key()
	if target.IsZero() {
		return nil, ld.NewInvalidRecordError("observe", "record has no id")
	}
	if err := meta.Validate(); err != nil {
		return nil, err
	}

	var out []Observation
	var err error
	r.Range(func(k string, v ld.Value) bool {
		if k == ld.PropID {
			return true
		}
		for _, val := range ld.Values(v) {
			var o Observation
			o, err = newObservation(Add, target, k, val, nil, meta, group, len(out))
			if err != nil {
				return false
			}
			out = append(out, o)
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// NewDelete creates a Delete observation retracting every lower-priority
// observation of prop on target, or of every property but type when prop
// is AllProperties.
func NewDelete(target ld.Key, prop string, meta Metadata, group string) (Observation, error) {
	if err := meta.Validate(); err != nil {
		return Observation{}, err
	}
	return newObservation(Delete, target, prop, nil, nil, meta, group, 0)
}

// NewReplace creates a Replace observation asserting value in place of
// previous. A nil previous replaces every lower-priority value; a nil
// value only removes.
func NewReplace(target ld.Key, prop string, previous, value ld.Value, meta Metadata, group string) (Observation, error) {
	if err := meta.Validate(); err != nil {
		return Observation{}, err
	}
	return newObservation(Replace, target, prop, value, previous, meta, group, 0)
}
