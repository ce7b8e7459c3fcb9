package oblog

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/roach88/ldgraph/internal/ld"
)

// dateTag marks a date inside stored JSON so it decodes back to ld.Date
// rather than a string.
const dateTag = "@date"

// marshalValue converts a value to JSON TEXT for storage. nil is NULL.
func marshalValue(v ld.Value) (sql.NullString, error) {
	if ld.IsNil(v) {
		return sql.NullString{}, nil
	}
	data, err := ld.Marshal(tagDates(v))
	if err != nil {
		return sql.NullString{}, fmt.Errorf("marshal value: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// unmarshalValue parses stored JSON TEXT back into a value.
func unmarshalValue(s sql.NullString) (ld.Value, error) {
	if !s.Valid {
		return nil, nil
	}
	v, err := ld.ParseJSON([]byte(s.String))
	if err != nil {
		return nil, fmt.Errorf("unmarshal value: %w", err)
	}
	return untagDates(v)
}

func tagDates(v ld.Value) ld.Value {
	switch t := v.(type) {
	case ld.Date:
		return ld.NewRecord(ld.P(dateTag, ld.String(t.UTC().Format(time.RFC3339Nano))))
	case ld.List:
		out := make(ld.List, len(t))
		for i, elem := range t {
			out[i] = tagDates(elem)
		}
		return out
	case *ld.Record:
		out := ld.NewRecord()
		t.Range(func(k string, elem ld.Value) bool {
			out.Set(k, tagDates(elem))
			return true
		})
		return out
	default:
		return v
	}
}

func untagDates(v ld.Value) (ld.Value, error) {
	switch t := v.(type) {
	case ld.List:
		out := make(ld.List, len(t))
		for i, elem := range t {
			u, err := untagDates(elem)
			if err != nil {
				return nil, err
			}
			out[i] = u
		}
		return out, nil
	case *ld.Record:
		if t.Len() == 1 && t.Has(dateTag) {
			s, _ := t.Get(dateTag).(ld.String)
			ts, err := time.Parse(time.RFC3339Nano, string(s))
			if err != nil {
				return nil, fmt.Errorf("stored date %q: %w", s, err)
			}
			return ld.NewDate(ts), nil
		}
		out := ld.NewRecord()
		var err error
		t.Range(func(k string, elem ld.Value) bool {
			var u ld.Value
			if u, err = untagDates(elem); err != nil {
				return false
			}
			out.Set(k, u)
			return true
		})
		if err != nil {
			return nil, err
		}
		return out, nil
	default:
		return v, nil
	}
}
