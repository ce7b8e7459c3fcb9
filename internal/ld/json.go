package ld

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"
)

// maxNesting bounds recursion when rendering records that may be cyclic.
const maxNesting = 1000

// ParseJSON decodes a JSON document into a Value, keeping object key order.
// JSON-LD keywords @type, @id and @context are renamed to their reserved
// property names. null decodes to nil and is dropped from objects and arrays.
func ParseJSON(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("trailing data after JSON value")
	}
	return v, nil
}

// ParseRecord decodes a JSON object into a Record.
func ParseRecord(data []byte) (*Record, error) {
	v, err := ParseJSON(data)
	if err != nil {
		return nil, err
	}
	r, ok := v.(*Record)
	if !ok {
		return nil, fmt.Errorf("expected JSON object, got %T", v)
	}
	return r, nil
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			rec := NewRecord()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("object key: unexpected token %v", keyTok)
				}
				val, err := decodeValue(dec)
				if err != nil {
					return nil, fmt.Errorf("object[%q]: %w", key, err)
				}
				if alias, ok := keyAliases[key]; ok {
					key = alias
				}
				rec.Set(key, val)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return rec, nil
		case '[':
			list := List{}
			for dec.More() {
				val, err := decodeValue(dec)
				if err != nil {
					return nil, fmt.Errorf("array[%d]: %w", len(list), err)
				}
				if !IsNil(val) {
					list = append(list, val)
				}
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return list, nil
		default:
			return nil, fmt.Errorf("unexpected delimiter %v", t)
		}
	case string:
		return String(t), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return nil, fmt.Errorf("number %s: %w", t, err)
		}
		return Number(f), nil
	case bool:
		return Bool(t), nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("unexpected token %T", tok)
	}
}

// MarshalJSON renders the record with keys in insertion order.
// Cyclic records fail rather than recursing forever.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, r, 0); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Marshal renders any value as JSON in emission order.
func Marshal(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, v, 0); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeJSON(buf *bytes.Buffer, v Value, depth int) error {
	if depth > maxNesting {
		return fmt.Errorf("value nested deeper than %d levels (cyclic record?)", maxNesting)
	}

	switch val := v.(type) {
	case nil:
		buf.WriteString("null")
	case *Record:
		if val == nil {
			buf.WriteString("null")
			return nil
		}
		buf.WriteByte('{')
		i := 0
		var err error
		val.Range(func(k string, elem Value) bool {
			if i > 0 {
				buf.WriteByte(',')
			}
			i++
			var keyBytes []byte
			keyBytes, err = json.Marshal(k)
			if err != nil {
				return false
			}
			buf.Write(keyBytes)
			buf.WriteByte(':')
			if err = writeJSON(buf, elem, depth+1); err != nil {
				err = fmt.Errorf("%q: %w", k, err)
				return false
			}
			return true
		})
		if err != nil {
			return err
		}
		buf.WriteByte('}')
	case List:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, elem, depth+1); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return err
		}
		buf.Write(data)
	}
	return nil
}

// FromAny converts decoded Go data (encoding/json, yaml, literals) into a
// Value. Map keys are sorted since Go maps carry no order.
func FromAny(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case Value:
		return val, nil
	case string:
		return String(val), nil
	case bool:
		return Bool(val), nil
	case int:
		return Number(val), nil
	case int64:
		return Number(val), nil
	case uint64:
		return Number(val), nil
	case float32:
		return Number(val), nil
	case float64:
		return Number(val), nil
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return nil, err
		}
		return Number(f), nil
	case time.Time:
		return NewDate(val), nil
	case []any:
		list := make(List, 0, len(val))
		for i, elem := range val {
			lv, err := FromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			if !IsNil(lv) {
				list = append(list, lv)
			}
		}
		return list, nil
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		rec := NewRecord()
		for _, k := range keys {
			rv, err := FromAny(val[k])
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", k, err)
			}
			if alias, ok := keyAliases[k]; ok {
				k = alias
			}
			rec.Set(k, rv)
		}
		return rec, nil
	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}

// ToAny converts a value into plain Go data (map[string]any, []any,
// string, float64, bool). Dates become RFC 3339 strings.
func ToAny(v Value) (any, error) {
	return toAny(v, 0)
}

func toAny(v Value, depth int) (any, error) {
	if depth > maxNesting {
		return nil, fmt.Errorf("value nested deeper than %d levels (cyclic record?)", maxNesting)
	}
	switch val := v.(type) {
	case nil:
		return nil, nil
	case String:
		return string(val), nil
	case Number:
		return float64(val), nil
	case Bool:
		return bool(val), nil
	case Date:
		s, _ := ScalarString(val)
		return s, nil
	case List:
		out := make([]any, len(val))
		for i, elem := range val {
			a, err := toAny(elem, depth+1)
			if err != nil {
				return nil, err
			}
			out[i] = a
		}
		return out, nil
	case *Record:
		if val == nil {
			return nil, nil
		}
		out := make(map[string]any, val.Len())
		var err error
		val.Range(func(k string, elem Value) bool {
			out[k], err = toAny(elem, depth+1)
			return err == nil
		})
		if err != nil {
			return nil, err
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unknown Value type: %T", v)
	}
}
