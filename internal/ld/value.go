package ld

import (
	"encoding/json"
	"math"
	"strconv"
	"time"
)

// Value is a sealed interface over the record value kinds.
// Only String, Number, Bool, Date, List and *Record implement it.
// A nil Value means "undefined": the property is absent.
type Value interface {
	ldValue()
}

// String is a string scalar.
type String string

func (String) ldValue() {}

// Number is a numeric scalar. JSON numbers decode to Number.
type Number float64

func (Number) ldValue() {}

// MarshalJSON renders integral numbers without a fraction or exponent.
func (n Number) MarshalJSON() ([]byte, error) {
	s, err := formatNumber(float64(n))
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}

// Bool is a boolean scalar.
type Bool bool

func (Bool) ldValue() {}

// Date is a point in time. Dates compare chronologically.
type Date struct {
	time.Time
}

func (Date) ldValue() {}

// NewDate wraps t as a Date value.
func NewDate(t time.Time) Date {
	return Date{Time: t}
}

// MarshalJSON renders the date as an RFC 3339 string.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.UTC().Format(time.RFC3339Nano))
}

// List is an ordered collection of values. Lists are sets for equality
// purposes but keep insertion order.
type List []Value

func (List) ldValue() {}

// Values returns v as a list: nil for undefined, v itself for a List and
// a one-element list otherwise.
func Values(v Value) List {
	switch val := v.(type) {
	case nil:
		return nil
	case List:
		return val
	case *Record:
		if val == nil {
			return nil
		}
		return List{val}
	default:
		return List{v}
	}
}

// Collapse is the inverse of Values: empty lists become undefined and
// single-element lists become their element.
func Collapse(vals List) Value {
	switch len(vals) {
	case 0:
		return nil
	case 1:
		return vals[0]
	default:
		return vals
	}
}

// IsNil reports whether v is undefined, including a typed nil *Record.
func IsNil(v Value) bool {
	if v == nil {
		return true
	}
	r, ok := v.(*Record)
	return ok && r == nil
}

// ScalarString coerces a scalar to its string form.
// Records and lists have no scalar form and report false.
func ScalarString(v Value) (string, bool) {
	switch val := v.(type) {
	case String:
		return string(val), true
	case Number:
		s, err := formatNumber(float64(val))
		return s, err == nil
	case Bool:
		return strconv.FormatBool(bool(val)), true
	case Date:
		return val.UTC().Format(time.RFC3339Nano), true
	default:
		return "", false
	}
}

// formatNumber follows the ECMAScript number-to-string rules closely
// enough for canonical output: plain digits in the common range and an
// exponent outside it.
func formatNumber(f float64) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", &json.UnsupportedValueError{Str: strconv.FormatFloat(f, 'g', -1, 64)}
	}
	if f == 0 {
		return "0", nil
	}
	abs := math.Abs(f)
	if abs >= 1e21 || abs < 1e-6 {
		return strconv.FormatFloat(f, 'e', -1, 64), nil
	}
	return strconv.FormatFloat(f, 'f', -1, 64), nil
}
