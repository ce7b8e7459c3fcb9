package testutil

import (
	"testing"

	"github.com/roach88/ldgraph/internal/ld"
)

// MustRecord parses a JSON object into a record, failing the test on error.
func MustRecord(t testing.TB, data string) *ld.Record {
	t.Helper()
	r, err := ld.ParseRecord([]byte(data))
	if err != nil {
		t.Fatalf("MustRecord(%s): %v", data, err)
	}
	return r
}

// MustValue parses any JSON value, failing the test on error.
func MustValue(t testing.TB, data string) ld.Value {
	t.Helper()
	v, err := ld.ParseJSON([]byte(data))
	if err != nil {
		t.Fatalf("MustValue(%s): %v", data, err)
	}
	return v
}

// Ref returns the reference record for (typ, id).
func Ref(typ, id string) *ld.Record {
	return ld.Key{Type: typ, ID: id}.Ref()
}

// Canonical renders v as canonical JSON, failing the test on error.
func Canonical(t testing.TB, v ld.Value) string {
	t.Helper()
	data, err := ld.Canonical(v)
	if err != nil {
		t.Fatalf("Canonical: %v", err)
	}
	return string(data)
}
