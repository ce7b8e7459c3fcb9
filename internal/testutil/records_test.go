package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/ldgraph/internal/ld"
)

func TestMustRecord_AppliesKeywordAliases(t *testing.T) {
	r := MustRecord(t, `{"@type":"Person","@id":"p1","name":"Alice"}`)

	assert.Equal(t, ld.Key{Type: "Person", ID: "p1"}, r.Key())
	assert.Equal(t, []string{"type", "id", "name"}, r.Keys())
}

func TestRef(t *testing.T) {
	r := Ref("Person", "p1")

	assert.True(t, ld.IsReference(r))
	assert.Equal(t, `{"id":"p1","type":"Person"}`, Canonical(t, r))
}
