package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ldgraph/internal/ld"
)

func TestLoadScenario_Valid(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/alice_alicia.yaml")
	require.NoError(t, err)

	assert.Equal(t, "alice_alicia", scenario.Name)
	require.Len(t, scenario.Steps, 5)
	assert.Equal(t, OpListen, scenario.Steps[0].Op())
	assert.Equal(t, OpPost, scenario.Steps[1].Op())
	assert.Equal(t, OpStats, scenario.Steps[4].Op())
	require.NotNil(t, scenario.Steps[1].Meta)
	assert.Equal(t, 0.9, scenario.Steps[1].Meta.Credibility)
	assert.Equal(t, "crm", scenario.Steps[1].Meta.Source)
}

func TestLoadScenario_FileNotFound(t *testing.T) {
	_, err := LoadScenario("testdata/scenarios/nope.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_ResolvesVocabRelativeToFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: rel
vocab: vocab.cue
steps:
  - get: { type: Person, id: p1 }
`), 0o644))

	scenario, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "vocab.cue"), scenario.Vocab)
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "missing name",
			yaml: "steps:\n  - get: { type: Person, id: p1 }\n",
			want: "name is required",
		},
		{
			name: "no steps",
			yaml: "name: x\n",
			want: "steps list is required",
		},
		{
			name: "two operations",
			yaml: "name: x\nsteps:\n  - get: { type: Person, id: p1 }\n    stats: { type: Person, id: p1 }\n",
			want: "exactly one operation",
		},
		{
			name: "delete without property",
			yaml: "name: x\nsteps:\n  - delete: { type: Person, id: p1 }\n",
			want: "property is required for delete",
		},
		{
			name: "unknown field",
			yaml: "name: x\nsteps:\n  - get: { type: Person, id: p1 }\n    expects: {}\n",
			want: "failed to parse YAML",
		},
		{
			name: "credibility out of range",
			yaml: "name: x\nsteps:\n  - post: { type: Person, id: p1 }\n    meta: { credibility: 1.5 }\n",
			want: "outside [0,1]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestNodeValue_KeepsOrderAndTypes(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: types
steps:
  - post:
      "@type": Event
      "@id": e1
      title: Launch
      attendees: 30
      public: true
      starts: 2024-03-01T10:00:00Z
      tags: [a, ~, b]
      note: ~
`))
	require.NoError(t, err)

	v, err := nodeValue(&scenario.Steps[0].Post)
	require.NoError(t, err)
	rec, ok := v.(*ld.Record)
	require.True(t, ok)

	assert.Equal(t, []string{"type", "id", "title", "attendees", "public", "starts", "tags"}, rec.Keys())
	assert.Equal(t, ld.Number(30), rec.Get("attendees"))
	assert.Equal(t, ld.Bool(true), rec.Get("public"))
	assert.IsType(t, ld.Date{}, rec.Get("starts"))
	assert.Equal(t, ld.List{ld.String("a"), ld.String("b")}, rec.Get("tags"))
}

func TestSubsetMatch(t *testing.T) {
	got := ld.NewRecord(
		ld.P("type", ld.String("Person")),
		ld.P("id", ld.String("p1")),
		ld.P("name", ld.List{ld.String("Alice"), ld.String("Alicia")}),
	)

	assert.True(t, subsetMatch(ld.NewRecord(ld.P("id", ld.String("p1"))), got))
	assert.True(t, subsetMatch(ld.NewRecord(ld.P("name", ld.List{ld.String("Alicia"), ld.String("Alice")})), got))
	assert.False(t, subsetMatch(ld.NewRecord(ld.P("name", ld.String("Alice"))), got))
	assert.False(t, subsetMatch(ld.NewRecord(ld.P("age", ld.Number(3))), got))
	assert.False(t, subsetMatch(ld.NewRecord(), nil))
}
