package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ldgraph/internal/ld"
	"github.com/roach88/ldgraph/internal/observe"
	"github.com/roach88/ldgraph/internal/testutil"
)

var p1 = ld.Key{Type: "Person", ID: "p1"}

func obs(t *testing.T, prop string, v ld.Value, cred float64, tick int, source, group string) observe.Observation {
	t.Helper()
	r := ld.NewRecord(ld.P(ld.PropType, ld.String("Person")), ld.P(ld.PropID, ld.String("p1")), ld.P(prop, v))
	meta := observe.Metadata{Credibility: cred, Timestamp: testutil.At(tick), Source: source}
	all, err := observe.ToObservations(r, meta, group)
	require.NoError(t, err)
	return all[1]
}

func TestIndependent(t *testing.T) {
	o1 := obs(t, "name", ld.String("Alice"), 0.5, 0, "a", "g-1")
	o2 := obs(t, "name", ld.String("Alice"), 0.5, 1, "a", "g-2")

	assert.InDelta(t, 0.5, Independent{}.Combine([]observe.Observation{o1}), 1e-9)
	assert.InDelta(t, 0.75, Independent{}.Combine([]observe.Observation{o1, o2}), 1e-9)
	assert.InDelta(t, 0.0, Independent{}.Combine(nil), 1e-9)
}

func TestPerSource(t *testing.T) {
	a1 := obs(t, "name", ld.String("Alice"), 0.5, 0, "a", "g-1")
	a2 := obs(t, "name", ld.String("Alice"), 0.6, 1, "a", "g-2")
	b := obs(t, "name", ld.String("Alice"), 0.5, 2, "b", "g-3")

	assert.InDelta(t, 0.6, PerSource{}.Combine([]observe.Observation{a1, a2}), 1e-9, "one source does not compound")
	assert.InDelta(t, 0.8, PerSource{}.Combine([]observe.Observation{a1, a2, b}), 1e-9)
}

func TestRound3(t *testing.T) {
	assert.Equal(t, 0.667, Round3(2.0/3.0))
	assert.Equal(t, 0.5, Round3(0.5))
	assert.Equal(t, 1.0, Round3(0.99999))
}

func TestCompute_AliceAlicia(t *testing.T) {
	all := []observe.Observation{
		obs(t, "name", ld.String("Alice"), 0.9, 0, "crm", "g-1"),
		obs(t, "name", ld.String("Alicia"), 0.5, 1, "web", "g-2"),
	}

	stats := Compute(all, nil)
	name, ok := stats["name"]
	require.True(t, ok)

	assert.Equal(t, "name", name.PropertyID)
	assert.Equal(t, ld.String("Alice"), name.Best)
	require.Len(t, name.Values, 2)

	alice := name.Values[0]
	assert.Equal(t, ld.String("Alice"), alice.Value)
	assert.Equal(t, 0.9, alice.ConfidenceLevel)
	assert.Equal(t, 1, alice.NbSources)
	assert.Equal(t, 1, alice.Count)

	alicia, ok := name.Find(ld.String("Alicia"))
	require.True(t, ok)
	assert.Equal(t, 0.5, alicia.ConfidenceLevel)

	_, ok = name.Find(ld.String("Bob"))
	assert.False(t, ok)
}

func TestCompute_AggregatesRepeatedValue(t *testing.T) {
	all := []observe.Observation{
		obs(t, "name", ld.String("Alice"), 0.5, 0, "crm", "g-1"),
		obs(t, "name", ld.String("Alice"), 0.8, 3, "web", "g-2"),
		obs(t, "name", ld.String("Alice"), 0.5, 5, "crm", "g-3"),
	}

	vs := Compute(all, nil)["name"].Values
	require.Len(t, vs, 1)

	assert.Equal(t, 0.95, vs[0].ConfidenceLevel)
	assert.Equal(t, 2, vs[0].NbSources)
	assert.Equal(t, 3, vs[0].Count)
	assert.Equal(t, 0.5, vs[0].MinCredibility)
	assert.Equal(t, 0.8, vs[0].MaxCredibility)
	assert.Equal(t, testutil.At(0), vs[0].MinTimestamp)
	assert.Equal(t, testutil.At(5), vs[0].MaxTimestamp)

	perSource := Compute(all, PerSource{})["name"].Values
	assert.Equal(t, 0.9, perSource[0].ConfidenceLevel)
}

func TestCompute_DeletedValuesExcluded(t *testing.T) {
	del, err := observe.NewDelete(p1, "name", observe.Metadata{Credibility: 0.9, Timestamp: testutil.At(2)}, "g-3")
	require.NoError(t, err)

	all := []observe.Observation{
		obs(t, "name", ld.String("Alice"), 0.5, 0, "crm", "g-1"),
		del,
		obs(t, "age", ld.Number(30), 0.5, 0, "crm", "g-1"),
	}

	stats := Compute(all, nil)
	_, ok := stats["name"]
	assert.False(t, ok)
	assert.Contains(t, stats, "age")
}

func TestCompute_ConfidenceMonotonic(t *testing.T) {
	var all []observe.Observation
	prev := 0.0
	for i, cred := range []float64{0.1, 0.4, 0.05, 0.7, 0.3} {
		all = append(all, obs(t, "name", ld.String("Alice"), cred, i, "s", "g-"+string(rune('a'+i))))
		level := Compute(all, nil)["name"].Values[0].ConfidenceLevel

		assert.GreaterOrEqual(t, level, prev)
		assert.LessOrEqual(t, level, 1.0)
		prev = level
	}
}

func TestCompute_WholeRecordDelete(t *testing.T) {
	wipe, err := observe.NewDelete(p1, observe.AllProperties,
		observe.Metadata{Credibility: 0.9, Timestamp: testutil.At(1), Source: "admin"}, "g-2")
	require.NoError(t, err)
	all := []observe.Observation{
		obs(t, "name", ld.String("Alice"), 0.5, 0, "crm", "g-1"),
		obs(t, "age", ld.Number(30), 0.5, 0, "crm", "g-1"),
		wipe,
		obs(t, "name", ld.String("Alicia"), 0.9, 2, "web", "g-3"),
	}

	stats := Compute(all, nil)
	assert.NotContains(t, stats, "age")
	assert.NotContains(t, stats, observe.AllProperties)
	require.Contains(t, stats, "name")
	require.Len(t, stats["name"].Values, 1)
	assert.Equal(t, ld.String("Alicia"), stats["name"].Best)
}
