package store

import (
	"bytes"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ldgraph/internal/ident"
	"github.com/roach88/ldgraph/internal/ld"
	"github.com/roach88/ldgraph/internal/oblog"
	"github.com/roach88/ldgraph/internal/observe"
	"github.com/roach88/ldgraph/internal/stats"
	"github.com/roach88/ldgraph/internal/testutil"
)

func newStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	base := []Option{
		WithGenerator(ident.NewSequenceGenerator("g")),
		WithClock(testutil.NewDeterministicClock()),
	}
	s, err := New(append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func cred(c float64) observe.Metadata {
	return observe.Metadata{Credibility: c}
}

func post(t *testing.T, s *Store, record string, c float64) {
	t.Helper()
	require.NoError(t, s.Post(testutil.MustRecord(t, record), cred(c)))
}

func get(t *testing.T, s *Store, typ, id string) string {
	t.Helper()
	r, err := s.Get(testutil.Ref(typ, id))
	require.NoError(t, err)
	require.NotNil(t, r, "%s/%s not materialized", typ, id)
	return testutil.Canonical(t, r)
}

func TestStore_AliceAlicia(t *testing.T) {
	s := newStore(t)
	post(t, s, `{"type":"Person","id":"p1","name":"Alice"}`, 0.9)
	post(t, s, `{"type":"Person","id":"p1","name":"Alicia"}`, 0.5)

	assert.Equal(t, `{"id":"p1","name":["Alice","Alicia"],"type":"Person"}`, get(t, s, "Person", "p1"))
	assert.Equal(t, 1, s.Len())

	st, err := s.Stats(testutil.Ref("Person", "p1"))
	require.NoError(t, err)
	name := st["name"]
	assert.Equal(t, ld.String("Alice"), name.Best)
	require.Len(t, name.Values, 2)
	assert.Equal(t, 0.9, name.Values[0].ConfidenceLevel)
	assert.Equal(t, 0.5, name.Values[1].ConfidenceLevel)
}

func TestStore_OrgAddress(t *testing.T) {
	s := newStore(t)
	post(t, s, `{
		"type":"Organization","id":"o1","name":"Acme",
		"address":{"type":"PostalAddress","streetAddress":"1 Main St","addressLocality":"Paris"}
	}`, 1)

	assert.Equal(t,
		`{"address":{"addressLocality":"Paris","id":"_:g-1","streetAddress":"1 Main St","type":"PostalAddress"},"id":"o1","name":"Acme","type":"Organization"}`,
		get(t, s, "Organization", "o1"))

	flat := s.Materialized(testutil.Ref("Organization", "o1"))
	assert.True(t, ld.IsReference(flat.Get("address").(*ld.Record)), "materialized records hold references")

	addresses, err := s.Search(testutil.MustValue(t, `{"type":"PostalAddress"}`), nil)
	require.NoError(t, err)
	require.Len(t, addresses, 1)
	assert.Equal(t, ld.String("Paris"), addresses[0].Get("addressLocality"))
	assert.Equal(t, 2, s.Len())
}

func TestStore_AgeFilter(t *testing.T) {
	s := newStore(t)
	post(t, s, `{"type":"Person","id":"p1","name":"Alice","age":31}`, 1)
	post(t, s, `{"type":"Person","id":"p2","name":"Bob","age":25}`, 1)
	post(t, s, `{"type":"Person","id":"p3","name":"Cleo","age":42}`, 1)
	post(t, s, `{"type":"Robot","id":"r1","name":"R2","age":50}`, 1)

	over30, err := s.Search(testutil.MustValue(t, `{"type":"Person","age":{"$gt":30}}`), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p3"}, keyIDs(over30))

	anyType, err := s.Search(testutil.MustValue(t, `{"age":{"$gt":30}}`), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p3", "r1"}, keyIDs(anyType))

	negative, err := s.Search(testutil.MustValue(t, `{"type":"Person"}`), testutil.MustValue(t, `{"name":"Cleo"}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2"}, keyIDs(negative))

	everything, err := s.Search(nil, nil)
	require.NoError(t, err)
	assert.Len(t, everything, 4)

	none, err := s.Search(testutil.MustValue(t, `{"type":"Unicorn"}`), nil)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestStore_SearchReturnsCopies(t *testing.T) {
	s := newStore(t)
	post(t, s, `{"type":"Person","id":"p1","name":"Alice"}`, 1)

	found, err := s.Search(testutil.MustValue(t, `{"type":"Person"}`), nil)
	require.NoError(t, err)
	found[0].Set("name", ld.String("Mallory"))

	assert.Equal(t, `{"id":"p1","name":"Alice","type":"Person"}`, get(t, s, "Person", "p1"))
}

func TestStore_SearchRejectsMalformedFilter(t *testing.T) {
	s := newStore(t)
	_, err := s.Search(testutil.MustValue(t, `{"name":{"$bogus":1}}`), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "$bogus")
}

func TestStore_TypeIndexFollowsTypeChanges(t *testing.T) {
	s := newStore(t)
	post(t, s, `{"type":"Person","id":"x1","name":"Shape"}`, 0.5)
	require.NoError(t, s.Replace(testutil.Ref("Person", "x1"), ld.PropType, nil, ld.String("Robot"), cred(0.9)))

	people, err := s.Search(testutil.MustValue(t, `{"type":"Person"}`), nil)
	require.NoError(t, err)
	assert.Empty(t, people)

	robots, err := s.Search(testutil.MustValue(t, `{"type":"Robot"}`), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"x1"}, keyIDs(robots))
}

func TestStore_DeleteDominance(t *testing.T) {
	s := newStore(t)
	post(t, s, `{"type":"Person","id":"p1","name":"Alice","age":30}`, 0.5)

	require.NoError(t, s.Delete(testutil.Ref("Person", "p1"), "name", cred(0.9)))
	assert.Equal(t, `{"age":30,"id":"p1","type":"Person"}`, get(t, s, "Person", "p1"))

	// A weaker assertion made later does not outrank the delete.
	post(t, s, `{"type":"Person","id":"p1","name":"Alicia"}`, 0.5)
	assert.Equal(t, `{"age":30,"id":"p1","type":"Person"}`, get(t, s, "Person", "p1"))

	post(t, s, `{"type":"Person","id":"p1","name":"Al"}`, 0.9)
	assert.Equal(t, `{"age":30,"id":"p1","name":"Al","type":"Person"}`, get(t, s, "Person", "p1"))
}

func TestStore_DeleteWholeRecord(t *testing.T) {
	s := newStore(t)
	post(t, s, `{"type":"Person","id":"p1","name":"Alice","age":30}`, 0.5)
	post(t, s, `{"type":"Person","id":"p2","name":"Bob"}`, 0.5)

	require.NoError(t, s.Delete(testutil.Ref("Person", "p1"), observe.AllProperties, cred(0.9)))
	assert.Equal(t, `{"id":"p1","type":"Person"}`, get(t, s, "Person", "p1"))
	assert.Equal(t, `{"id":"p2","name":"Bob","type":"Person"}`, get(t, s, "Person", "p2"))

	people, err := s.Search(testutil.MustValue(t, `{"type":"Person"}`), nil)
	require.NoError(t, err)
	assert.Len(t, people, 2, "the key survives")

	post(t, s, `{"type":"Person","id":"p1","name":"Alicia"}`, 0.9)
	assert.Equal(t, `{"id":"p1","name":"Alicia","type":"Person"}`, get(t, s, "Person", "p1"))
}

func TestStore_CacheTracksChangesEqIgnores(t *testing.T) {
	s := newStore(t)
	post(t, s, `{"type":"Person","id":"p1","name":"Alice"}`, 1)
	post(t, s, `{"type":"Person","id":"p1","context":"https://schema.org"}`, 1)

	want := `{"context":"https://schema.org","id":"p1","name":"Alice","type":"Person"}`
	assert.Equal(t, want, get(t, s, "Person", "p1"))
	assert.Equal(t, want, testutil.Canonical(t, s.Materialized(testutil.Ref("Person", "p1"))))

	found, err := s.Search(testutil.MustValue(t, `{"context":"https://schema.org"}`), nil)
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestStore_Replace(t *testing.T) {
	s := newStore(t)
	post(t, s, `{"type":"Person","id":"p1","name":["Alice","Alicia"]}`, 0.5)

	require.NoError(t, s.Replace(testutil.Ref("Person", "p1"), "name", ld.String("Alice"), ld.String("Al"), cred(0.9)))
	assert.Equal(t, `{"id":"p1","name":["Al","Alicia"],"type":"Person"}`, get(t, s, "Person", "p1"))

	require.NoError(t, s.Replace(testutil.Ref("Person", "p1"), "name", nil, ld.String("Ally"), cred(1)))
	assert.Equal(t, `{"id":"p1","name":"Ally","type":"Person"}`, get(t, s, "Person", "p1"))
}

func TestStore_DeleteUnknownKeyMaterializesReference(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Delete(testutil.Ref("Person", "ghost"), "name", cred(1)))

	assert.Equal(t, `{"id":"ghost","type":"Person"}`, get(t, s, "Person", "ghost"))
}

func TestStore_GetUnknown(t *testing.T) {
	s := newStore(t)
	r, err := s.Get(testutil.Ref("Person", "nobody"))
	require.NoError(t, err)
	assert.Nil(t, r)
	assert.Nil(t, s.Materialized(testutil.Ref("Person", "nobody")))
}

func TestStore_GetResolvesChains(t *testing.T) {
	s := newStore(t)
	post(t, s, `{"type":"Person","id":"a","knows":{"type":"Person","id":"b","knows":{"type":"Person","id":"c","name":"Cy","knows":{"type":"Person","id":"a"}}}}`, 1)

	assert.Equal(t,
		`{"id":"a","knows":{"id":"b","knows":{"id":"c","knows":{"id":"a","type":"Person"},"name":"Cy","type":"Person"},"type":"Person"},"type":"Person"}`,
		get(t, s, "Person", "a"))
}

func TestStore_InvalidInputs(t *testing.T) {
	s := newStore(t)

	err := s.Post(testutil.MustRecord(t, `{"name":"untyped"}`), cred(1))
	assert.True(t, ld.IsInvalidRecord(err))

	err = s.Post(testutil.MustRecord(t, `{"type":"Person","id":"p1"}`), cred(1.5))
	var me *observe.MetadataError
	assert.ErrorAs(t, err, &me)

	_, err = s.Get(testutil.MustRecord(t, `{"id":"p1"}`))
	assert.True(t, ld.IsInvalidRecord(err))

	err = s.Delete(testutil.MustRecord(t, `{"type":"Person"}`), "name", cred(1))
	assert.True(t, ld.IsInvalidRecord(err))

	_, err = s.Stats(testutil.MustRecord(t, `{"id":"p1"}`))
	assert.True(t, ld.IsInvalidRecord(err))

	assert.Equal(t, 0, s.Len())
}

func TestStore_StampsTimestamps(t *testing.T) {
	s := newStore(t)
	post(t, s, `{"type":"Person","id":"p1","name":"Alice"}`, 1)
	require.NoError(t, s.Post(testutil.MustRecord(t, `{"type":"Person","id":"p1","age":3}`), observe.Metadata{Credibility: 1, Timestamp: testutil.At(100)}))

	st, err := s.Stats(testutil.Ref("Person", "p1"))
	require.NoError(t, err)
	assert.Equal(t, testutil.At(0), st["name"].Values[0].MinTimestamp)
	assert.Equal(t, testutil.At(100), st["age"].Values[0].MinTimestamp)
}

func TestStore_Apply(t *testing.T) {
	s := newStore(t)
	meta := observe.Metadata{Credibility: 1, Timestamp: testutil.Epoch}
	obs, err := observe.ToObservations(testutil.MustRecord(t, `{"type":"Person","id":"p1","name":"Alice"}`), meta, "ext-1")
	require.NoError(t, err)

	require.NoError(t, s.Apply(obs...))
	assert.Equal(t, `{"id":"p1","name":"Alice","type":"Person"}`, get(t, s, "Person", "p1"))

	// Replaying the same observations is a no-op.
	require.NoError(t, s.Apply(obs...))
	st, err := s.Stats(testutil.Ref("Person", "p1"))
	require.NoError(t, err)
	assert.Equal(t, 1, st["name"].Values[0].Count)

	noID := obs[0]
	noID.ID = ""
	assert.Error(t, s.Apply(noID))

	noTarget := obs[0]
	noTarget.Target = ld.Key{}
	assert.True(t, ld.IsInvalidRecord(s.Apply(noTarget)))

	badCred := obs[0]
	badCred.Credibility = -1
	var me *observe.MetadataError
	assert.ErrorAs(t, s.Apply(badCred), &me)
}

func TestStore_RebuildFromSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.db")

	l, err := oblog.OpenSQLite(path)
	require.NoError(t, err)
	s, err := New(WithLog(l), WithGenerator(ident.NewSequenceGenerator("g")), WithClock(testutil.NewDeterministicClock()))
	require.NoError(t, err)
	post(t, s, `{"type":"Organization","id":"o1","name":"Acme","address":{"type":"PostalAddress","streetAddress":"1 Main St"}}`, 0.9)
	post(t, s, `{"type":"Organization","id":"o1","name":"ACME Corp"}`, 0.5)
	require.NoError(t, s.Delete(testutil.Ref("Organization", "o1"), "name", observe.Metadata{Credibility: 0.7, Timestamp: testutil.At(50)}))
	want := get(t, s, "Organization", "o1")
	require.NoError(t, s.Close())

	reopened, err := oblog.OpenSQLite(path)
	require.NoError(t, err)
	var logs bytes.Buffer
	rebuilt, err := New(WithLog(reopened), WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))
	require.NoError(t, err)
	defer rebuilt.Close()

	assert.Equal(t, 2, rebuilt.Len())
	assert.Equal(t, want, get(t, rebuilt, "Organization", "o1"))
	assert.Equal(t, `{"address":{"id":"_:g-1","streetAddress":"1 Main St","type":"PostalAddress"},"id":"o1","name":"Acme","type":"Organization"}`, want)
	assert.Contains(t, logs.String(), "store rebuilt from log")
}

func TestStore_PerSourceCombiner(t *testing.T) {
	s := newStore(t, WithCombiner(stats.PerSource{}))
	for _, c := range []float64{0.5, 0.5} {
		require.NoError(t, s.Post(testutil.MustRecord(t, `{"type":"Person","id":"p1","name":"Alice"}`), observe.Metadata{Credibility: c, Source: "crm"}))
	}

	st, err := s.Stats(testutil.Ref("Person", "p1"))
	require.NoError(t, err)
	assert.Equal(t, 0.5, st["name"].Values[0].ConfidenceLevel)
	assert.Equal(t, 2, st["name"].Values[0].Count)
}

func TestStore_StatsUnknownKeyIsEmpty(t *testing.T) {
	s := newStore(t)
	st, err := s.Stats(testutil.Ref("Person", "nobody"))
	require.NoError(t, err)
	assert.Empty(t, st)
}

func keyIDs(records []*ld.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Key().ID
	}
	return out
}

var errListener = errors.New("listener failed")
