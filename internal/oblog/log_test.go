package oblog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ldgraph/internal/ld"
	"github.com/roach88/ldgraph/internal/observe"
	"github.com/roach88/ldgraph/internal/testutil"
)

func logs(t *testing.T) map[string]func() Log {
	t.Helper()
	return map[string]func() Log{
		"mem": func() Log { return NewMemLog() },
		"sqlite": func() Log {
			l, err := OpenSQLite(MemoryPath)
			require.NoError(t, err)
			t.Cleanup(func() { l.Close() })
			return l
		},
	}
}

func observations(t *testing.T, record string, tick int, group string) []observe.Observation {
	t.Helper()
	meta := observe.Metadata{Credibility: 0.8, Timestamp: testutil.At(tick), Source: "test"}
	obs, err := observe.ToObservations(testutil.MustRecord(t, record), meta, group)
	require.NoError(t, err)
	return obs
}

func assertSameObservations(t *testing.T, want, got []observe.Observation) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].ID, got[i].ID)
		assert.Equal(t, want[i].Kind, got[i].Kind)
		assert.Equal(t, want[i].Target, got[i].Target)
		assert.Equal(t, want[i].PropertyID, got[i].PropertyID)
		assert.True(t, ld.Eq(want[i].Value, got[i].Value), "value %d", i)
		assert.True(t, ld.Eq(want[i].PreviousValue, got[i].PreviousValue), "previous value %d", i)
		assert.Equal(t, want[i].Credibility, got[i].Credibility)
		assert.True(t, want[i].Timestamp.Equal(got[i].Timestamp))
		assert.Equal(t, want[i].Source, got[i].Source)
		assert.Equal(t, want[i].Group, got[i].Group)
		assert.Equal(t, want[i].Index, got[i].Index)
	}
}

func TestLog_AppendRead(t *testing.T) {
	for name, open := range logs(t) {
		t.Run(name, func(t *testing.T) {
			l := open()
			alice := observations(t, `{"type":"Person","id":"p1","name":"Alice","knows":{"type":"Person","id":"p2"}}`, 0, "g-1")
			org := observations(t, `{"type":"Organization","id":"o1","name":"Acme"}`, 1, "g-2")

			require.NoError(t, l.Append(alice...))
			require.NoError(t, l.Append(org...))

			got, err := l.Read(ld.Key{Type: "Person", ID: "p1"})
			require.NoError(t, err)
			assertSameObservations(t, alice, got)

			got, err = l.Read(ld.Key{Type: "Organization", ID: "o1"})
			require.NoError(t, err)
			assertSameObservations(t, org, got)
		})
	}
}

func TestLog_UnknownKeyIsEmpty(t *testing.T) {
	for name, open := range logs(t) {
		t.Run(name, func(t *testing.T) {
			got, err := open().Read(ld.Key{Type: "Person", ID: "nobody"})
			require.NoError(t, err)
			assert.NotNil(t, got)
			assert.Empty(t, got)
		})
	}
}

func TestLog_DuplicateIDsIgnored(t *testing.T) {
	for name, open := range logs(t) {
		t.Run(name, func(t *testing.T) {
			l := open()
			obs := observations(t, `{"type":"Person","id":"p1","name":"Alice"}`, 0, "g-1")

			require.NoError(t, l.Append(obs...))
			require.NoError(t, l.Append(obs...))

			got, err := l.Read(ld.Key{Type: "Person", ID: "p1"})
			require.NoError(t, err)
			assert.Len(t, got, len(obs))
		})
	}
}

func TestLog_KeysInFirstAppearanceOrder(t *testing.T) {
	for name, open := range logs(t) {
		t.Run(name, func(t *testing.T) {
			l := open()
			require.NoError(t, l.Append(observations(t, `{"type":"Person","id":"p2","name":"Bo"}`, 0, "g-1")...))
			require.NoError(t, l.Append(observations(t, `{"type":"Organization","id":"o1","name":"Acme"}`, 1, "g-2")...))
			require.NoError(t, l.Append(observations(t, `{"type":"Person","id":"p2","age":3}`, 2, "g-3")...))
			require.NoError(t, l.Append(observations(t, `{"type":"Person","id":"p1","name":"Al"}`, 3, "g-4")...))

			keys, err := l.Keys()
			require.NoError(t, err)
			assert.Equal(t, []ld.Key{
				{Type: "Person", ID: "p2"},
				{Type: "Organization", ID: "o1"},
				{Type: "Person", ID: "p1"},
			}, keys)
		})
	}
}

func TestLog_DeleteAndReplaceRoundTrip(t *testing.T) {
	for name, open := range logs(t) {
		t.Run(name, func(t *testing.T) {
			l := open()
			key := ld.Key{Type: "Person", ID: "p1"}
			meta := observe.Metadata{Credibility: 1, Timestamp: testutil.At(5)}

			del, err := observe.NewDelete(key, "name", meta, "g-1")
			require.NoError(t, err)
			rep, err := observe.NewReplace(key, "age", ld.Number(3), ld.Number(4), meta, "g-2")
			require.NoError(t, err)
			wild, err := observe.NewReplace(key, "age", nil, ld.Number(5), meta, "g-3")
			require.NoError(t, err)

			require.NoError(t, l.Append(del, rep, wild))

			got, err := l.Read(key)
			require.NoError(t, err)
			assertSameObservations(t, []observe.Observation{del, rep, wild}, got)
			assert.Nil(t, got[0].Value)
			assert.Nil(t, got[2].PreviousValue)
		})
	}
}

func TestSQLite_DateValuesRoundTrip(t *testing.T) {
	l, err := OpenSQLite(MemoryPath)
	require.NoError(t, err)
	defer l.Close()

	when := time.Date(2024, 3, 4, 5, 6, 7, 890, time.UTC)
	r := ld.NewRecord(
		ld.P(ld.PropType, ld.String("Event")),
		ld.P(ld.PropID, ld.String("e1")),
		ld.P("startDate", ld.NewDate(when)),
		ld.P("nested", ld.NewRecord(ld.P("at", ld.List{ld.NewDate(when), ld.String("2024-03-04")}))),
	)
	obs, err := observe.ToObservations(r, observe.Metadata{Credibility: 1, Timestamp: testutil.Epoch}, "g-1")
	require.NoError(t, err)
	require.NoError(t, l.Append(obs...))

	got, err := l.Read(ld.Key{Type: "Event", ID: "e1"})
	require.NoError(t, err)
	require.Len(t, got, 3)

	date, ok := got[1].Value.(ld.Date)
	require.True(t, ok, "date decodes as ld.Date, got %T", got[1].Value)
	assert.True(t, when.Equal(date.Time))

	nested := got[2].Value.(*ld.Record).Get("at").(ld.List)
	_, isDate := nested[0].(ld.Date)
	assert.True(t, isDate)
	assert.Equal(t, ld.String("2024-03-04"), nested[1], "plain strings stay strings")
}

func TestSQLite_PersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "obs.db")

	l, err := OpenSQLite(path)
	require.NoError(t, err)
	obs := observations(t, `{"type":"Person","id":"p1","name":"Alice"}`, 0, "g-1")
	require.NoError(t, l.Append(obs...))
	require.NoError(t, l.Close())

	reopened, err := OpenSQLite(path)
	require.NoError(t, err)
	defer reopened.Close()

	n, err := reopened.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, len(obs), n)

	version, err := reopened.schemaVersion()
	require.NoError(t, err)
	assert.Equal(t, currentSchemaVersion, version)

	got, err := reopened.Read(ld.Key{Type: "Person", ID: "p1"})
	require.NoError(t, err)
	assertSameObservations(t, obs, got)
}

func TestSQLite_AppendRollsBackOnError(t *testing.T) {
	l, err := OpenSQLite(MemoryPath)
	require.NoError(t, err)
	defer l.Close()

	good := observations(t, `{"type":"Person","id":"p1","name":"Alice"}`, 0, "g-1")
	bad := good[1]
	bad.ID = "bad"
	bad.Credibility = 2 // rejected by the credibility CHECK constraint

	err = l.Append(good[0], bad)
	require.Error(t, err)

	n, err := l.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}
