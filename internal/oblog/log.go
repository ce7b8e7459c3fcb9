package oblog

import (
	"github.com/roach88/ldgraph/internal/ld"
	"github.com/roach88/ldgraph/internal/observe"
)

// Log is an append-only observation log indexed by target.
type Log interface {
	// Append records observations. Duplicate ids are ignored.
	Append(obs ...observe.Observation) error
	// Read returns every observation targeting key in append order.
	// Returns an empty slice (not nil) for an unknown key.
	Read(key ld.Key) ([]observe.Observation, error)
	// Keys returns every target in order of first appearance.
	Keys() ([]ld.Key, error)
	// Close releases resources held by the log.
	Close() error
}

// MemLog is an in-memory Log.
type MemLog struct {
	byKey map[ld.Key][]observe.Observation
	seen  map[string]struct{}
	keys  []ld.Key
}

// NewMemLog returns an empty in-memory log.
func NewMemLog() *MemLog {
	return &MemLog{
		byKey: make(map[ld.Key][]observe.Observation),
		seen:  make(map[string]struct{}),
	}
}

// Append implements Log.
func (l *MemLog) Append(obs ...observe.Observation) error {
	for _, o := range obs {
		if _, dup := l.seen[o.ID]; dup {
			continue
		}
		l.seen[o.ID] = struct{}{}
		if _, known := l.byKey[o.Target]; !known {
			l.keys = append(l.keys, o.Target)
		}
		l.byKey[o.Target] = append(l.byKey[o.Target], o)
	}
	return nil
}

// Read implements Log.
func (l *MemLog) Read(key ld.Key) ([]observe.Observation, error) {
	out := make([]observe.Observation, len(l.byKey[key]))
	copy(out, l.byKey[key])
	return out, nil
}

// Keys implements Log.
func (l *MemLog) Keys() ([]ld.Key, error) {
	out := make([]ld.Key, len(l.keys))
	copy(out, l.keys)
	return out, nil
}

// Close implements Log.
func (l *MemLog) Close() error { return nil }
