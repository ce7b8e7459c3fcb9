package store

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/RoaringBitmap/roaring"

	"github.com/roach88/ldgraph/internal/algebra"
	"github.com/roach88/ldgraph/internal/graph"
	"github.com/roach88/ldgraph/internal/ident"
	"github.com/roach88/ldgraph/internal/ld"
	"github.com/roach88/ldgraph/internal/oblog"
	"github.com/roach88/ldgraph/internal/observe"
	"github.com/roach88/ldgraph/internal/stats"
	"github.com/roach88/ldgraph/internal/vocab"
)

// Store is a materialized view over an observation log.
type Store struct {
	log      oblog.Log
	vocab    *vocab.Vocabulary
	norm     *graph.Normalizer
	gen      ident.Generator
	clock    ident.Clock
	logger   *slog.Logger
	combiner stats.Combiner

	records map[ld.Key]*ld.Record
	slots   map[ld.Key]uint32 // Position in keys; bitmap member
	keys    []ld.Key          // Materialization order
	types   map[string]*roaring.Bitmap

	listeners map[ld.Key][]*Subscription
	nextSub   uint64
}

// Option configures a Store.
type Option func(*Store)

// WithLog sets the observation log. Default: an empty MemLog.
func WithLog(l oblog.Log) Option {
	return func(s *Store) {
		s.log = l
	}
}

// WithVocabulary sets the vocabulary used for flattening and cleaning.
// Default: vocab.Default().
func WithVocabulary(v *vocab.Vocabulary) Option {
	return func(s *Store) {
		s.vocab = v
	}
}

// WithGenerator sets the generator for blank-node ids and observation
// groups. Default: UUIDv7Generator.
//
// Use NewSequenceGenerator("g") in tests for reproducible ids.
func WithGenerator(g ident.Generator) Option {
	return func(s *Store) {
		s.gen = g
	}
}

// WithClock sets the clock that stamps observations posted without a
// timestamp. Default: SystemClock.
func WithClock(c ident.Clock) Option {
	return func(s *Store) {
		s.clock = c
	}
}

// WithLogger sets the structured logger. Default: discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// WithCombiner sets the confidence strategy used by Stats.
// Default: stats.Independent.
func WithCombiner(c stats.Combiner) Option {
	return func(s *Store) {
		s.combiner = c
	}
}

// New creates a Store and materializes everything already in its log.
// No events are dispatched for records rebuilt from the log.
func New(opts ...Option) (*Store, error) {
	s := &Store{
		gen:       ident.UUIDv7Generator{},
		clock:     ident.SystemClock{},
		combiner:  stats.Independent{},
		records:   make(map[ld.Key]*ld.Record),
		slots:     make(map[ld.Key]uint32),
		types:     make(map[string]*roaring.Bitmap),
		listeners: make(map[ld.Key][]*Subscription),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = oblog.NewMemLog()
	}
	if s.vocab == nil {
		s.vocab = vocab.Default()
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s.norm = graph.New(algebra.New(s.vocab), s.gen)

	keys, err := s.log.Keys()
	if err != nil {
		return nil, fmt.Errorf("rebuild store: %w", err)
	}
	for _, key := range keys {
		if _, _, err := s.rematerialize(key); err != nil {
			return nil, fmt.Errorf("rebuild store: %w", err)
		}
	}
	if len(keys) > 0 {
		s.logger.Info("store rebuilt from log", "records", len(keys))
	}
	return s, nil
}

// Close closes the underlying log.
func (s *Store) Close() error {
	return s.log.Close()
}

// Vocabulary returns the vocabulary in use.
func (s *Store) Vocabulary() *vocab.Vocabulary {
	return s.vocab
}

// Normalizer returns the normalizer the store flattens with.
func (s *Store) Normalizer() *graph.Normalizer {
	return s.norm
}

// Len returns the number of materialized records.
func (s *Store) Len() int {
	return len(s.keys)
}

// rematerialize reduces the log for key and swaps in the result.
// Returns the new record and whether it differs from the previous one.
// The cached record is always replaced, since ld.Eq ignores context and
// value order.
func (s *Store) rematerialize(key ld.Key) (*ld.Record, bool, error) {
	obs, err := s.log.Read(key)
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", key, err)
	}
	next := observe.Reduce(key, obs)
	prev := s.records[key]
	s.logger.Debug("reduced", "key", key.String(), "observations", len(obs))

	if next == nil {
		return nil, false, nil
	}
	changed := prev == nil || !ld.Eq(prev, next)

	slot, known := s.slots[key]
	if !known {
		slot = uint32(len(s.keys))
		s.slots[key] = slot
		s.keys = append(s.keys, key)
	}
	if prev != nil {
		for _, t := range prev.Types() {
			if bm := s.types[t]; bm != nil {
				bm.Remove(slot)
			}
		}
	}
	for _, t := range next.Types() {
		bm := s.types[t]
		if bm == nil {
			bm = roaring.New()
			s.types[t] = bm
		}
		bm.Add(slot)
	}
	s.records[key] = next
	return next, changed, nil
}
