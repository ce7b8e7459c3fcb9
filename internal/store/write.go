package store

import (
	"fmt"

	"github.com/roach88/ldgraph/internal/ld"
	"github.com/roach88/ldgraph/internal/observe"
)

// Post flattens r and records every node as observations under meta.
// A zero meta.Timestamp is stamped from the store clock.
//
// Every node whose materialized record changes dispatches CreateAction
// (first materialization) or UpdateAction to its listeners.
func (s *Store) Post(r *ld.Record, meta observe.Metadata) error {
	nodes, err := s.norm.Flatten(r)
	if err != nil {
		return fmt.Errorf("post: %w", err)
	}
	meta = s.stamp(meta)
	group := s.gen.Generate()

	var obs []observe.Observation
	for _, node := range nodes {
		nodeObs, err := observe.ToObservations(node, meta, group)
		if err != nil {
			return fmt.Errorf("post: %w", err)
		}
		obs = append(obs, nodeObs...)
	}
	s.logger.Info("posting", "root", nodes[0].Key().String(), "nodes", len(nodes), "observations", len(obs))
	return s.apply(obs)
}

// Delete retracts every observation of prop on ref that meta outranks.
// prop observe.AllProperties retracts every property but type.
func (s *Store) Delete(ref *ld.Record, prop string, meta observe.Metadata) error {
	key, err := targetOf("delete", ref)
	if err != nil {
		return err
	}
	o, err := observe.NewDelete(key, prop, s.stamp(meta), s.gen.Generate())
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	return s.apply([]observe.Observation{o})
}

// Replace asserts value in place of previous (nil = every value) for prop
// on ref. A nil value only removes.
func (s *Store) Replace(ref *ld.Record, prop string, previous, value ld.Value, meta observe.Metadata) error {
	key, err := targetOf("replace", ref)
	if err != nil {
		return err
	}
	o, err := observe.NewReplace(key, prop, previous, value, s.stamp(meta), s.gen.Generate())
	if err != nil {
		return fmt.Errorf("replace: %w", err)
	}
	return s.apply([]observe.Observation{o})
}

// Apply records pre-built observations, for replaying another log.
func (s *Store) Apply(obs ...observe.Observation) error {
	for _, o := range obs {
		if o.Target.IsZero() || o.Target.Type == "" {
			return ld.NewInvalidRecordError("apply", fmt.Sprintf("observation %s has no target", o.ID))
		}
		meta := observe.Metadata{Credibility: o.Credibility, Timestamp: o.Timestamp, Source: o.Source}
		if err := meta.Validate(); err != nil {
			return fmt.Errorf("apply: %w", err)
		}
		if o.ID == "" {
			return fmt.Errorf("apply: observation on %s has no id", o.Target)
		}
	}
	return s.apply(obs)
}

func (s *Store) apply(obs []observe.Observation) error {
	if len(obs) == 0 {
		return nil
	}
	if err := s.log.Append(obs...); err != nil {
		return fmt.Errorf("append: %w", err)
	}

	var touched []ld.Key
	seen := make(map[ld.Key]bool)
	for _, o := range obs {
		if !seen[o.Target] {
			seen[o.Target] = true
			touched = append(touched, o.Target)
		}
	}

	for _, key := range touched {
		existed := s.records[key] != nil
		rec, changed, err := s.rematerialize(key)
		if err != nil {
			return err
		}
		if !changed {
			continue
		}
		kind := UpdateAction
		if !existed {
			kind = CreateAction
		}
		if err := s.dispatch(Event{Kind: kind, Key: key, Record: rec}); err != nil {
			s.logger.Warn("listener failures", "key", key.String(), "error", err)
		}
	}
	return nil
}

func (s *Store) stamp(meta observe.Metadata) observe.Metadata {
	if meta.Timestamp.IsZero() {
		meta.Timestamp = s.clock.Now()
	}
	return meta
}

func targetOf(op string, ref *ld.Record) (ld.Key, error) {
	if !ref.Valid() {
		return ld.Key{}, ld.NewInvalidRecordError(op, "reference has no type")
	}
	key := ref.Key()
	if key.IsZero() {
		return ld.Key{}, ld.NewInvalidRecordError(op, "reference has no id")
	}
	return key, nil
}
