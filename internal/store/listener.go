package store

import (
	"fmt"
	"slices"

	"github.com/hashicorp/go-multierror"

	"github.com/roach88/ldgraph/internal/ld"
)

// EventKind distinguishes first materialization from later changes.
type EventKind int

const (
	CreateAction EventKind = iota + 1
	UpdateAction
)

// String returns the event name.
func (k EventKind) String() string {
	switch k {
	case CreateAction:
		return "CreateAction"
	case UpdateAction:
		return "UpdateAction"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event carries a changed materialized record. Each listener receives
// its own copy of Record.
type Event struct {
	Kind   EventKind
	Key    ld.Key
	Record *ld.Record
}

// Listener receives events for one key. Returning an error (or panicking)
// deregisters it.
type Listener func(Event) error

// Subscription is the handle returned by AddListener.
type Subscription struct {
	store *Store
	key   ld.Key
	id    uint64
	fn    Listener
}

// Key returns the key the subscription listens on.
func (sub *Subscription) Key() ld.Key {
	return sub.key
}

// Close deregisters the listener. Closing twice is a no-op.
func (sub *Subscription) Close() {
	sub.store.RemoveListener(sub)
}

// ListenerError reports a listener that failed and was deregistered.
type ListenerError struct {
	Key ld.Key
	ID  uint64
	Err error
}

// Error implements the error interface.
func (e *ListenerError) Error() string {
	return fmt.Sprintf("listener %d on %s: %v", e.ID, e.Key, e.Err)
}

// Unwrap returns the listener's error.
func (e *ListenerError) Unwrap() error {
	return e.Err
}

// AddListener registers fn for changes to ref.
func (s *Store) AddListener(ref *ld.Record, fn Listener) (*Subscription, error) {
	key, err := targetOf("listen", ref)
	if err != nil {
		return nil, err
	}
	s.nextSub++
	sub := &Subscription{store: s, key: key, id: s.nextSub, fn: fn}
	s.listeners[key] = append(s.listeners[key], sub)
	return sub, nil
}

// RemoveListener deregisters sub. Unknown subscriptions are ignored.
func (s *Store) RemoveListener(sub *Subscription) {
	if sub == nil {
		return
	}
	subs := s.listeners[sub.key]
	idx := slices.Index(subs, sub)
	if idx < 0 {
		return
	}
	subs = slices.Delete(slices.Clone(subs), idx, idx+1)
	if len(subs) == 0 {
		delete(s.listeners, sub.key)
		return
	}
	s.listeners[sub.key] = subs
}

// Listeners returns the number of listeners registered for ref.
func (s *Store) Listeners(ref *ld.Record) int {
	if !ref.Valid() {
		return 0
	}
	return len(s.listeners[ref.Key()])
}

// dispatch delivers ev to every listener registered when it starts. Failed
// listeners are deregistered and their errors aggregated; the rest still
// run.
func (s *Store) dispatch(ev Event) error {
	var result *multierror.Error
	for _, sub := range slices.Clone(s.listeners[ev.Key]) {
		if !slices.Contains(s.listeners[ev.Key], sub) {
			continue // removed by an earlier listener
		}
		if err := call(sub.fn, Event{Kind: ev.Kind, Key: ev.Key, Record: ev.Record.Clone()}); err != nil {
			s.RemoveListener(sub)
			s.logger.Warn("listener deregistered", "key", ev.Key.String(), "listener", sub.id, "error", err)
			result = multierror.Append(result, &ListenerError{Key: ev.Key, ID: sub.id, Err: err})
		}
	}
	return result.ErrorOrNil()
}

func call(fn Listener, ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ev)
}
