package harness

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/roach88/ldgraph/internal/ident"
	"github.com/roach88/ldgraph/internal/ld"
	"github.com/roach88/ldgraph/internal/oblog"
	"github.com/roach88/ldgraph/internal/observe"
	"github.com/roach88/ldgraph/internal/stats"
	"github.com/roach88/ldgraph/internal/store"
	"github.com/roach88/ldgraph/internal/testutil"
	"github.com/roach88/ldgraph/internal/vocab"
)

// Harness runs one scenario against one store.
type Harness struct {
	store  *store.Store
	result *Result
	step   int // Index of the running step, for event attribution
}

// Option configures Run.
type Option func(*config)

type config struct {
	logger *slog.Logger
}

// WithLogger routes store logs to l. Default: discarded.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// Deterministic helpers ensure reproducible results.
//
// Failed expectations are reported in the result; the returned error is
// reserved for scenarios that cannot run at all.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	cfg := &config{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(cfg)
	}

	v := vocab.Default()
	if scenario.Vocab != "" {
		loaded, err := vocab.Load(scenario.Vocab)
		if err != nil {
			return nil, fmt.Errorf("failed to load vocabulary: %w", err)
		}
		v = loaded
	}

	log, err := oblog.OpenSQLite(oblog.MemoryPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory log: %w", err)
	}
	st, err := store.New(
		store.WithLog(log),
		store.WithVocabulary(v),
		store.WithGenerator(ident.NewSequenceGenerator("g")),
		store.WithClock(testutil.NewDeterministicClock()),
		store.WithLogger(cfg.logger),
	)
	if err != nil {
		log.Close()
		return nil, fmt.Errorf("failed to create store: %w", err)
	}
	defer st.Close()

	h := &Harness{store: st, result: NewResult()}
	for i := range scenario.Steps {
		h.step = i
		if err := h.execute(&scenario.Steps[i]); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
	}
	return h.result, nil
}

// execute runs one step. Operation failures are checked against
// expect_error; only malformed steps return an error.
func (h *Harness) execute(step *Step) error {
	op := step.Op()
	target, err := nodeValue(step.Target())
	if err != nil {
		return err
	}

	opErr := h.dispatch(op, step, target)
	switch {
	case opErr != nil && !step.ExpectError:
		h.fail(op, "success", opErr.Error())
	case opErr == nil && step.ExpectError:
		h.fail(op, "an error", "success")
	}
	return nil
}

func (h *Harness) dispatch(op string, step *Step, target ld.Value) error {
	switch op {
	case OpPost:
		rec, _ := target.(*ld.Record)
		return h.store.Post(rec, h.meta(step))
	case OpDelete:
		rec, _ := target.(*ld.Record)
		return h.store.Delete(rec, step.Property, h.meta(step))
	case OpReplace:
		rec, _ := target.(*ld.Record)
		old, err := nodeValue(&step.Old)
		if err != nil {
			return err
		}
		next, err := nodeValue(&step.New)
		if err != nil {
			return err
		}
		return h.store.Replace(rec, step.Property, old, next, h.meta(step))
	case OpListen:
		rec, _ := target.(*ld.Record)
		return h.listen(rec, step.Fail)
	case OpGet:
		rec, _ := target.(*ld.Record)
		return h.get(rec, step)
	case OpSearch:
		return h.search(target, step)
	case OpStats:
		rec, _ := target.(*ld.Record)
		return h.stats(rec, step)
	default:
		return fmt.Errorf("unknown operation %q", op)
	}
}

func (h *Harness) meta(step *Step) observe.Metadata {
	if step.Meta == nil {
		return observe.Metadata{Credibility: 1}
	}
	return *step.Meta
}

func (h *Harness) listen(ref *ld.Record, fail bool) error {
	_, err := h.store.AddListener(ref, func(ev store.Event) error {
		h.result.addTrace(TraceEvent{
			Step: h.step,
			Op:   OpEvent,
			Kind: ev.Kind.String(),
			Key:  ev.Key.String(),
			Data: ev.Record,
		})
		if fail {
			return fmt.Errorf("listener configured to fail")
		}
		return nil
	})
	return err
}

func (h *Harness) get(ref *ld.Record, step *Step) error {
	rec, err := h.store.Get(ref)
	if err != nil {
		return err
	}
	ev := TraceEvent{Step: h.step, Op: OpGet, Key: ref.Key().String()}
	if rec != nil {
		ev.Data = rec
	}
	h.result.addTrace(ev)

	expect, err := nodeValue(&step.Expect)
	if err != nil {
		return err
	}
	if expect != nil && !subsetMatch(expect, ev.Data) {
		h.fail(OpGet, render(expect), render(ev.Data))
	}
	return nil
}

func (h *Harness) search(f ld.Value, step *Step) error {
	negative, err := nodeValue(&step.Negative)
	if err != nil {
		return err
	}
	results, err := h.store.Search(f, negative)
	if err != nil {
		return err
	}
	list := make(ld.List, len(results))
	for i, r := range results {
		list[i] = r
	}
	h.result.addTrace(TraceEvent{Step: h.step, Op: OpSearch, Data: list})

	if step.ExpectCount != nil && *step.ExpectCount != len(results) {
		h.fail(OpSearch, fmt.Sprintf("%d results", *step.ExpectCount), fmt.Sprintf("%d results", len(results)))
	}
	expect, err := nodeValue(&step.Expect)
	if err != nil {
		return err
	}
	for _, want := range ld.Values(expect) {
		if !slices.ContainsFunc(list, func(got ld.Value) bool { return subsetMatch(want, got) }) {
			h.fail(OpSearch, "a result matching "+render(want), render(list))
		}
	}
	return nil
}

func (h *Harness) stats(ref *ld.Record, step *Step) error {
	byProp, err := h.store.Stats(ref)
	if err != nil {
		return err
	}
	h.result.addTrace(TraceEvent{
		Step: h.step,
		Op:   OpStats,
		Key:  ref.Key().String(),
		Data: statsRecord(byProp, step.Property),
	})

	if len(step.ExpectConfidence) == 0 {
		return nil
	}
	ps, ok := byProp[step.Property]
	if !ok {
		h.fail(OpStats, "statistics for "+step.Property, "none")
		return nil
	}
	for value, want := range step.ExpectConfidence {
		got, found := confidenceOf(ps, value)
		if !found {
			h.fail(OpStats, fmt.Sprintf("%s=%q present", step.Property, value), "absent")
			continue
		}
		if got != stats.Round3(want) {
			h.fail(OpStats, fmt.Sprintf("confidence %v for %q", want, value), fmt.Sprintf("%v", got))
		}
	}
	return nil
}

func confidenceOf(ps stats.PropertyStats, value string) (float64, bool) {
	for _, vs := range ps.Values {
		if s, ok := ld.ScalarString(vs.Value); ok && s == value {
			return vs.ConfidenceLevel, true
		}
	}
	return 0, false
}

// statsRecord renders statistics, for one property when prop is set.
func statsRecord(byProp map[string]stats.PropertyStats, prop string) *ld.Record {
	props := make([]string, 0, len(byProp))
	for p := range byProp {
		if prop == "" || p == prop {
			props = append(props, p)
		}
	}
	slices.Sort(props)

	out := ld.NewRecord()
	for _, p := range props {
		var vals ld.List
		for _, vs := range byProp[p].Values {
			vals = append(vals, ld.NewRecord(
				ld.P("value", vs.Value),
				ld.P("confidence_level", ld.Number(vs.ConfidenceLevel)),
				ld.P("nb_sources", ld.Number(vs.NbSources)),
				ld.P("count", ld.Number(vs.Count)),
			))
		}
		out.Set(p, vals)
	}
	return out
}
