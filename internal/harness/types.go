package harness

import "github.com/roach88/ldgraph/internal/ld"

// TraceEvent is one observable outcome of a scenario: a dispatched store
// event or the answer to a read.
type TraceEvent struct {
	Step int      // Index of the step that produced it
	Op   string   // OpEvent, OpGet, OpSearch or OpStats
	Kind string   // Event kind, for OpEvent only
	Key  string   // "Type/ID"; empty for search
	Data ld.Value // Record, list of records, or stats
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success: every expectation matched.
	Pass bool

	// Trace contains events and read results in order.
	Trace []TraceEvent

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// addTrace appends a trace event.
func (r *Result) addTrace(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}

// toRecord renders a trace event with stable field names.
func (ev TraceEvent) toRecord() *ld.Record {
	rec := ld.NewRecord(
		ld.P("step", ld.Number(ev.Step)),
		ld.P("op", ld.String(ev.Op)),
	)
	if ev.Kind != "" {
		rec.Set("kind", ld.String(ev.Kind))
	}
	if ev.Key != "" {
		rec.Set("key", ld.String(ev.Key))
	}
	if ev.Data != nil {
		rec.Set("data", ev.Data)
	}
	return rec
}
