package ragmodel

import "time"

// Event is one entry of a Trace: a stage start or end marker with
// counts and an optional error. Trace is produced per request and never
// mutated after Finalize (spec.md §3, §4.M).
type Event struct {
	Stage         string
	TimestampNS   int64 // stage start, monotonic ns relative to request start (0 for skipped stages)
	DurationNS    int64
	Counts        map[string]int
	Skipped       bool
	Degraded      bool
	Error         string
}

// Trace is an append-only sequence of Events for a single request.
type Trace struct {
	RequestID string
	StartedAt time.Time
	events    []Event
	final     bool
}

// NewTrace creates a fresh, writable Trace.
func NewTrace(requestID string, startedAt time.Time) *Trace {
	return &Trace{RequestID: requestID, StartedAt: startedAt}
}

// Append adds an Event. It panics if the trace was already finalized —
// finalization is a hard boundary, not a soft one, per spec.md §3.
func (t *Trace) Append(e Event) {
	if t.final {
		panic("ragmodel: append to a finalized Trace")
	}
	t.events = append(t.events, e)
}

// Events returns the events appended so far, in append order (which is
// also strictly monotonic wall-clock order per spec.md §5).
func (t *Trace) Events() []Event {
	return t.events
}

// Finalize freezes the trace against further Append calls.
func (t *Trace) Finalize() {
	t.final = true
}

// Finalized reports whether Finalize has been called.
func (t *Trace) Finalized() bool {
	return t.final
}

// AsArrays serializes the trace as a map of arrays, one array per field,
// matching the wire shape described in spec.md §4.M.
func (t *Trace) AsArrays() map[string][]any {
	out := map[string][]any{
		"stage":       make([]any, len(t.events)),
		"timestamp":   make([]any, len(t.events)),
		"duration_ns": make([]any, len(t.events)),
		"counts":      make([]any, len(t.events)),
		"skipped":     make([]any, len(t.events)),
		"degraded":    make([]any, len(t.events)),
		"error":       make([]any, len(t.events)),
	}
	for i, e := range t.events {
		out["stage"][i] = e.Stage
		out["timestamp"][i] = e.TimestampNS
		out["duration_ns"][i] = e.DurationNS
		out["counts"][i] = e.Counts
		out["skipped"][i] = e.Skipped
		out["degraded"][i] = e.Degraded
		out["error"][i] = e.Error
	}
	return out
}

// EventsForCollection returns whether any event references the given
// source collection in its counts map under the "collection:<name>" key
// convention used by the pipeline — backs spec.md §8 invariant 6.
func (t *Trace) EventsForCollection(collection string) bool {
	key := "collection:" + collection
	for _, e := range t.events {
		if _, ok := e.Counts[key]; ok {
			return true
		}
	}
	return false
}
