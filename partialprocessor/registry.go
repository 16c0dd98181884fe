// Unless explicitly stated otherwise all files in this repository are
// licensed under the Apache License Version 2.0.
// Copyright 2026 G-Research.

package partialprocessor

import (
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// registry is the ActiveRegistry from spec §4.3: a mapping from span id
// to span reference, holding exactly the spans observed via OnStart that
// have not yet been observed via OnEnd.
//
// registry is not itself safe for concurrent use. Per spec §5, the
// "at most one queue per span" invariant is easiest to preserve under a
// single mutex shared with the two due-queues, so all locking is done by
// the caller (schedulerState, see scheduler.go) rather than here.
type registry struct {
	spans map[trace.SpanID]sdktrace.ReadOnlySpan
}

func newRegistry() *registry {
	return &registry{spans: make(map[trace.SpanID]sdktrace.ReadOnlySpan)}
}

func (r *registry) insert(id trace.SpanID, s sdktrace.ReadOnlySpan) {
	r.spans[id] = s
}

// remove deletes id from the registry and reports whether it was present.
func (r *registry) remove(id trace.SpanID) bool {
	_, ok := r.spans[id]
	delete(r.spans, id)
	return ok
}

func (r *registry) lookup(id trace.SpanID) (sdktrace.ReadOnlySpan, bool) {
	s, ok := r.spans[id]
	return s, ok
}

// snapshot returns every currently active span. Used only for
// diagnostics and tests.
func (r *registry) snapshot() []sdktrace.ReadOnlySpan {
	out := make([]sdktrace.ReadOnlySpan, 0, len(r.spans))
	for _, s := range r.spans {
		out = append(out, s)
	}
	return out
}

func (r *registry) len() int {
	return len(r.spans)
}
