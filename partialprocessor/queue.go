// Unless explicitly stated otherwise all files in this repository are
// licensed under the Apache License Version 2.0.
// Copyright 2026 G-Research.

package partialprocessor

import (
	"time"

	"go.opentelemetry.io/otel/trace"
)

// queueEntry is a single (span_id, due_at) tuple, shared by both the
// DelayedQueue and the ReadyQueue from spec §3.
type queueEntry struct {
	spanID trace.SpanID
	dueAt  time.Time
}

// dueQueue is the FIFO time-ordered queue spec §9 calls for: because
// every insertion adds a constant delay to a monotonically
// non-decreasing "now", FIFO insertion order is equivalent to due-time
// order, so a plain slice-backed queue suffices and a priority heap is
// unnecessary. Popped entries whose span has since ended are the
// "tombstones" spec §9 describes; dueQueue itself does not know about
// tombstones; that filtering happens in schedulerState (scheduler.go),
// which is the only place with enough context (the registry) to decide.
//
// Like registry, dueQueue is not itself safe for concurrent use; callers
// must hold schedulerState's mutex.
type dueQueue struct {
	entries []queueEntry
	head    int
}

func (q *dueQueue) push(id trace.SpanID, dueAt time.Time) {
	q.entries = append(q.entries, queueEntry{spanID: id, dueAt: dueAt})
}

// peek returns the head entry without removing it.
func (q *dueQueue) peek() (queueEntry, bool) {
	if q.head >= len(q.entries) {
		return queueEntry{}, false
	}
	return q.entries[q.head], true
}

// pop removes and returns the head entry.
func (q *dueQueue) pop() (queueEntry, bool) {
	e, ok := q.peek()
	if !ok {
		return queueEntry{}, false
	}
	q.head++
	// Compact once consumed entries dominate the backing array, so a
	// long-lived queue doesn't retain an ever-growing slice.
	if q.head > 16 && q.head*2 >= len(q.entries) {
		q.entries = append([]queueEntry(nil), q.entries[q.head:]...)
		q.head = 0
	}
	return e, true
}

func (q *dueQueue) len() int {
	return len(q.entries) - q.head
}
