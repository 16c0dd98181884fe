// Unless explicitly stated otherwise all files in this repository are
// licensed under the Apache License Version 2.0.
// Copyright 2026 G-Research.

package partialprocessor

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/G-Research/otel-partial-go/internal/log"
)

// schedulerState holds ActiveRegistry, DelayedQueue, DelayedIndex and
// ReadyQueue (spec §3) behind a single mutex, per spec §5's stated
// preference: "a single mutex protecting all four is sufficient and
// preferred for correctness of the 'in exactly one queue' invariant."
type schedulerState struct {
	mu sync.Mutex

	reg          *registry
	delayed      dueQueue
	delayedIndex map[trace.SpanID]struct{}
	ready        dueQueue
}

func newSchedulerState() *schedulerState {
	return &schedulerState{
		reg:          newRegistry(),
		delayedIndex: make(map[trace.SpanID]struct{}),
	}
}

// onStart registers s as active and schedules its first, delayed
// heartbeat. Non-blocking aside from the short critical section, per
// spec §4.1/§5.
func (s *schedulerState) onStart(id trace.SpanID, span sdktrace.ReadOnlySpan, now time.Time, initialDelay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reg.insert(id, span)
	s.delayed.push(id, now.Add(initialDelay))
	s.delayedIndex[id] = struct{}{}
}

// onEnd removes id from ActiveRegistry and DelayedIndex atomically and
// reports whether a Stop record should be emitted: true iff the span had
// already left DelayedQueue, i.e. at least one heartbeat was already due
// for it (spec §4.1).
func (s *schedulerState) onEnd(id trace.SpanID) (shouldEmitStop bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reg.remove(id)
	_, stillDelayed := s.delayedIndex[id]
	delete(s.delayedIndex, id)
	return !stillDelayed
}

// drainDelayed implements spec §4.2's DrainDelayed pass: entries whose
// delay has elapsed are promoted into ReadyQueue and their spans
// collected for heartbeat emission; entries for spans that have since
// ended are silently dropped (tombstoned).
func (s *schedulerState) drainDelayed(now time.Time, heartbeatInterval time.Duration) []sdktrace.ReadOnlySpan {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []sdktrace.ReadOnlySpan
	for {
		e, ok := s.delayed.peek()
		if !ok || e.dueAt.After(now) {
			return due
		}
		s.delayed.pop()
		delete(s.delayedIndex, e.spanID)

		span, stillActive := s.reg.lookup(e.spanID)
		if !stillActive {
			continue
		}
		s.ready.push(e.spanID, now.Add(heartbeatInterval))
		due = append(due, span)
	}
}

// drainReady implements spec §4.2's DrainReady pass: due entries are
// re-enqueued for the next interval and their spans collected; entries
// for ended spans are dropped.
func (s *schedulerState) drainReady(now time.Time, heartbeatInterval time.Duration) []sdktrace.ReadOnlySpan {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []sdktrace.ReadOnlySpan
	for {
		e, ok := s.ready.peek()
		if !ok || e.dueAt.After(now) {
			return due
		}
		s.ready.pop()

		span, stillActive := s.reg.lookup(e.spanID)
		if !stillActive {
			continue
		}
		s.ready.push(e.spanID, now.Add(heartbeatInterval))
		due = append(due, span)
	}
}

// activeSpans returns a snapshot of ActiveRegistry. Diagnostics/tests only.
func (s *schedulerState) activeSpans() []sdktrace.ReadOnlySpan {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reg.snapshot()
}

// scheduler is the single dedicated worker goroutine from spec §4.2/§5.
// It alternates a wait on doneCh (bounded by processInterval) with a
// DrainDelayed pass followed by a DrainReady pass, emitting heartbeats
// for every span collected by either pass outside of the state's lock.
type scheduler struct {
	state   *schedulerState
	cfg     *config
	emit    func(ctx context.Context, span sdktrace.ReadOnlySpan, signal Signal)
	doneCh  chan struct{}
	stopped chan struct{}
}

func newScheduler(state *schedulerState, cfg *config, emit func(context.Context, sdktrace.ReadOnlySpan, Signal)) *scheduler {
	return &scheduler{
		state:   state,
		cfg:     cfg,
		emit:    emit,
		doneCh:  make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

func (sch *scheduler) run() {
	defer close(sch.stopped)
	ctx := context.Background()
	for {
		if sch.cfg.processInterval <= 0 {
			select {
			case <-sch.doneCh:
				return
			default:
				runtime.Gosched()
			}
		} else {
			timer := time.NewTimer(sch.cfg.processInterval)
			select {
			case <-sch.doneCh:
				timer.Stop()
				return
			case <-timer.C:
			}
		}
		sch.tick(ctx)
	}
}

// tick runs one DrainDelayed-then-DrainReady pass, guarding the pass
// against a panicking Serializer or Exporter: a BackgroundPanic must not
// terminate the scheduler goroutine (spec §7), so one bad span never
// stops heartbeats for every other span.
func (sch *scheduler) tick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("partialprocessor: recovered panic in scheduler tick: %v", r)
			otel.Handle(backgroundPanic{recovered: r})
		}
	}()

	now := sch.cfg.now()
	due := sch.state.drainDelayed(now, sch.cfg.heartbeatInterval)
	due = append(due, sch.state.drainReady(now, sch.cfg.heartbeatInterval)...)

	for _, span := range due {
		sch.emitOne(ctx, span)
	}
}

// emitOne isolates a single span's emission so a panic while serializing
// or exporting one span doesn't prevent the remaining spans in the same
// batch from being emitted.
func (sch *scheduler) emitOne(ctx context.Context, span sdktrace.ReadOnlySpan) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("partialprocessor: recovered panic emitting heartbeat for span %s: %v",
				span.SpanContext().SpanID(), r)
			otel.Handle(backgroundPanic{recovered: r})
		}
	}()
	sch.emit(ctx, span, SignalHeartbeat)
}

// stop signals the scheduler to exit and blocks until it has, or until
// ctx is done. A ctx that is already done when stop is called means "do
// not wait": the scheduler is signalled and stop returns nil at once.
func (sch *scheduler) stop(ctx context.Context) error {
	select {
	case <-sch.stopped:
		return nil
	default:
	}
	close(sch.doneCh)
	if ctx.Err() != nil {
		return nil
	}
	select {
	case <-sch.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// backgroundPanic adapts a recovered panic value into an error suitable
// for otel.Handle, per spec §7's BackgroundPanic error kind.
type backgroundPanic struct {
	recovered any
}

func (b backgroundPanic) Error() string {
	return fmt.Sprintf("partialprocessor: background panic recovered: %v", b.recovered)
}
