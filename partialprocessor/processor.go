// Unless explicitly stated otherwise all files in this repository are
// licensed under the Apache License Version 2.0.
// Copyright 2026 G-Research.

// Package partialprocessor implements an OpenTelemetry span processor
// that emits periodic heartbeat log records, and a final stop record,
// for spans that stay open longer than a configurable grace period. It
// lets a backend reconstruct an approximate view of in-flight spans that
// never reach their exporter because the process crashed, was killed, or
// otherwise never called Shutdown.
package partialprocessor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/G-Research/otel-partial-go/internal/log"
)

// Processor implements sdktrace.SpanProcessor. Install it on a
// TracerProvider alongside the processor(s) that export finished spans;
// Processor never replaces them, it only emits extra log records for
// spans that are, or were, active for longer than expected.
type Processor struct {
	cfg     *config
	state   *schedulerState
	emitter *emitter
	sched   *scheduler

	stopped  atomic.Bool
	stopOnce sync.Once
	stopErr  error
}

var _ sdktrace.SpanProcessor = (*Processor)(nil)

// NewPartialSpanProcessor constructs a Processor that writes heartbeat
// and stop records through exporter. exporter is typically an OTLP log
// exporter pointed at the same backend the TracerProvider's own span
// exporter sends completed spans to.
func NewPartialSpanProcessor(exporter sdklog.Exporter, opts ...Option) (*Processor, error) {
	cfg := defaultConfig(exporter)
	for _, opt := range opts {
		opt(cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	p := &Processor{
		cfg:     cfg,
		state:   newSchedulerState(),
		emitter: newEmitter(cfg),
	}
	p.sched = newScheduler(p.state, cfg, p.emitter.emit)
	go p.sched.run()
	return p, nil
}

// OnStart registers s as active and schedules its first heartbeat to
// fire after the configured initial delay, per spec §4.1. A no-op once
// Shutdown has been called.
func (p *Processor) OnStart(_ context.Context, s sdktrace.ReadWriteSpan) {
	if p.stopped.Load() {
		return
	}
	p.state.onStart(s.SpanContext().SpanID(), s, p.cfg.now(), p.cfg.initialHeartbeatDelay)
}

// OnEnd removes s from the active set and, if s had already left the
// delayed queue (meaning at least one heartbeat was already due for it),
// synchronously emits a stop record. A no-op once Shutdown has been
// called.
func (p *Processor) OnEnd(s sdktrace.ReadOnlySpan) {
	if p.stopped.Load() {
		return
	}
	if p.state.onEnd(s.SpanContext().SpanID()) {
		p.emitter.emit(context.Background(), s, SignalStop)
	}
}

// ForceFlush forwards to the log pipeline's ForceFlush, and returns nil
// before the first record has bound that pipeline. Processor buffers no
// records of its own: every heartbeat and stop record is written through
// a sdklog.SimpleProcessor, which exports synchronously as part of emit.
func (p *Processor) ForceFlush(ctx context.Context) error {
	return p.emitter.forceFlush(ctx)
}

// Shutdown stops the background scheduler and shuts down the underlying
// log pipeline. It is safe to call more than once; only the first call
// does work, and every call observes the same result. After Shutdown
// returns, OnStart and OnEnd become no-ops.
//
// The log pipeline is shut down even when joining the scheduler fails or
// times out: a ctx that has little or no budget left (spec §5's
// timeout_ms == 0 case) still signals the scheduler and shuts down the
// exporter with whatever budget remains, rather than skipping the
// exporter shutdown entirely.
func (p *Processor) Shutdown(ctx context.Context) error {
	p.stopOnce.Do(func() {
		p.stopped.Store(true)
		stopErr := p.sched.stop(ctx)
		if stopErr != nil {
			log.Error("partialprocessor: stopping scheduler: %v", stopErr)
		}
		emitErr := p.emitter.shutdown(ctx)
		p.stopErr = errors.Join(stopErr, emitErr)
	})
	return p.stopErr
}

// ShutdownWithTimeout is a convenience wrapper around Shutdown for
// callers that think in terms of spec.md's timeout_ms parameter rather
// than a context deadline. d <= 0 means "signal and return without
// waiting" (timeout_ms == 0); there is no duration value for "wait
// indefinitely" — callers that want that tier should call
// Shutdown(context.Background()) directly.
func (p *Processor) ShutdownWithTimeout(d time.Duration) error {
	if d <= 0 {
		ctx, cancel := context.WithDeadline(context.Background(), time.Now())
		defer cancel()
		return p.Shutdown(ctx)
	}
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	return p.Shutdown(ctx)
}
