// Unless explicitly stated otherwise all files in this repository are
// licensed under the Apache License Version 2.0.
// Copyright 2026 G-Research.

package partialprocessor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// newTestTracer wires p as the sole span processor on a fresh
// TracerProvider, so starting and ending spans through the returned
// tracer drives OnStart/OnEnd exactly as a real application would.
func newTestTracer(p *Processor) trace.Tracer {
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(p))
	return tp.Tracer("partialprocessor_test")
}

func newTestProcessor(t *testing.T, clock *time.Time, exp *fakeExporter) *Processor {
	t.Helper()
	p, err := NewPartialSpanProcessor(exp,
		WithClock(func() time.Time { return *clock }),
		WithHeartbeatInterval(time.Second),
		WithInitialHeartbeatDelay(0),
		// Long enough that the background scheduler never ticks on its
		// own during a test; tests advance the clock and call
		// p.sched.tick directly for deterministic control.
		WithProcessInterval(time.Hour),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = p.Shutdown(context.Background())
	})
	return p
}

func TestNewPartialSpanProcessorRejectsInvalidConfig(t *testing.T) {
	_, err := NewPartialSpanProcessor(nil)
	assert.Error(t, err)
}

func TestProcessorEndBeforeHeartbeatEmitsNoStop(t *testing.T) {
	clock := time.Now()
	exp := &fakeExporter{}
	p := newTestProcessor(t, &clock, exp)
	tracer := newTestTracer(p)

	_, span := tracer.Start(context.Background(), "op")
	span.End()

	assert.Empty(t, exp.exported)
}

func TestProcessorHeartbeatThenStop(t *testing.T) {
	clock := time.Now()
	exp := &fakeExporter{}
	p := newTestProcessor(t, &clock, exp)
	tracer := newTestTracer(p)

	ctx, span := tracer.Start(context.Background(), "op")

	clock = clock.Add(time.Second)
	p.sched.tick(ctx)
	require.Len(t, exp.exported, 1)

	span.End()
	require.Len(t, exp.exported, 2)
}

func TestProcessorRepeatedHeartbeatsThenStop(t *testing.T) {
	clock := time.Now()
	exp := &fakeExporter{}
	p := newTestProcessor(t, &clock, exp)
	tracer := newTestTracer(p)

	ctx, span := tracer.Start(context.Background(), "op")

	for i := 0; i < 3; i++ {
		clock = clock.Add(time.Second)
		p.sched.tick(ctx)
	}
	require.Len(t, exp.exported, 3)

	span.End()
	require.Len(t, exp.exported, 4)
}

// TestProcessorShutdownAlwaysShutsDownExporter guards against
// Shutdown short-circuiting on a scheduler-join error or timeout: the
// exporter must be shut down regardless, with whatever ctx budget
// remains.
func TestProcessorShutdownAlwaysShutsDownExporter(t *testing.T) {
	clock := time.Now()
	exp := &fakeExporter{}
	p := newTestProcessor(t, &clock, exp)
	tracer := newTestTracer(p)

	// Bind the log pipeline by emitting at least once.
	ctx, span := tracer.Start(context.Background(), "op")
	clock = clock.Add(time.Second)
	p.sched.tick(ctx)
	require.Len(t, exp.exported, 1)
	span.End()

	// An already-expired deadline models spec.md §5's timeout_ms == 0
	// case: signal and return without waiting on the join.
	expired, cancel := context.WithDeadline(context.Background(), time.Now())
	defer cancel()

	_ = p.Shutdown(expired)
	assert.Equal(t, 1, exp.shutdowns)
}

func TestProcessorShutdownWithTimeout(t *testing.T) {
	clock := time.Now()
	exp := &fakeExporter{}
	p := newTestProcessor(t, &clock, exp)

	require.NoError(t, p.ShutdownWithTimeout(0))
	assert.Equal(t, 1, exp.shutdowns)

	// A second call, through either entry point, is a no-op.
	require.NoError(t, p.ShutdownWithTimeout(time.Second))
	assert.Equal(t, 1, exp.shutdowns)
}

func TestProcessorNoOpAfterShutdown(t *testing.T) {
	clock := time.Now()
	exp := &fakeExporter{}
	p := newTestProcessor(t, &clock, exp)
	tracer := newTestTracer(p)
	require.NoError(t, p.Shutdown(context.Background()))

	_, span := tracer.Start(context.Background(), "op")
	span.End()
	assert.Empty(t, exp.exported)

	assert.NoError(t, p.Shutdown(context.Background()))
}
