// Unless explicitly stated otherwise all files in this repository are
// licensed under the Apache License Version 2.0.
// Copyright 2026 G-Research.

package partialprocessor

import (
	"context"
	"fmt"
	"sync"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/trace"

	"github.com/G-Research/otel-partial-go/internal/log"
)

// instrumentationName identifies this package as the producer of every
// heartbeat and stop log record, the way dd-trace-go's OpenTelemetry
// bridge (ddtrace/opentelemetry) stamps its own instrumentation scope.
const instrumentationName = "github.com/G-Research/otel-partial-go/partialprocessor"

// emitter owns the lazily-constructed log pipeline a Processor writes
// heartbeat and stop records through. The LoggerProvider can't be built
// until the first span's Resource is known, so construction is deferred
// to the first call to emit, following the same lazy-bind idiom the
// OTel SDK's own tracer provider uses for its default resource.
type emitter struct {
	cfg *config

	mu       sync.Mutex
	provider *sdklog.LoggerProvider
	logger   otellog.Logger
}

func newEmitter(cfg *config) *emitter {
	return &emitter{cfg: cfg}
}

func (e *emitter) loggerFor(res *resource.Resource) otellog.Logger {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.logger != nil {
		return e.logger
	}
	e.provider = sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(sdklog.NewSimpleProcessor(e.cfg.exporter)),
	)
	e.logger = e.provider.Logger(instrumentationName)
	return e.logger
}

// emit serializes span under signal and writes the result as a single
// log record correlated to span via its trace and span id, per spec
// §4.4/§4.5. Serialization failures are routed to otel.Handle and the
// internal logger rather than propagated, since emit runs from the
// scheduler's worker goroutine and from OnEnd with no caller able to act
// on an error.
func (e *emitter) emit(ctx context.Context, span sdktrace.ReadOnlySpan, signal Signal) {
	payload, err := e.cfg.serializer.Serialize(span, signal)
	if err != nil {
		spanID := span.SpanContext().SpanID()
		log.Error("partialprocessor: serialize %s record for span %s: %v", signal, spanID, err)
		otel.Handle(fmt.Errorf("partialprocessor: serialize %s record for span %s: %w", signal, spanID, err))
		return
	}

	logger := e.loggerFor(span.Resource())

	now := e.cfg.now()
	var rec otellog.Record
	rec.SetTimestamp(now)
	rec.SetObservedTimestamp(now)
	rec.SetSeverity(otellog.SeverityInfo)
	rec.SetBody(otellog.BytesValue(payload))

	attrs := []otellog.KeyValue{
		otellog.String("partial.event", signal.String()),
		otellog.String("partial.body.type", "json/v1"),
	}
	if signal == SignalHeartbeat {
		attrs = append(attrs, otellog.String("partial.frequency", fmt.Sprintf("%dms", e.cfg.heartbeatInterval.Milliseconds())))
	}
	rec.AddAttributes(attrs...)

	logger.Emit(trace.ContextWithSpanContext(ctx, span.SpanContext()), rec)
}

// shutdown shuts down the log pipeline. Before the first emit has bound
// a LoggerProvider, the exporter is shut down directly instead.
func (e *emitter) shutdown(ctx context.Context) error {
	e.mu.Lock()
	provider := e.provider
	e.mu.Unlock()
	if provider == nil {
		return e.cfg.exporter.Shutdown(ctx)
	}
	return provider.Shutdown(ctx)
}

func (e *emitter) forceFlush(ctx context.Context) error {
	e.mu.Lock()
	provider := e.provider
	e.mu.Unlock()
	if provider == nil {
		return nil
	}
	return provider.ForceFlush(ctx)
}
