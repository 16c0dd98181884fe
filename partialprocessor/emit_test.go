// Unless explicitly stated otherwise all files in this repository are
// licensed under the Apache License Version 2.0.
// Copyright 2026 G-Research.

package partialprocessor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	otellog "go.opentelemetry.io/otel/log"
)

func TestEmitterWritesOneRecordPerEmit(t *testing.T) {
	exp := &fakeExporter{}
	cfg := defaultConfig(exp)
	cfg.now = func() time.Time { return time.Unix(100, 0) }
	e := newEmitter(cfg)

	span := recordSpan(t, nil)
	e.emit(context.Background(), span, SignalHeartbeat)

	require.Len(t, exp.exported, 1)
	rec := exp.exported[0]
	require.Equal(t, span.SpanContext().TraceID(), rec.TraceID())
	require.Equal(t, span.SpanContext().SpanID(), rec.SpanID())

	var gotEvent bool
	var frequency otellog.Value
	var gotFrequency bool
	rec.WalkAttributes(func(kv otellog.KeyValue) bool {
		if kv.Key == "partial.event" {
			gotEvent = true
		}
		if kv.Key == "partial.frequency" {
			gotFrequency = true
			frequency = kv.Value
		}
		return true
	})
	require.True(t, gotEvent)
	require.True(t, gotFrequency)
	require.Equal(t, otellog.KindString, frequency.Kind())
	require.Equal(t, "5000ms", frequency.AsString())
}

func TestEmitterLazilyBindsProviderOnce(t *testing.T) {
	exp := &fakeExporter{}
	cfg := defaultConfig(exp)
	e := newEmitter(cfg)

	span := recordSpan(t, nil)
	e.emit(context.Background(), span, SignalHeartbeat)
	first := e.provider
	e.emit(context.Background(), span, SignalStop)
	require.Same(t, first, e.provider)
}

func TestEmitterShutdownAndForceFlushBeforeFirstEmit(t *testing.T) {
	cfg := defaultConfig(&fakeExporter{})
	e := newEmitter(cfg)
	require.NoError(t, e.shutdown(context.Background()))
	require.NoError(t, e.forceFlush(context.Background()))
}
