// Unless explicitly stated otherwise all files in this repository are
// licensed under the Apache License Version 2.0.
// Copyright 2026 G-Research.

package partialprocessor

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func recordSpan(t *testing.T, configure func(context.Context, sdktrace.Span)) sdktrace.ReadOnlySpan {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	if configure != nil {
		configure(ctx, span)
	}
	span.End()
	ended := rec.Ended()
	require.Len(t, ended, 1)
	return ended[0]
}

func TestBuildEnvelopeHeartbeatOmitsEndTime(t *testing.T) {
	span := recordSpan(t, nil)
	env := buildEnvelope(span, SignalHeartbeat)
	out := env.ResourceSpans[0].ScopeSpans[0].Spans[0]
	require.Equal(t, span.SpanContext().SpanID().String(), out.SpanID)
	require.Zero(t, out.EndTimeUnixNano)
}

func TestBuildEnvelopeStopIncludesEndTime(t *testing.T) {
	span := recordSpan(t, nil)
	env := buildEnvelope(span, SignalStop)
	out := env.ResourceSpans[0].ScopeSpans[0].Spans[0]
	require.NotZero(t, out.EndTimeUnixNano)
}

func TestBuildEnvelopeCarriesAttributesAndStatus(t *testing.T) {
	span := recordSpan(t, func(_ context.Context, s sdktrace.Span) {
		s.SetAttributes(attribute.String("k", "v"), attribute.Int64("n", 3))
		s.SetStatus(codes.Error, "boom")
	})
	env := buildEnvelope(span, SignalStop)
	out := env.ResourceSpans[0].ScopeSpans[0].Spans[0]
	require.Len(t, out.Attributes, 2)
	require.Equal(t, 2, out.Status.Code)
	require.Equal(t, "boom", out.Status.Message)
}

func TestStatusCodeMapping(t *testing.T) {
	require.Equal(t, 0, statusCode(codes.Unset))
	require.Equal(t, 1, statusCode(codes.Ok))
	require.Equal(t, 2, statusCode(codes.Error))
}

func TestJSONEnvelopeSerializerProducesValidJSON(t *testing.T) {
	span := recordSpan(t, nil)
	payload, err := jsonEnvelopeSerializer{}.Serialize(span, SignalHeartbeat)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(payload, &decoded))
	require.Contains(t, decoded, "resource_spans")
}
