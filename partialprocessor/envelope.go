// Unless explicitly stated otherwise all files in this repository are
// licensed under the Apache License Version 2.0.
// Copyright 2026 G-Research.

package partialprocessor

import (
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// The types below model the OTLP traces protocol's JSON shape closely
// enough to round-trip the fields spec §4.5 names: a singleton
// resource/scope/span tree wrapping exactly one span. Field names are
// snake_case throughout, matching spec §4.5 and §6.
type otlpEnvelope struct {
	ResourceSpans []otlpResourceSpans `json:"resource_spans"`
}

type otlpResourceSpans struct {
	Resource   otlpResource    `json:"resource"`
	ScopeSpans []otlpScopeSpans `json:"scope_spans"`
}

type otlpResource struct {
	Attributes []otlpKeyValue `json:"attributes,omitempty"`
}

type otlpScopeSpans struct {
	Scope otlpScope  `json:"scope"`
	Spans []otlpSpan `json:"spans"`
}

type otlpScope struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

type otlpSpan struct {
	TraceID           string         `json:"trace_id"`
	SpanID            string         `json:"span_id"`
	TraceState        string         `json:"trace_state,omitempty"`
	ParentSpanID      string         `json:"parent_span_id,omitempty"`
	Flags             uint32         `json:"flags"`
	Name              string         `json:"name"`
	Kind              int            `json:"kind"`
	StartTimeUnixNano uint64         `json:"start_time_unix_nano"`
	EndTimeUnixNano   uint64         `json:"end_time_unix_nano,omitempty"`
	Attributes        []otlpKeyValue `json:"attributes,omitempty"`
	Events            []otlpEvent    `json:"events,omitempty"`
	Links             []otlpLink     `json:"links,omitempty"`
	Status            otlpStatus     `json:"status"`
}

type otlpEvent struct {
	TimeUnixNano           uint64         `json:"time_unix_nano"`
	Name                   string         `json:"name"`
	Attributes             []otlpKeyValue `json:"attributes,omitempty"`
	DroppedAttributesCount int            `json:"dropped_attributes_count,omitempty"`
}

type otlpLink struct {
	TraceID                string         `json:"trace_id"`
	SpanID                 string         `json:"span_id"`
	TraceState             string         `json:"trace_state,omitempty"`
	Attributes             []otlpKeyValue `json:"attributes,omitempty"`
	DroppedAttributesCount int            `json:"dropped_attributes_count,omitempty"`
}

type otlpStatus struct {
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
}

type otlpKeyValue struct {
	Key   string       `json:"key"`
	Value otlpAnyValue `json:"value"`
}

type otlpAnyValue struct {
	StringValue *string       `json:"string_value,omitempty"`
	BoolValue   *bool         `json:"bool_value,omitempty"`
	IntValue    *int64        `json:"int_value,omitempty"`
	DoubleValue *float64      `json:"double_value,omitempty"`
	ArrayValue  *otlpArrayValue `json:"array_value,omitempty"`
}

type otlpArrayValue struct {
	Values []otlpAnyValue `json:"values"`
}

// statusCode maps codes.Code, whose numeric values (Unset=0, Error=1,
// Ok=2) do NOT match the OTLP wire enum, onto the protocol's
// {Unset=0, Ok=1, Error=2} per spec §4.5/§6.
func statusCode(c codes.Code) int {
	switch c {
	case codes.Ok:
		return 1
	case codes.Error:
		return 2
	default:
		return 0
	}
}

// buildEnvelope converts span into the singleton resource/scope/span
// tree described by spec §4.5. end_time_unix_nano is populated only for
// SignalStop, matching spec §3's Signal semantics.
func buildEnvelope(span sdktrace.ReadOnlySpan, signal Signal) otlpEnvelope {
	sc := span.SpanContext()
	scope := span.InstrumentationScope()

	s := otlpSpan{
		TraceID:           sc.TraceID().String(),
		SpanID:            sc.SpanID().String(),
		Flags:             uint32(sc.TraceFlags()),
		Name:              span.Name(),
		Kind:              int(span.SpanKind()),
		StartTimeUnixNano: uint64(span.StartTime().UnixNano()),
		Attributes:        attributesToKeyValues(span.Attributes()),
		Events:            eventsToOTLP(span.Events()),
		Links:             linksToOTLP(span.Links()),
		Status: otlpStatus{
			Code:    statusCode(span.Status().Code),
			Message: span.Status().Description,
		},
	}
	if ts := sc.TraceState().String(); ts != "" {
		s.TraceState = ts
	}
	if parent := span.Parent(); parent.IsValid() {
		s.ParentSpanID = parent.SpanID().String()
	}
	if signal == SignalStop {
		s.EndTimeUnixNano = uint64(span.EndTime().UnixNano())
	}

	return otlpEnvelope{
		ResourceSpans: []otlpResourceSpans{
			{
				Resource: otlpResource{Attributes: attributesToKeyValues(span.Resource().Attributes())},
				ScopeSpans: []otlpScopeSpans{
					{
						Scope: otlpScope{Name: scope.Name, Version: scope.Version},
						Spans: []otlpSpan{s},
					},
				},
			},
		},
	}
}

func eventsToOTLP(events []sdktrace.Event) []otlpEvent {
	if len(events) == 0 {
		return nil
	}
	out := make([]otlpEvent, 0, len(events))
	for _, e := range events {
		out = append(out, otlpEvent{
			TimeUnixNano:           uint64(e.Time.UnixNano()),
			Name:                   e.Name,
			Attributes:             attributesToKeyValues(e.Attributes),
			DroppedAttributesCount: e.DroppedAttributeCount,
		})
	}
	return out
}

func linksToOTLP(links []sdktrace.Link) []otlpLink {
	if len(links) == 0 {
		return nil
	}
	out := make([]otlpLink, 0, len(links))
	for _, l := range links {
		link := otlpLink{
			TraceID:                l.SpanContext.TraceID().String(),
			SpanID:                 l.SpanContext.SpanID().String(),
			Attributes:             attributesToKeyValues(l.Attributes),
			DroppedAttributesCount: l.DroppedAttributeCount,
		}
		if ts := l.SpanContext.TraceState().String(); ts != "" {
			link.TraceState = ts
		}
		out = append(out, link)
	}
	return out
}

func attributesToKeyValues(attrs []attribute.KeyValue) []otlpKeyValue {
	if len(attrs) == 0 {
		return nil
	}
	out := make([]otlpKeyValue, 0, len(attrs))
	for _, kv := range attrs {
		out = append(out, otlpKeyValue{
			Key:   string(kv.Key),
			Value: attributeValueToOTLP(kv.Value),
		})
	}
	return out
}

func attributeValueToOTLP(v attribute.Value) otlpAnyValue {
	switch v.Type() {
	case attribute.BOOL:
		b := v.AsBool()
		return otlpAnyValue{BoolValue: &b}
	case attribute.INT64:
		i := v.AsInt64()
		return otlpAnyValue{IntValue: &i}
	case attribute.FLOAT64:
		f := v.AsFloat64()
		return otlpAnyValue{DoubleValue: &f}
	case attribute.STRING:
		s := v.AsString()
		return otlpAnyValue{StringValue: &s}
	case attribute.BOOLSLICE:
		vals := make([]otlpAnyValue, 0)
		for _, b := range v.AsBoolSlice() {
			b := b
			vals = append(vals, otlpAnyValue{BoolValue: &b})
		}
		return otlpAnyValue{ArrayValue: &otlpArrayValue{Values: vals}}
	case attribute.INT64SLICE:
		vals := make([]otlpAnyValue, 0)
		for _, i := range v.AsInt64Slice() {
			i := i
			vals = append(vals, otlpAnyValue{IntValue: &i})
		}
		return otlpAnyValue{ArrayValue: &otlpArrayValue{Values: vals}}
	case attribute.FLOAT64SLICE:
		vals := make([]otlpAnyValue, 0)
		for _, f := range v.AsFloat64Slice() {
			f := f
			vals = append(vals, otlpAnyValue{DoubleValue: &f})
		}
		return otlpAnyValue{ArrayValue: &otlpArrayValue{Values: vals}}
	case attribute.STRINGSLICE:
		vals := make([]otlpAnyValue, 0)
		for _, s := range v.AsStringSlice() {
			s := s
			vals = append(vals, otlpAnyValue{StringValue: &s})
		}
		return otlpAnyValue{ArrayValue: &otlpArrayValue{Values: vals}}
	default:
		s := v.Emit()
		return otlpAnyValue{StringValue: &s}
	}
}
