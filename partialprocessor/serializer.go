// Unless explicitly stated otherwise all files in this repository are
// licensed under the Apache License Version 2.0.
// Copyright 2026 G-Research.

package partialprocessor

import (
	"encoding/json"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Serializer produces the byte payload carried as a heartbeat or stop log
// record's body, per spec §4.5. Implementations must be safe for
// concurrent use; the scheduler calls Serialize from its single worker
// goroutine, but OnEnd's synchronous Stop emission (spec §4.1) can run
// concurrently with it from an application goroutine.
type Serializer interface {
	Serialize(span sdktrace.ReadOnlySpan, signal Signal) ([]byte, error)
}

// jsonEnvelopeSerializer is the default Serializer. It builds the
// snake_case OTLP-shaped resource/scope/span tree spec §4.5 describes and
// marshals it with encoding/json; no reflection beyond what json.Marshal
// itself performs, and no OTel SDK-internal proto types.
type jsonEnvelopeSerializer struct{}

func (jsonEnvelopeSerializer) Serialize(span sdktrace.ReadOnlySpan, signal Signal) ([]byte, error) {
	return json.Marshal(buildEnvelope(span, signal))
}
