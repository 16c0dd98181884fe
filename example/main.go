// Unless explicitly stated otherwise all files in this repository are
// licensed under the Apache License Version 2.0.
// Copyright 2026 G-Research.

// Command example wires partialprocessor.Processor onto a TracerProvider
// alongside an in-memory span exporter (standing in for a real OTLP span
// exporter), so long-running spans still
// surface heartbeat and stop log records even if the process never gets
// a chance to export the span itself.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/G-Research/otel-partial-go/partialprocessor"
)

// stdoutLogExporter prints each heartbeat and stop record's body to
// stdout. A real deployment would use an OTLP log exporter pointed at
// the same collector the span exporter ships finished spans to.
type stdoutLogExporter struct{}

func (stdoutLogExporter) Export(_ context.Context, records []sdklog.Record) error {
	for _, r := range records {
		fmt.Printf("partial span record: trace=%s span=%s body=%s\n",
			r.TraceID(), r.SpanID(), r.Body().AsBytes())
	}
	return nil
}
func (stdoutLogExporter) Shutdown(context.Context) error   { return nil }
func (stdoutLogExporter) ForceFlush(context.Context) error { return nil }

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	logExporter := stdoutLogExporter{}
	spanExporter := tracetest.NewInMemoryExporter()

	proc, err := partialprocessor.NewPartialSpanProcessor(logExporter,
		partialprocessor.WithHeartbeatInterval(10*time.Second),
		partialprocessor.WithInitialHeartbeatDelay(10*time.Second),
	)
	if err != nil {
		return err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(spanExporter),
		sdktrace.WithSpanProcessor(proc),
	)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("example: shutting down tracer provider: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tracer := tp.Tracer("github.com/G-Research/otel-partial-go/example")
	_, span := tracer.Start(ctx, "long-running-job")
	defer span.End()

	select {
	case <-ctx.Done():
		return nil
	case <-time.After(30 * time.Second):
		return errors.New("example: job timed out")
	}
}
