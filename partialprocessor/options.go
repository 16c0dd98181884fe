// Unless explicitly stated otherwise all files in this repository are
// licensed under the Apache License Version 2.0.
// Copyright 2026 G-Research.

package partialprocessor

import (
	"time"

	sdklog "go.opentelemetry.io/otel/sdk/log"

	"github.com/G-Research/otel-partial-go/internal/log"
)

// Defaults for config, matching spec §6's configuration surface.
const (
	DefaultHeartbeatInterval     = 5 * time.Second
	DefaultInitialHeartbeatDelay = 5 * time.Second
	DefaultProcessInterval       = 5 * time.Second
)

// config holds the resolved construction parameters for a Processor.
// Unexported, built exclusively through Option values, following the
// functional-options shape used throughout dd-trace-go's contrib
// packages (e.g. contrib/ClickHouse/clickhouse-go.v2/option.go).
type config struct {
	heartbeatInterval     time.Duration
	initialHeartbeatDelay time.Duration
	processInterval       time.Duration
	exporter              sdklog.Exporter
	serializer            Serializer
	now                   func() time.Time
}

func defaultConfig(exporter sdklog.Exporter) *config {
	return &config{
		heartbeatInterval:     DefaultHeartbeatInterval,
		initialHeartbeatDelay: DefaultInitialHeartbeatDelay,
		processInterval:       DefaultProcessInterval,
		exporter:              exporter,
		serializer:            jsonEnvelopeSerializer{},
		now:                   time.Now,
	}
}

func (c *config) validate() error {
	if c.exporter == nil {
		return invalidArgument("log_exporter", "must not be nil")
	}
	if c.heartbeatInterval <= 0 {
		return invalidArgument("heartbeat_interval_ms", "must be greater than zero")
	}
	if c.initialHeartbeatDelay < 0 {
		return invalidArgument("initial_heartbeat_delay_ms", "must be greater than or equal to zero")
	}
	if c.processInterval < 0 {
		return invalidArgument("process_interval_ms", "must be greater than or equal to zero")
	}
	if c.serializer == nil {
		return invalidArgument("serializer", "must not be nil")
	}
	if c.now == nil {
		return invalidArgument("clock", "must not be nil")
	}
	return nil
}

// Option configures a Processor at construction time.
type Option func(*config)

// WithHeartbeatInterval sets the period between heartbeats for a span
// once it is past its initial delay. Must be greater than zero.
func WithHeartbeatInterval(d time.Duration) Option {
	return func(c *config) { c.heartbeatInterval = d }
}

// WithInitialHeartbeatDelay sets the grace period before a span's first
// heartbeat. Spans that end within this window emit neither a heartbeat
// nor a stop record. Must be greater than or equal to zero.
func WithInitialHeartbeatDelay(d time.Duration) Option {
	return func(c *config) { c.initialHeartbeatDelay = d }
}

// WithProcessInterval sets the scheduler's tick period. A value of zero
// makes the scheduler poll continuously, yielding between passes.
func WithProcessInterval(d time.Duration) Option {
	return func(c *config) { c.processInterval = d }
}

// WithSerializer overrides the default JSON OTLP-envelope serializer
// used to produce each log record's body.
func WithSerializer(s Serializer) Option {
	return func(c *config) { c.serializer = s }
}

// WithLogger routes the package's internal diagnostic logging (never
// the emitted telemetry itself) through l, mirroring dd-trace-go's
// tracer.WithLogger option.
func WithLogger(l log.Logger) Option {
	return func(*config) { log.UseLogger(l) }
}

// WithClock overrides the clock used for scheduling decisions. Intended
// for tests that need deterministic control over "now"; production
// callers should not need this option.
func WithClock(now func() time.Time) Option {
	return func(c *config) { c.now = now }
}
