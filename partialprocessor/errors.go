// Unless explicitly stated otherwise all files in this repository are
// licensed under the Apache License Version 2.0.
// Copyright 2026 G-Research.

package partialprocessor

import "fmt"

// InvalidArgumentError is returned by NewPartialSpanProcessor when a
// configuration value is out of range. It names the offending field so
// callers can report a precise construction failure, mirroring the
// wrapped-error constructors used throughout dd-trace-go.
type InvalidArgumentError struct {
	Field  string
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("partialprocessor: invalid argument %q: %s", e.Field, e.Reason)
}

func invalidArgument(field, reason string) error {
	return &InvalidArgumentError{Field: field, Reason: reason}
}
