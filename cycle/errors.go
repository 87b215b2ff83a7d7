// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package cycle

import (
	"errors"
	"fmt"
	"log/slog"
)

type (
	// ScanError indicates the scanner could not be started or stopped.
	ScanError struct {
		Err error
	}

	// PanicError carries a panic recovered from a cycle.
	PanicError struct {
		Value any
	}
)

var (
	// ErrDeliveryTimeout is the cause of a delivery context that ran out of
	// time.
	ErrDeliveryTimeout = errors.New("delivery timed out")

	errCancelled = errors.New("scan cancelled")
)

func (e *ScanError) Error() string {
	return fmt.Sprintf("scan failed: %v", e.Err)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("cycle panicked: %v", e.Value)
}

func (e *PanicError) Attrs() []slog.Attr {
	return []slog.Attr{slog.Any("panic", e.Value)}
}
