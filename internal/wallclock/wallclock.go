// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Package wallclock lets the scan loop, the delivery timeout and replay
// pacing run against a clock tests can move by hand.
package wallclock

import (
	"context"
	"time"
)

type (
	// WallClock is the time source of the pipeline. Now stamps readings and
	// deliveries. NewTimer paces scan windows, idle periods, retry waits and
	// replayed advertisements. WithTimeoutCause bounds a delivery.
	WallClock interface {
		Now() time.Time
		NewTimer(d time.Duration) Timer
		WithTimeoutCause(
			parent context.Context,
			timeout time.Duration,
			cause error,
		) (context.Context, context.CancelFunc)
	}

	// Timer is a one-shot timer. Stop reports whether it stopped the timer
	// before it fired.
	Timer interface {
		C() <-chan time.Time
		Stop() bool
	}

	system struct{}

	systemTimer struct{ t *time.Timer }
)

// Instance is the process clock. Components that take a clock option fall
// back to it.
var Instance WallClock = system{}

func (system) Now() time.Time {
	return time.Now()
}

func (system) NewTimer(d time.Duration) Timer {
	return systemTimer{time.NewTimer(d)}
}

func (system) WithTimeoutCause(
	parent context.Context,
	timeout time.Duration,
	cause error,
) (context.Context, context.CancelFunc) {
	return context.WithTimeoutCause(parent, timeout, cause)
}

func (s systemTimer) C() <-chan time.Time {
	return s.t.C
}

func (s systemTimer) Stop() bool {
	return s.t.Stop()
}
