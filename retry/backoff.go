// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Package retry repeats a failing task with exponential backoff.
package retry

import (
	"context"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	"github.com/henskjold73/hydropi/internal/log"
	"github.com/henskjold73/hydropi/internal/wallclock"
)

type (
	// Task is a function to retry. It reports whether the returned error is
	// worth another attempt.
	Task = func(ctx context.Context) (shouldRetry bool, err error)

	// Policy runs a task under some retry strategy.
	Policy interface {
		Start(ctx context.Context, name string, task Task) error
	}

	// ExponentialBackoff retries with an interval that doubles per attempt,
	// clamped to MaxInterval, with optional jitter.
	ExponentialBackoff struct {
		// MaxAttempts bounds the number of attempts. Zero means unlimited and
		// one disables retries.
		MaxAttempts uint64

		// MinInterval is the interval before the second attempt. Defaults to
		// 250ms.
		MinInterval time.Duration

		// MaxInterval caps the interval between attempts. Defaults to 10s.
		MaxInterval time.Duration

		// Timeout bounds all attempts together.
		Timeout time.Duration

		// NoJitter disables the ±5% jitter.
		NoJitter bool

		Logger *slog.Logger
		Clock  wallclock.WallClock
	}
)

// Start runs the task until it succeeds, declines a retry, runs out of
// attempts, or the context ends. The last task error is returned.
func (e *ExponentialBackoff) Start(
	ctx context.Context,
	name string,
	task Task,
) error {
	clock := e.Clock
	if clock == nil {
		clock = wallclock.Instance
	}

	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = clock.WithTimeoutCause(
			ctx,
			e.Timeout,
			context.DeadlineExceeded,
		)
		defer cancel()
	}

	l := logger{log.Wrap(e.Logger)}

	var lastErr error
	for attempt := uint64(1); ; attempt++ {
		retry, err := task(ctx)
		if err == nil {
			l.complete(ctx, name, attempt, nil)
			return nil
		}
		lastErr = err

		interval := e.Interval(attempt)
		if !retry || attempt == e.MaxAttempts || ctx.Err() != nil {
			l.complete(ctx, name, attempt, err)
			return err
		}
		l.retry(ctx, name, attempt, interval, err)

		t := clock.NewTimer(interval)
		select {
		case <-t.C():
		case <-ctx.Done():
			t.Stop()
			l.complete(ctx, name, attempt, lastErr)
			return lastErr
		}
	}
}

// Interval returns the wait after the given (1-based) attempt.
func (e *ExponentialBackoff) Interval(attempt uint64) time.Duration {
	minInterval := e.MinInterval
	if minInterval <= 0 {
		minInterval = 250 * time.Millisecond
	}
	maxInterval := e.MaxInterval
	if maxInterval <= 0 {
		maxInterval = 10 * time.Second
	}

	factor := min(
		math.Pow(2, float64(attempt-1)),
		float64(max(maxInterval, minInterval))/float64(minInterval),
	)
	if !e.NoJitter {
		// #nosec G404
		factor *= .95 + .1*rand.Float64()
	}
	return time.Duration(factor * float64(minInterval))
}
