// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Package cycle drives the scan, aggregate and deliver loop.
package cycle

import (
	"context"
	"errors"
	"maps"
	"slices"
	"time"

	"github.com/henskjold73/hydropi/delivery"
	"github.com/henskjold73/hydropi/internal/log"
	"github.com/henskjold73/hydropi/internal/wallclock"
	"github.com/henskjold73/hydropi/scan"
	"github.com/henskjold73/hydropi/tilt"
	"github.com/henskjold73/hydropi/window"
)

type (
	// Processor decides on and performs delivery of an aggregate.
	Processor interface {
		Process(ctx context.Context, res window.Result) (delivery.Outcome, error)
	}

	// Config holds the pacing of the loop.
	Config struct {
		// Window is how long each scan runs.
		Window time.Duration

		// Interval is the time from the start of one scan to the start of the
		// next. When it is shorter than a scan, the next scan starts
		// immediately.
		Interval time.Duration

		// DeliveryTimeout bounds a delivery, including retries. Zero means
		// unbounded.
		DeliveryTimeout time.Duration

		// ManufacturerID is the vendor code accepted by the decoder.
		ManufacturerID uint16
	}

	// Runner repeats cycles until its context ends. Only one cycle runs at a
	// time.
	Runner struct {
		scanner   scan.Scanner
		processor Processor
		cfg       Config
		clock     wallclock.WallClock
		log       logger
	}

	// Report summarizes a completed cycle.
	Report struct {
		Readings int
		Result   window.Result
		Outcome  delivery.Outcome
		Scanned  time.Duration
	}
)

// New creates a runner.
func New(
	scanner scan.Scanner,
	processor Processor,
	cfg Config,
	opt ...Option,
) *Runner {
	var opts Options
	opts.Apply(opt)

	if cfg.ManufacturerID == 0 {
		cfg.ManufacturerID = tilt.AppleManufacturerID
	}

	r := &Runner{
		scanner:   scanner,
		processor: processor,
		cfg:       cfg,
		clock:     opts.Clock,
		log:       logger{log.Wrap(opts.Logger)},
	}
	if r.clock == nil {
		r.clock = wallclock.Instance
	}
	return r
}

// Run loops until the context is cancelled. A cancelled scan discards its
// partial window; an in-flight delivery is allowed to finish or time out.
// Failures within a cycle are logged and never end the loop.
func (r *Runner) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		rep, err := r.Cycle(ctx)
		switch {
		case errors.Is(err, errCancelled):
			r.log.stopped(ctx)
			return nil
		case err != nil:
			r.log.Err(ctx, err)
		default:
			r.log.report(ctx, rep)
		}

		if ctx.Err() != nil {
			r.log.stopped(ctx)
			return nil
		}

		idle := max(0, r.cfg.Interval-rep.Scanned)
		r.log.idle(ctx, idle)

		t := r.clock.NewTimer(idle)
		select {
		case <-t.C():
		case <-ctx.Done():
			t.Stop()
			r.log.stopped(ctx)
			return nil
		}
	}
}

// Cycle runs one scan window and hands its aggregate to the processor.
func (r *Runner) Cycle(ctx context.Context) (rep Report, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &PanicError{Value: p}
		}
	}()

	acc := window.New()
	began := r.clock.Now()

	handler := func(ad scan.Advertisement) {
		defer func() {
			if p := recover(); p != nil {
				r.log.Err(ctx, &PanicError{Value: p})
			}
		}()

		rd, err := tilt.DecodeFor(ad.Payload, ad.ManufacturerID, r.cfg.ManufacturerID)
		if err != nil {
			r.log.dropped(ctx, ad, err)
			return
		}
		acc.Record(rd)
	}

	r.log.scanning(ctx, r.cfg.Window)
	if err := r.scanner.Start(ctx, handler); err != nil {
		return rep, &ScanError{Err: err}
	}
	scanning := true
	defer func() {
		if scanning {
			_ = r.scanner.Stop()
		}
	}()

	t := r.clock.NewTimer(r.cfg.Window)
	select {
	case <-t.C():
	case <-ctx.Done():
		t.Stop()
	}

	stopErr := r.scanner.Stop()
	scanning = false
	rep.Scanned = r.clock.Now().Sub(began)
	if ctx.Err() != nil {
		return rep, errCancelled
	}
	if stopErr != nil {
		r.log.Err(ctx, &ScanError{Err: stopErr})
	}

	rep.Readings = acc.Len()
	rep.Result = acc.Finalize()
	r.log.devices(ctx, rep.Result)

	dctx, cancel := context.WithoutCancel(ctx), context.CancelFunc(func() {})
	if r.cfg.DeliveryTimeout > 0 {
		dctx, cancel = r.clock.WithTimeoutCause(
			dctx,
			r.cfg.DeliveryTimeout,
			ErrDeliveryTimeout,
		)
	}
	defer cancel()

	rep.Outcome, err = r.processor.Process(dctx, rep.Result)
	return rep, err
}

// sortedFingerprints orders a result for stable log output.
func sortedFingerprints(res window.Result) []string {
	return slices.Sorted(maps.Keys(res))
}
