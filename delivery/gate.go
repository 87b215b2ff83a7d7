// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Package delivery decides whether an aggregate needs sending and sends it.
package delivery

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/henskjold73/hydropi/internal/log"
	"github.com/henskjold73/hydropi/internal/wallclock"
	"github.com/henskjold73/hydropi/retry"
	"github.com/henskjold73/hydropi/statestore"
	"github.com/henskjold73/hydropi/window"
)

type (
	// State is what the gate knows about the last successful delivery. A nil
	// LastAggregate or zero LastSentTime means the record is absent.
	State struct {
		LastAggregate window.Result
		LastSentTime  time.Time
	}

	// Decision is the reason for delivering or skipping.
	Decision string

	// Outcome is the result of processing one aggregate.
	Outcome struct {
		Decision  Decision
		Delivered bool
	}

	// Notifier is told about every successful delivery.
	Notifier interface {
		Notify(ctx context.Context, res window.Result, sentAt time.Time) error
	}

	// Gate sends an aggregate only when it changed or the last delivery is
	// older than the resend threshold, and records every success.
	Gate struct {
		sender    Sender
		store     statestore.Store
		threshold time.Duration
		clock     wallclock.WallClock
		retry     retry.Policy
		notify    []Notifier
		log       log.Logger

		mu     sync.Mutex
		loaded bool
		state  State
	}
)

const (
	DecisionFirst     Decision = "first"
	DecisionChanged   Decision = "changed"
	DecisionHeartbeat Decision = "heartbeat"
	DecisionSkip      Decision = "unchanged"
)

// Decide applies the delivery policy: deliver when nothing was ever sent,
// when the aggregate changed, or when threshold has elapsed since the last
// delivery.
func Decide(
	next window.Result,
	state State,
	now time.Time,
	threshold time.Duration,
) Decision {
	changed := state.LastAggregate == nil ||
		!next.Equal(state.LastAggregate)

	switch {
	case state.LastSentTime.IsZero():
		return DecisionFirst
	case changed:
		return DecisionChanged
	case now.Sub(state.LastSentTime) >= threshold:
		return DecisionHeartbeat
	default:
		return DecisionSkip
	}
}

// ShouldDeliver reports whether Decide would deliver.
func ShouldDeliver(
	next window.Result,
	state State,
	now time.Time,
	threshold time.Duration,
) bool {
	return Decide(next, state, now, threshold) != DecisionSkip
}

// NewGate creates a gate sending through sender and recording into store.
func NewGate(
	sender Sender,
	store statestore.Store,
	threshold time.Duration,
	opt ...GateOption,
) *Gate {
	var opts GateOptions
	opts.Apply(opt)

	g := &Gate{
		sender:    sender,
		store:     store,
		threshold: threshold,
		clock:     opts.Clock,
		retry:     opts.Retry,
		notify:    opts.Notifiers,
		log:       log.Wrap(opts.Logger),
	}
	if g.clock == nil {
		g.clock = wallclock.Instance
	}
	if g.retry == nil {
		g.retry = &retry.ExponentialBackoff{MaxAttempts: 1}
	}
	return g
}

// State returns the gate's view of the last delivery, loading it from the
// store on first use.
func (g *Gate) State(ctx context.Context) State {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.load(ctx)
	return State{
		LastAggregate: g.state.LastAggregate.Clone(),
		LastSentTime:  g.state.LastSentTime,
	}
}

// Process delivers the aggregate if the policy calls for it. On failure the
// recorded state is left untouched so the next cycle compares against the
// same last delivery.
func (g *Gate) Process(ctx context.Context, res window.Result) (Outcome, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.load(ctx)

	now := g.clock.Now()
	decision := Decide(res, g.state, now, g.threshold)
	if decision == DecisionSkip {
		g.log.Log(ctx, slog.LevelInfo, "aggregate unchanged; delivery skipped",
			slog.Time("last_sent", g.state.LastSentTime),
		)
		return Outcome{Decision: decision}, nil
	}

	err := g.retry.Start(ctx, "deliver", func(ctx context.Context) (bool, error) {
		err := g.sender.Deliver(ctx, res)
		return IsRetryable(err), err
	})
	if err != nil {
		return Outcome{Decision: decision}, err
	}

	sentAt := g.clock.Now()
	g.state = State{LastAggregate: res.Clone(), LastSentTime: sentAt}
	g.log.Log(ctx, slog.LevelInfo, "aggregate delivered",
		slog.String("reason", string(decision)),
		slog.Int("devices", len(res)),
	)

	if err := g.store.SaveLastTime(ctx, sentAt); err != nil {
		g.log.Err(ctx, err)
	}
	if err := g.store.SaveLastAggregate(ctx, res); err != nil {
		g.log.Err(ctx, err)
	}

	for _, n := range g.notify {
		if err := n.Notify(ctx, res, sentAt); err != nil {
			g.log.ErrLevel(ctx, slog.LevelWarn, err)
		}
	}

	return Outcome{Decision: decision, Delivered: true}, nil
}

// The caller holds the lock.
func (g *Gate) load(ctx context.Context) {
	if g.loaded {
		return
	}
	g.loaded = true

	if t, ok := g.store.LoadLastTime(ctx); ok {
		g.state.LastSentTime = t
	}
	if res, ok := g.store.LoadLastAggregate(ctx); ok {
		g.state.LastAggregate = res
	}

	g.log.Log(ctx, slog.LevelDebug, "delivery state loaded",
		slog.Bool("has_last_time", !g.state.LastSentTime.IsZero()),
		slog.Bool("has_last_aggregate", g.state.LastAggregate != nil),
	)
}
