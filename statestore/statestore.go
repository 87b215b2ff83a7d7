// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Package statestore persists what was last delivered, so delivery gating
// survives a process restart.
package statestore

import (
	"context"
	"log/slog"
	"time"

	"github.com/henskjold73/hydropi/window"
)

type (
	// Store records the last delivered aggregate and the time of the last
	// successful delivery. The two records are independent: failing to save
	// one never corrupts the other. Loads report ok=false when the record is
	// absent or unreadable.
	Store interface {
		LoadLastTime(ctx context.Context) (t time.Time, ok bool)
		SaveLastTime(ctx context.Context, t time.Time) error
		LoadLastAggregate(ctx context.Context) (res window.Result, ok bool)
		SaveLastAggregate(ctx context.Context, res window.Result) error
	}

	// Option represents a single option for a store.
	Option interface{ store(*Options) }

	// Options are the resolved options for a store.
	Options struct {
		Logger *slog.Logger
	}

	// This option is not used directly; see WithLogger below.
	withLogger struct{ *slog.Logger }
)

// Apply resolves the provided list of options.
func (o *Options) Apply(opts []Option, rest ...Option) {
	for _, opt := range opts {
		if opt != nil {
			opt.store(o)
		}
	}
	for _, opt := range rest {
		if opt != nil {
			opt.store(o)
		}
	}
}

func (o *Options) store(opt *Options) {
	if o != nil {
		*opt = *o
	}
}

// WithLogger enables logging with the provided slog logger.
func WithLogger(logger *slog.Logger) Option {
	return withLogger{logger}
}

func (o withLogger) store(opt *Options) {
	opt.Logger = o.Logger
}
