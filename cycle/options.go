// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package cycle

import (
	"log/slog"

	"github.com/henskjold73/hydropi/internal/wallclock"
)

type (
	// Option represents a single option for the runner.
	Option interface{ runner(*Options) }

	// Options are the resolved options for the runner.
	Options struct {
		Clock  wallclock.WallClock
		Logger *slog.Logger
	}

	// WithClock sets the clock pacing the loop.
	WithClock struct{ wallclock.WallClock }

	// This option is not used directly; see WithLogger below.
	withLogger struct{ *slog.Logger }
)

// Apply resolves the provided list of options.
func (o *Options) Apply(opts []Option, rest ...Option) {
	for _, opt := range opts {
		if opt != nil {
			opt.runner(o)
		}
	}
	for _, opt := range rest {
		if opt != nil {
			opt.runner(o)
		}
	}
}

func (o *Options) runner(opt *Options) {
	if o != nil {
		*opt = *o
	}
}

func (o WithClock) runner(opt *Options) {
	opt.Clock = o.WallClock
}

// WithLogger enables logging with the provided slog logger.
func WithLogger(logger *slog.Logger) Option {
	return withLogger{logger}
}

func (o withLogger) runner(opt *Options) {
	opt.Logger = o.Logger
}
