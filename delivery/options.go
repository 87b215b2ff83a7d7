// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package delivery

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/henskjold73/hydropi/internal/wallclock"
	"github.com/henskjold73/hydropi/retry"
)

type (
	// GateOption represents a single option for the gate.
	GateOption interface{ gate(*GateOptions) }

	// GateOptions are the resolved options for the gate.
	GateOptions struct {
		Clock     wallclock.WallClock
		Retry     retry.Policy
		Notifiers []Notifier
		Logger    *slog.Logger
	}

	// ClientOption represents a single option for the client.
	ClientOption interface{ client(*ClientOptions) }

	// ClientOptions are the resolved options for the client.
	ClientOptions struct {
		HTTPClient *http.Client
		Logger     *slog.Logger
	}

	// WithClock sets the clock used to timestamp deliveries.
	WithClock struct{ wallclock.WallClock }

	// WithRetry sets the policy used to retry a failed delivery within one
	// cycle.
	WithRetry struct{ retry.Policy }

	// WithNotifier adds a notifier called after each successful delivery.
	WithNotifier struct{ Notifier }

	// WithHTTPClient sets the HTTP client used for delivery requests.
	WithHTTPClient struct{ *http.Client }

	// This option is not used directly; see WithLogger below.
	withLogger struct{ *slog.Logger }
)

// Apply resolves the provided list of options.
func (o *GateOptions) Apply(opts []GateOption, rest ...GateOption) {
	for _, opt := range slices.Concat(opts, rest) {
		if opt != nil {
			opt.gate(o)
		}
	}
}

func (o *GateOptions) gate(opt *GateOptions) {
	if o != nil {
		*opt = *o
	}
}

// Apply resolves the provided list of options.
func (o *ClientOptions) Apply(opts []ClientOption, rest ...ClientOption) {
	for _, opt := range slices.Concat(opts, rest) {
		if opt != nil {
			opt.client(o)
		}
	}
}

func (o *ClientOptions) client(opt *ClientOptions) {
	if o != nil {
		*opt = *o
	}
}

func (o WithClock) gate(opt *GateOptions) {
	opt.Clock = o.WallClock
}

func (o WithRetry) gate(opt *GateOptions) {
	opt.Retry = o.Policy
}

func (o WithNotifier) gate(opt *GateOptions) {
	if o.Notifier != nil {
		opt.Notifiers = append(opt.Notifiers, o.Notifier)
	}
}

func (o WithHTTPClient) client(opt *ClientOptions) {
	opt.HTTPClient = o.Client
}

// WithLogger enables logging with the provided slog logger.
func WithLogger(logger *slog.Logger) interface {
	GateOption
	ClientOption
} {
	return withLogger{logger}
}

func (o withLogger) gate(opt *GateOptions) {
	opt.Logger = o.Logger
}

func (o withLogger) client(opt *ClientOptions) {
	opt.Logger = o.Logger
}
