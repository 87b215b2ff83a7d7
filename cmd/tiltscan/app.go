// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package main

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/henskjold73/hydropi/config"
	"github.com/henskjold73/hydropi/cycle"
	"github.com/henskjold73/hydropi/delivery"
	"github.com/henskjold73/hydropi/internal/log"
	"github.com/henskjold73/hydropi/retry"
	"github.com/henskjold73/hydropi/scan"
	"github.com/henskjold73/hydropi/scan/ble"
	"github.com/henskjold73/hydropi/statestore"
	"github.com/henskjold73/hydropi/status"
	"github.com/henskjold73/hydropi/telemetry"
)

// Application holds the wired components of the scanner process.
type Application struct {
	runner    *cycle.Runner
	status    *status.Server
	publisher *telemetry.Publisher
	log       *slog.Logger
}

// NewApplication wires the components described by the configuration.
func NewApplication(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
) (*Application, error) {
	l := log.Wrap(logger)
	l.Struct(ctx, "configuration", cfg)

	app := &Application{log: logger}

	store := statestore.NewFileStore(
		cfg.State.Dir,
		statestore.WithLogger(logger),
	)

	timeout := cfg.Delivery.Timeout.Duration()
	client := delivery.NewClient(
		delivery.Endpoint{
			URL:          cfg.Delivery.URL,
			TenantID:     cfg.Delivery.TenantID,
			APIKey:       cfg.Delivery.APIKey,
			APIKeyHeader: cfg.Delivery.APIKeyHeader,
		},
		delivery.WithHTTPClient{Client: &http.Client{Timeout: timeout}},
		delivery.WithLogger(logger),
	)

	gateOpts := []delivery.GateOption{
		delivery.WithRetry{Policy: &retry.ExponentialBackoff{
			MaxAttempts: cfg.Delivery.Attempts,
			Timeout:     timeout,
			Logger:      logger,
		}},
		delivery.WithLogger(logger),
	}

	if cfg.MQTT.Broker != "" {
		pub, err := telemetry.New(
			cfg.MQTT.Broker,
			cfg.MQTT.Topic,
			telemetry.WithLogger(logger),
		)
		if err != nil {
			return nil, err
		}
		app.publisher = pub
		gateOpts = append(gateOpts, delivery.WithNotifier{Notifier: pub})
	}

	gate := delivery.NewGate(
		client,
		store,
		cfg.Delivery.ResendAfter.Duration(),
		gateOpts...,
	)

	scanner, err := newScanner(cfg.Scan, logger)
	if err != nil {
		return nil, err
	}

	app.runner = cycle.New(scanner, gate, cycle.Config{
		Window:          cfg.Scan.Window.Duration(),
		Interval:        cfg.Scan.Interval.Duration(),
		DeliveryTimeout: timeout,
		ManufacturerID:  cfg.Scan.ManufacturerID,
	}, cycle.WithLogger(logger))

	if cfg.Status.Addr != "" {
		app.status = status.New(
			cfg.Status.Addr,
			store,
			status.WithLogger(logger),
		)
	}

	return app, nil
}

// Run runs the scan loop, and the status server if configured, until the
// context is cancelled. A failing status server is logged and does not stop
// the scan loop.
func (a *Application) Run(ctx context.Context) error {
	if a.status != nil {
		go func() {
			if err := a.status.Run(ctx); err != nil {
				a.log.Error("status server stopped", "error", err)
			}
		}()
	}
	return a.runner.Run(ctx)
}

// Close releases network resources.
func (a *Application) Close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.log.Warn("mqtt disconnect failed", "error", err)
		}
	}
}

func newScanner(cfg config.Scan, logger *slog.Logger) (scan.Scanner, error) {
	switch cfg.Source {
	case config.SourceReplay:
		rec, err := scan.LoadRecording(cfg.ReplayFile)
		if err != nil {
			return nil, err
		}
		return scan.NewReplay(rec, nil)
	default:
		return ble.New(ble.WithLogger(logger)), nil
	}
}
