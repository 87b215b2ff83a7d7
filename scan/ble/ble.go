// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Package ble scans for advertisements with the host Bluetooth adapter.
package ble

import (
	"context"
	"log/slog"
	"sync"

	"github.com/henskjold73/hydropi/internal/log"
	"github.com/henskjold73/hydropi/internal/wallclock"
	"github.com/henskjold73/hydropi/scan"
	"tinygo.org/x/bluetooth"
)

type (
	// Scanner is a scan.Scanner backed by a Bluetooth adapter.
	Scanner struct {
		adapter radio
		log     log.Logger

		enabled bool

		mu      sync.Mutex
		handler scan.Handler
		done    chan error
	}

	// Option represents a single option for the scanner.
	Option func(*Scanner)

	// radio is the part of *bluetooth.Adapter the scanner drives.
	radio interface {
		Enable() error
		Scan(callback func(*bluetooth.Adapter, bluetooth.ScanResult)) error
		StopScan() error
	}
)

// WithAdapter selects a specific adapter instead of the default one.
func WithAdapter(adapter *bluetooth.Adapter) Option {
	return func(s *Scanner) { s.adapter = adapter }
}

// WithLogger enables logging with the provided slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scanner) { s.log = log.Wrap(logger) }
}

// New creates a scanner on the default adapter.
func New(opt ...Option) *Scanner {
	s := &Scanner{adapter: bluetooth.DefaultAdapter}
	for _, o := range opt {
		o(s)
	}
	return s
}

// Start enables the adapter if it is not yet enabled and begins a passive
// scan in the background. A failed enable is retried on the next Start, since
// the Bluetooth daemon may still be coming up at boot.
func (s *Scanner) Start(ctx context.Context, handler scan.Handler) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done != nil {
		return scan.ErrRunning
	}
	if !s.enabled {
		if err := s.adapter.Enable(); err != nil {
			return err
		}
		s.enabled = true
		s.log.Log(ctx, slog.LevelInfo, "bluetooth adapter enabled")
	}

	s.handler = handler
	s.done = make(chan error, 1)
	go func(done chan<- error) {
		done <- s.adapter.Scan(s.received)
		close(done)
	}(s.done)

	s.log.Log(ctx, slog.LevelDebug, "bluetooth scan started")
	return nil
}

// Stop ends the scan and waits for the adapter to report it stopped. If the
// adapter refuses to stop, the scan stays registered so a later Stop can
// retry and Start does not launch a second one.
func (s *Scanner) Stop() error {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()

	if done == nil {
		return scan.ErrNotRunning
	}

	select {
	case err := <-done:
		// The scan already ended on its own.
		s.clear(done)
		return err
	default:
	}

	if err := s.adapter.StopScan(); err != nil {
		return err
	}

	// Callbacks take the lock, so wait for the scan to exit without it.
	err := <-done
	s.clear(done)
	return err
}

func (s *Scanner) clear(done chan error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done == done {
		s.done = nil
		s.handler = nil
	}
}

func (s *Scanner) received(_ *bluetooth.Adapter, res bluetooth.ScanResult) {
	s.mu.Lock()
	handler := s.handler
	s.mu.Unlock()

	if handler == nil {
		return
	}

	now := wallclock.Instance.Now()
	for _, md := range res.ManufacturerData() {
		handler(scan.Advertisement{
			ManufacturerID: md.CompanyID,
			Payload:        md.Data,
			ReceivedAt:     now,
			Address:        res.Address.String(),
			RSSI:           res.RSSI,
		})
	}
}
