// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Package scan defines the boundary to the wireless advertisement source.
package scan

import (
	"context"
	"errors"
	"time"
)

type (
	// Advertisement is one manufacturer-data element of a received broadcast.
	Advertisement struct {
		ManufacturerID uint16
		Payload        []byte
		ReceivedAt     time.Time
		Address        string
		RSSI           int16
	}

	// Handler receives advertisements while a scan is active. It may be
	// called from any goroutine.
	Handler func(Advertisement)

	// Scanner is a startable and stoppable source of advertisements.
	Scanner interface {
		// Start begins delivering advertisements to the handler. It returns
		// once the scan is running.
		Start(ctx context.Context, handler Handler) error

		// Stop ends the scan. No handler calls start after Stop returns.
		Stop() error
	}
)

var (
	ErrRunning    = errors.New("scan already running")
	ErrNotRunning = errors.New("scan not running")
)
