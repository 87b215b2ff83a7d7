// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package ble

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/henskjold73/hydropi/scan"
	"github.com/stretchr/testify/require"
	"tinygo.org/x/bluetooth"
)

// fakeRadio scans until StopScan is called, including a StopScan that
// arrives before Scan runs. Errors queued in enableErrs and
// stopErrs are returned by successive calls before they start succeeding.
type fakeRadio struct {
	mu         sync.Mutex
	enableErrs []error
	stopErrs   []error
	enables    int
	scans      int
	active     int
	stop       chan struct{}
	stopEarly  bool
}

func (f *fakeRadio) Enable() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.enables++
	if len(f.enableErrs) > 0 {
		err := f.enableErrs[0]
		f.enableErrs = f.enableErrs[1:]
		return err
	}
	return nil
}

func (f *fakeRadio) Scan(func(*bluetooth.Adapter, bluetooth.ScanResult)) error {
	f.mu.Lock()
	f.scans++
	if f.stopEarly {
		f.stopEarly = false
		f.mu.Unlock()
		return nil
	}
	f.active++
	stop := make(chan struct{})
	f.stop = stop
	f.mu.Unlock()

	<-stop

	f.mu.Lock()
	f.active--
	f.mu.Unlock()
	return nil
}

func (f *fakeRadio) StopScan() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.stopErrs) > 0 {
		err := f.stopErrs[0]
		f.stopErrs = f.stopErrs[1:]
		return err
	}
	if f.stop == nil {
		// Stopped before the scan loop got going.
		f.stopEarly = true
		return nil
	}
	close(f.stop)
	f.stop = nil
	return nil
}

func (f *fakeRadio) counts() (enables, scans, active int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.enables, f.scans, f.active
}

const (
	waitFor = 2 * time.Second
	tick   = time.Millisecond
)

func newScanner(r radio) *Scanner {
	return &Scanner{adapter: r}
}

func ignore(scan.Advertisement) {}

func TestStartRetriesEnable(t *testing.T) {
	notReady := errors.New("org.bluez not provided")
	r := &fakeRadio{enableErrs: []error{notReady, notReady}}
	s := newScanner(r)
	ctx := context.Background()

	require.ErrorIs(t, s.Start(ctx, ignore), notReady)
	require.ErrorIs(t, s.Start(ctx, ignore), notReady)
	require.NoError(t, s.Start(ctx, ignore))
	require.NoError(t, s.Stop())

	// Once enabled, later scans do not enable again.
	require.NoError(t, s.Start(ctx, ignore))
	require.NoError(t, s.Stop())

	enables, scans, active := r.counts()
	require.Equal(t, 3, enables)
	require.Equal(t, 2, scans)
	require.Zero(t, active)
}

func TestStopFailureKeepsScan(t *testing.T) {
	busy := errors.New("operation in progress")
	r := &fakeRadio{stopErrs: []error{busy}}
	s := newScanner(r)
	ctx := context.Background()

	require.NoError(t, s.Start(ctx, ignore))
	require.Eventually(t, func() bool {
		_, scans, _ := r.counts()
		return scans == 1
	}, waitFor, tick)

	require.ErrorIs(t, s.Stop(), busy)
	require.ErrorIs(t, s.Start(ctx, ignore), scan.ErrRunning)

	require.NoError(t, s.Stop())
	require.ErrorIs(t, s.Stop(), scan.ErrNotRunning)

	_, scans, active := r.counts()
	require.Equal(t, 1, scans)
	require.Zero(t, active)
}

func TestStopAfterScanEnded(t *testing.T) {
	r := &fakeRadio{}
	s := newScanner(r)

	require.NoError(t, s.Start(context.Background(), ignore))
	require.Eventually(t, func() bool {
		_, scans, _ := r.counts()
		return scans == 1
	}, waitFor, tick)

	// The adapter ends the scan by itself; Stop must release it without
	// asking the adapter to stop again.
	require.NoError(t, r.StopScan())
	notScanning := errors.New("not scanning")
	r.mu.Lock()
	r.stopErrs = []error{notScanning}
	r.mu.Unlock()
	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return len(s.done) == 1
	}, waitFor, tick)

	require.NoError(t, s.Stop())
	require.ErrorIs(t, s.Stop(), scan.ErrNotRunning)

	r.mu.Lock()
	require.Equal(t, []error{notScanning}, r.stopErrs)
	r.stopErrs = nil
	r.mu.Unlock()

	require.NoError(t, s.Start(context.Background(), ignore))
	require.NoError(t, s.Stop())
}
