// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package scan_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/henskjold73/hydropi/internal/wallclock"
	"github.com/henskjold73/hydropi/scan"
	"github.com/stretchr/testify/require"
)

type collector struct {
	mu  sync.Mutex
	ads []scan.Advertisement
}

func (c *collector) handle(ad scan.Advertisement) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ads = append(c.ads, ad)
}

func (c *collector) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.ads)
}

var start = time.Date(2024, 11, 2, 18, 0, 0, 0, time.UTC)

func TestLoadRecording(t *testing.T) {
	rec, err := scan.LoadRecording("testdata/two_tilts.yaml")
	require.NoError(t, err)

	require.Equal(t, time.Second, rec.Interval)
	require.False(t, rec.Loop)
	require.Len(t, rec.Advertisements, 3)
	require.Equal(t, uint16(76), rec.Advertisements[0].ManufacturerID)
	require.Equal(t, int16(-74), rec.Advertisements[1].RSSI)

	_, err = scan.LoadRecording("testdata/missing.yaml")
	require.Error(t, err)
}

func TestReplay(t *testing.T) {
	rec, err := scan.LoadRecording("testdata/two_tilts.yaml")
	require.NoError(t, err)

	clock := wallclock.NewManual(start)
	r, err := scan.NewReplay(rec, clock)
	require.NoError(t, err)

	var c collector
	require.NoError(t, r.Start(context.Background(), c.handle))
	require.ErrorIs(t, r.Start(context.Background(), c.handle), scan.ErrRunning)

	for want := 1; want <= 3; want++ {
		require.Eventually(t, func() bool { return c.len() == want },
			time.Second, time.Millisecond)
		require.Eventually(t, func() bool { return clock.Waiters() == 1 },
			time.Second, time.Millisecond)
		clock.Advance(time.Second)
	}

	require.NoError(t, r.Stop())
	require.ErrorIs(t, r.Stop(), scan.ErrNotRunning)

	require.Len(t, c.ads, 3)
	require.Equal(t, uint16(76), c.ads[0].ManufacturerID)
	require.Len(t, c.ads[0].Payload, 23)
	require.Equal(t, "DD:34:02:05:1A:2B", c.ads[0].Address)
	require.Equal(t, start, c.ads[0].ReceivedAt)
	require.Equal(t, start.Add(2*time.Second), c.ads[2].ReceivedAt)
}

func TestReplayStopsOnCancel(t *testing.T) {
	rec := scan.Recording{
		Loop: true,
		Advertisements: []scan.RecordedAdvertisement{
			{ManufacturerID: 76, Payload: "0215"},
		},
	}

	clock := wallclock.NewManual(start)
	r, err := scan.NewReplay(rec, clock)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	var c collector
	require.NoError(t, r.Start(ctx, c.handle))

	for i := 0; i < 5; i++ {
		require.Eventually(t, func() bool { return clock.Waiters() == 1 },
			time.Second, time.Millisecond)
		clock.Advance(time.Second)
	}
	cancel()
	require.NoError(t, r.Stop())
	require.GreaterOrEqual(t, c.len(), 5)
}

func TestReplayBadPayload(t *testing.T) {
	_, err := scan.NewReplay(scan.Recording{
		Advertisements: []scan.RecordedAdvertisement{{Payload: "zz"}},
	}, nil)
	require.Error(t, err)
}
