// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package scan

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/henskjold73/hydropi/internal/wallclock"
	"gopkg.in/yaml.v3"
)

type (
	// Recording is a captured sequence of advertisements.
	Recording struct {
		// Interval is the gap between emitted advertisements.
		Interval time.Duration `yaml:"interval"`

		// Loop restarts the recording once it is exhausted.
		Loop bool `yaml:"loop"`

		Advertisements []RecordedAdvertisement `yaml:"advertisements"`
	}

	// RecordedAdvertisement is one advertisement with a hex-encoded payload.
	RecordedAdvertisement struct {
		ManufacturerID uint16 `yaml:"manufacturer_id"`
		Payload        string `yaml:"payload"`
		Address        string `yaml:"address"`
		RSSI           int16  `yaml:"rssi"`
	}

	// Replay is a Scanner that re-emits a recording, for running without a
	// radio.
	Replay struct {
		rec   Recording
		ads   []Advertisement
		clock wallclock.WallClock

		mu   sync.Mutex
		stop context.CancelFunc
		done chan struct{}
	}
)

// LoadRecording reads a YAML recording from disk.
func LoadRecording(path string) (Recording, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Recording{}, err
	}

	var rec Recording
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return Recording{}, fmt.Errorf("%s: %w", path, err)
	}
	return rec, nil
}

// NewReplay creates a replay scanner. A nil clock uses the wall clock. A
// looping recording without an interval is paced at one advertisement per
// second.
func NewReplay(rec Recording, clock wallclock.WallClock) (*Replay, error) {
	if clock == nil {
		clock = wallclock.Instance
	}
	if rec.Loop && rec.Interval <= 0 {
		rec.Interval = time.Second
	}

	ads := make([]Advertisement, 0, len(rec.Advertisements))
	for i, ra := range rec.Advertisements {
		payload, err := hex.DecodeString(ra.Payload)
		if err != nil {
			return nil, fmt.Errorf("advertisement %d: %w", i, err)
		}
		ads = append(ads, Advertisement{
			ManufacturerID: ra.ManufacturerID,
			Payload:        payload,
			Address:        ra.Address,
			RSSI:           ra.RSSI,
		})
	}

	return &Replay{rec: rec, ads: ads, clock: clock}, nil
}

// Start emits the recording in the background until it is exhausted, Stop
// is called or the context ends.
func (r *Replay) Start(ctx context.Context, handler Handler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stop != nil {
		return ErrRunning
	}

	ctx, r.stop = context.WithCancel(ctx)
	r.done = make(chan struct{})
	go r.run(ctx, handler, r.done)
	return nil
}

// Stop ends the replay and waits for the emitter to exit.
func (r *Replay) Stop() error {
	r.mu.Lock()
	stop, done := r.stop, r.done
	r.stop, r.done = nil, nil
	r.mu.Unlock()

	if stop == nil {
		return ErrNotRunning
	}
	stop()
	<-done
	return nil
}

func (r *Replay) run(ctx context.Context, handler Handler, done chan struct{}) {
	defer close(done)

	if len(r.ads) == 0 {
		return
	}

	for {
		for _, ad := range r.ads {
			if ctx.Err() != nil {
				return
			}

			ad.Payload = append([]byte(nil), ad.Payload...)
			ad.ReceivedAt = r.clock.Now()
			handler(ad)

			if r.rec.Interval > 0 {
				t := r.clock.NewTimer(r.rec.Interval)
				select {
				case <-ctx.Done():
					t.Stop()
					return
				case <-t.C():
				}
			}
		}
		if !r.rec.Loop {
			return
		}
	}
}
