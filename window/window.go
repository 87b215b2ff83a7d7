// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Package window accumulates tilt readings over one scan window and
// summarizes them per device.
package window

import (
	"maps"
	"math"
	"sync"

	"github.com/henskjold73/hydropi/tilt"
	"gonum.org/v1/gonum/stat"
)

type (
	// Accumulator collects the readings of a single scan window. It is safe
	// for concurrent use since scan callbacks may arrive on any goroutine.
	Accumulator struct {
		mu      sync.Mutex
		devices map[string]*samples
	}

	samples struct {
		color   tilt.Color
		gravity []float64
		tempC   []float64
	}

	// Summary holds the statistics of one device over a window.
	Summary struct {
		Color         tilt.Color `json:"color"`
		AvgGravity    float64    `json:"avg_gravity"`
		AvgTempC      float64    `json:"avg_temp_c"`
		GravityStdDev float64    `json:"gravity_stddev"`
		TempStdDev    float64    `json:"temp_stddev"`
	}

	// Result maps a device fingerprint to its window summary.
	Result map[string]Summary
)

// New begins a window.
func New() *Accumulator {
	return &Accumulator{devices: map[string]*samples{}}
}

// Record adds a reading to the window. Readings without a resolved color are
// ignored.
func (a *Accumulator) Record(r tilt.Reading) {
	if r.Color == "" || r.Color == tilt.ColorUnknown {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	s, ok := a.devices[r.Fingerprint]
	if !ok {
		s = &samples{color: r.Color}
		a.devices[r.Fingerprint] = s
	}
	s.gravity = append(s.gravity, r.Gravity)
	s.tempC = append(s.tempC, r.TempC)
}

// Len returns the number of readings recorded so far.
func (a *Accumulator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	var n int
	for _, s := range a.devices {
		n += len(s.gravity)
	}
	return n
}

// Finalize summarizes the window. It does not modify the accumulator, so
// repeated calls return equal results. Devices whose statistics cannot be
// computed are left out.
func (a *Accumulator) Finalize() Result {
	a.mu.Lock()
	defer a.mu.Unlock()

	res := make(Result, len(a.devices))
	for fp, s := range a.devices {
		if sum, ok := s.summarize(); ok {
			res[fp] = sum
		}
	}
	return res
}

func (s *samples) summarize() (Summary, bool) {
	if len(s.gravity) == 0 || len(s.tempC) == 0 {
		return Summary{}, false
	}

	avgGravity, gravityStdDev := meanStdDev(s.gravity)
	avgTempC, tempStdDev := meanStdDev(s.tempC)

	sum := Summary{
		Color:         s.color,
		AvgGravity:    tilt.Round(avgGravity, 3),
		AvgTempC:      tilt.Round(avgTempC, 1),
		GravityStdDev: gravityStdDev,
		TempStdDev:    tempStdDev,
	}
	for _, v := range []float64{
		sum.AvgGravity, sum.AvgTempC, sum.GravityStdDev, sum.TempStdDev,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Summary{}, false
		}
	}
	return sum, true
}

// meanStdDev returns the mean and the sample standard deviation, which is
// zero for a single sample.
func meanStdDev(x []float64) (mean, std float64) {
	if len(x) == 1 {
		return x[0], 0
	}
	return stat.MeanStdDev(x, nil)
}

// Equal reports whether two results hold the same devices with identical
// summaries.
func (r Result) Equal(other Result) bool {
	return maps.Equal(r, other)
}

// Clone returns a copy of the result.
func (r Result) Clone() Result {
	if r == nil {
		return nil
	}
	return maps.Clone(r)
}
