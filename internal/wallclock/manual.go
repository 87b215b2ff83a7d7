// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package wallclock

import (
	"context"
	"sync"
	"time"
)

type (
	// Manual is a WallClock whose time only moves when Advance is called.
	// Timers fire once the clock has been advanced past their deadline.
	Manual struct {
		mu     sync.Mutex
		now    time.Time
		timers []*manualTimer
	}

	manualTimer struct {
		clock    *Manual
		c        chan time.Time
		deadline time.Time
		active   bool
	}
)

// NewManual creates a manual clock starting at the given time.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Now returns the current manual time.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves the clock forward and fires any timers that have expired.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.now = m.now.Add(d)
	pending := m.timers[:0]
	for _, t := range m.timers {
		if !t.active {
			continue
		}
		if !t.deadline.After(m.now) {
			t.active = false
			t.fire(m.now)
			continue
		}
		pending = append(pending, t)
	}
	m.timers = pending
}

// Set moves the clock to the given time. Moving backwards does not fire
// timers.
func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	d := t.Sub(m.now)
	if d < 0 {
		m.now = t
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()
	m.Advance(d)
}

// Waiters returns the number of timers that have not yet fired.
func (m *Manual) Waiters() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}

// NewTimer creates a timer that fires once the clock passes now+d.
func (m *Manual) NewTimer(d time.Duration) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := &manualTimer{
		clock:    m,
		c:        make(chan time.Time, 1),
		deadline: m.now.Add(d),
		active:   true,
	}
	if d <= 0 {
		t.active = false
		t.fire(m.now)
		return t
	}
	m.timers = append(m.timers, t)
	return t
}

// WithTimeoutCause cancels the returned context once the clock passes
// now+timeout.
func (m *Manual) WithTimeoutCause(
	parent context.Context,
	timeout time.Duration,
	cause error,
) (context.Context, context.CancelFunc) {
	ctx, cancelCause := context.WithCancelCause(parent)

	go func(t Timer) {
		select {
		case <-ctx.Done():
			t.Stop()
		case <-t.C():
			cancelCause(cause)
		}
	}(m.NewTimer(timeout))

	return ctx, func() { cancelCause(nil) }
}

func (t *manualTimer) C() <-chan time.Time {
	return t.c
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()

	wasActive := t.active
	t.active = false
	t.clock.remove(t)
	return wasActive
}

// remove drops a timer from the pending list. The caller holds the lock.
func (m *Manual) remove(t *manualTimer) {
	for i, other := range m.timers {
		if other == t {
			m.timers = append(m.timers[:i], m.timers[i+1:]...)
			return
		}
	}
}

// Channel is buffered by one; a tick nobody drained is dropped like
// time.Timer does.
func (t *manualTimer) fire(now time.Time) {
	select {
	case t.c <- now:
	default:
	}
}
