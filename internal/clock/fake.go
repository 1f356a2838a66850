// Queuewatch - Queue Position Tracking and ETA Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/queuewatch

package clock

import (
	"sync"
	"time"
)

// FakeClock is a deterministic Clock. Time stands still until Advance or Set
// is called. It is safe for concurrent use.
//
// Callbacks run synchronously in the goroutine calling Advance, one at a time
// and in deadline order. While a callback runs, Now reports that callback's
// deadline, so a callback that schedules a follow-up inside the advanced
// window sees it fire within the same Advance call.
type FakeClock struct {
	mu      sync.Mutex
	current time.Time
	seq     uint64
	waiters []*fakeWaiter
}

type fakeWaiter struct {
	deadline time.Time
	seq      uint64
	callback func()
	stopped  bool
	fired    bool
}

// NewFake returns a FakeClock initialized to t.
func NewFake(t time.Time) *FakeClock {
	return &FakeClock{current: t}
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// AfterFunc registers f to run once the clock reaches now+d. A non-positive d
// still waits for the next Advance, so callers never re-enter themselves.
func (c *FakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	if d < 0 {
		d = 0
	}
	c.seq++
	w := &fakeWaiter{deadline: c.current.Add(d), seq: c.seq, callback: f}
	c.waiters = append(c.waiters, w)
	return &fakeTimer{clock: c, waiter: w}
}

type fakeTimer struct {
	clock  *FakeClock
	waiter *fakeWaiter
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.waiter.stopped || t.waiter.fired {
		return false
	}
	t.waiter.stopped = true
	return true
}

// Advance moves the clock forward by d, running every callback whose
// deadline falls inside the window.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.current.Add(d)
	c.mu.Unlock()
	c.advanceTo(target)
}

// Set moves the clock to t. Moving backwards only changes Now.
func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	if !t.After(c.current) {
		c.current = t
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()
	c.advanceTo(t)
}

func (c *FakeClock) advanceTo(target time.Time) {
	for {
		c.mu.Lock()
		next := c.popExpiredLocked(target)
		if next == nil {
			c.current = target
			c.mu.Unlock()
			return
		}
		if next.deadline.After(c.current) {
			c.current = next.deadline
		}
		next.fired = true
		c.mu.Unlock()

		next.callback()
	}
}

// popExpiredLocked removes and returns the earliest live waiter due at or
// before target, dropping stopped waiters along the way.
func (c *FakeClock) popExpiredLocked(target time.Time) *fakeWaiter {
	idx := -1
	live := c.waiters[:0]
	for _, w := range c.waiters {
		if w.stopped {
			continue
		}
		live = append(live, w)
	}
	c.waiters = live

	for i, w := range c.waiters {
		if w.deadline.After(target) {
			continue
		}
		if idx < 0 || w.deadline.Before(c.waiters[idx].deadline) ||
			(w.deadline.Equal(c.waiters[idx].deadline) && w.seq < c.waiters[idx].seq) {
			idx = i
		}
	}
	if idx < 0 {
		return nil
	}
	w := c.waiters[idx]
	c.waiters = append(c.waiters[:idx], c.waiters[idx+1:]...)
	return w
}

// PendingCount returns the number of timers that are neither stopped nor fired.
func (c *FakeClock) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, w := range c.waiters {
		if !w.stopped && !w.fired {
			n++
		}
	}
	return n
}
