// Queuewatch - Queue Position Tracking and ETA Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/queuewatch

package clock

import (
	"testing"
	"time"
)

var epoch = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func TestFakeClock_AdvanceFiresInDeadlineOrder(t *testing.T) {
	t.Parallel()

	c := NewFake(epoch)
	var order []string
	c.AfterFunc(3*time.Second, func() { order = append(order, "c") })
	c.AfterFunc(1*time.Second, func() { order = append(order, "a") })
	c.AfterFunc(2*time.Second, func() { order = append(order, "b") })
	c.AfterFunc(10*time.Second, func() { order = append(order, "late") })

	c.Advance(5 * time.Second)

	if got := len(order); got != 3 {
		t.Fatalf("expected 3 callbacks, got %d (%v)", got, order)
	}
	if order[0] != "a" || order[1] != "b" || order[2] != "c" {
		t.Errorf("unexpected order %v", order)
	}
	if c.PendingCount() != 1 {
		t.Errorf("expected 1 pending timer, got %d", c.PendingCount())
	}
	if !c.Now().Equal(epoch.Add(5 * time.Second)) {
		t.Errorf("unexpected now %v", c.Now())
	}
}

func TestFakeClock_StopPreventsCallback(t *testing.T) {
	t.Parallel()

	c := NewFake(epoch)
	fired := false
	timer := c.AfterFunc(time.Second, func() { fired = true })

	if !timer.Stop() {
		t.Error("expected first Stop to report true")
	}
	if timer.Stop() {
		t.Error("expected second Stop to report false")
	}
	c.Advance(time.Minute)
	if fired {
		t.Error("stopped timer fired")
	}
	if c.PendingCount() != 0 {
		t.Errorf("expected no pending timers, got %d", c.PendingCount())
	}
}

func TestFakeClock_ChainedCallbacksFireWithinWindow(t *testing.T) {
	t.Parallel()

	c := NewFake(epoch)
	var ticks []time.Time
	var schedule func()
	schedule = func() {
		c.AfterFunc(10*time.Second, func() {
			ticks = append(ticks, c.Now())
			schedule()
		})
	}
	schedule()

	c.Advance(35 * time.Second)

	if len(ticks) != 3 {
		t.Fatalf("expected 3 ticks, got %d", len(ticks))
	}
	for i, tick := range ticks {
		want := epoch.Add(time.Duration(i+1) * 10 * time.Second)
		if !tick.Equal(want) {
			t.Errorf("tick %d at %v, want %v", i, tick, want)
		}
	}
}

func TestFakeClock_StopAfterFire(t *testing.T) {
	t.Parallel()

	c := NewFake(epoch)
	timer := c.AfterFunc(time.Second, func() {})
	c.Advance(time.Second)
	if timer.Stop() {
		t.Error("expected Stop after fire to report false")
	}
}

func TestFakeClock_SetBackwards(t *testing.T) {
	t.Parallel()

	c := NewFake(epoch)
	fired := false
	c.AfterFunc(time.Second, func() { fired = true })
	c.Set(epoch.Add(-time.Hour))
	if fired {
		t.Error("moving backwards must not fire timers")
	}
	if !c.Now().Equal(epoch.Add(-time.Hour)) {
		t.Errorf("unexpected now %v", c.Now())
	}
}

func TestRealClock(t *testing.T) {
	t.Parallel()

	c := Real()
	done := make(chan struct{})
	c.AfterFunc(time.Millisecond, func() { close(done) })
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("real clock callback did not fire")
	}
	if c.Now().IsZero() {
		t.Error("expected non-zero time")
	}
}
