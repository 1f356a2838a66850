// Queuewatch - Queue Position Tracking and ETA Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/queuewatch

// Package clock abstracts the time source used by timer-driven components.
//
// The lifecycle engine, idle-prevention scheduler and ETA estimator never call
// time.Now or time.AfterFunc directly. Production code injects Real(); tests
// inject a Fake and move time forward with Advance, which fires pending
// callbacks synchronously in deadline order.
package clock

import "time"

// Clock is the time source.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// AfterFunc calls f after d elapses and returns a handle that can cancel
	// the pending call. The real clock runs f in its own goroutine; the fake
	// clock runs it inside Advance.
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a cancellable pending callback.
type Timer interface {
	// Stop prevents the callback from running. It returns false when the
	// callback already ran or the timer was already stopped.
	Stop() bool
}

// Real returns a Clock backed by the time package.
func Real() Clock {
	return realClock{}
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
