// Queuewatch - Queue Position Tracking and ETA Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/queuewatch

/*
Package idle keeps a connected session from being dropped for inactivity
while no operator is attached.

The Scheduler runs five independent repeating tasks against a Controller:

	Task   Multiplier  Action
	look   1           turn to a random yaw and pitch
	move   2           hold one movement control briefly
	jump   3           tap jump
	swing  4           swing (a generic "ping" action)
	sneak  6           toggle the sneak stance

Each task waits Unit × multiplier plus up to JitterFraction of that again,
acts, then computes its own next delay, so the combined activity has no
fixed period.

Movement is bounded to a radius of MaxDrift around the position
recorded at Start: once outside it, the move task steers back toward the
origin instead of picking a random direction, and every random move is
followed by a drift check that forces the same return.

Stop cancels every pending task and releases every control to neutral. It
ignores controller errors because the connection may already be gone.
*/
package idle
