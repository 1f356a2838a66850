// Queuewatch - Queue Position Tracking and ETA Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/queuewatch

/*
Package lifecycle drives one queue run: connect, watch the queue position,
finish or reconnect.

# States

	idle --Start--> authenticating --login--> queueing --finish marker--> connected
	  ^                   |                      |                          |
	  |                   +------ disconnect ----+--------------------------+
	  |                                          v
	  +---- auto-restart off or Stop ------ reconnecting --delay--> authenticating
	                                             |
	                                             +--run budget spent--> stopped

Every transition publishes a stateChange event. Position changes publish
queueUpdate; the finish marker publishes queueFinished; the run budget
publishes stopped.

# Signals

Status payloads are flattened and scanned for "position in queue: N". The
first position of a connection begins an estimator session and every later
one is recorded as a live sample. Repeated identical readings are recorded
but publish nothing.

Completion is confirmed only by a finish marker in chat or status text. A
position of 0 is treated like any other reading, because servers report it
transiently before granting entry.

# Variants

The collector variant proactively disconnects and requeues once per session
when the position reaches RelogThreshold, saving the partial session first,
so long runs gather timing data without ever consuming a slot. The
interactive variant sends one notification per session at NotifyThreshold.

# Concurrency

Every reaction (transport callback, timer, command) runs under the engine
mutex. Dialing runs outside it and reports back as a reaction. Each dial
attempt gets a new generation; callbacks and timers from an older
generation are ignored, which also makes a second disconnect notification
for the same connection a no-op.
*/
package lifecycle
