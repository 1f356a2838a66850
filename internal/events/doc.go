// Queuewatch - Queue Position Tracking and ETA Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/queuewatch

/*
Package events carries lifecycle notifications from the engine to its
observers.

The lifecycle engine publishes five event types:

  - stateChange: a full models.Snapshot after any observable change
  - queueUpdate: a new queue position with its ETA
  - queueFinished: the finish marker was seen
  - stopped: the run-duration budget was spent
  - log: a human-readable lifecycle message

# Bus

Bus fans events out to named subscribers. Each subscriber owns a buffered
queue and a goroutine; Publish never blocks the engine. When a subscriber
falls behind, events for that subscriber are dropped and counted in
queuewatch_events_dropped_total.

	bus := events.NewBus()
	defer bus.Close()

	unsubscribe := bus.Subscribe("websocket", 256, hub.BroadcastEvent)
	defer unsubscribe()

# NATS Forwarding

Forwarder subscribes to the bus and republishes every event on NATS core
subjects through a Watermill publisher:

	queuewatch.events.stateChange
	queuewatch.events.queueUpdate
	...

Publishing runs through a circuit breaker so an unreachable broker costs one
trial call per timeout window. EmbeddedServer starts an in-process nats-server for
single-binary deployments.
*/
package events
