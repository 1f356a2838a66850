// Queuewatch - Queue Position Tracking and ETA Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/queuewatch

/*
Package websocket streams lifecycle events to dashboard clients.

A Hub owns the set of connected clients and fans every event from the
events bus out to them. Each Client runs a read pump (application pings,
close detection) and a write pump (queued messages, protocol pings) over a
gorilla/websocket connection.

Messages are JSON objects:

	{"type": "queueUpdate", "time": "2026-03-18T12:00:00Z", "data": {"position": 42, ...}}

The type is the lifecycle event type (stateChange, queueUpdate,
queueFinished, stopped, log) or pong. data holds the snapshot, update or
log entry and is null for queueFinished and stopped. When a snapshot
source is set, every client is greeted with a stateChange carrying the
current snapshot.

Usage:

	hub := websocket.NewHub()
	hub.SetSnapshotSource(engine.Snapshot)
	unsubscribe := hub.Attach(bus)
	defer unsubscribe()
	go hub.RunWithContext(ctx)

Broadcasts never block the publisher. A full hub queue drops the message
and a client whose send buffer is full is disconnected; both are counted
in websocket_errors_total.
*/
package websocket
