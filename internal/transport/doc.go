// Queuewatch - Queue Position Tracking and ETA Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/queuewatch

/*
Package transport connects Queuewatch to the relay that speaks the target
service's protocol.

The relay exposes the session as JSON frames over a websocket. Inbound:

	{"type":"login"}                                  session authenticated
	{"type":"status","payload":<structured text>}     status or heading line
	{"type":"chat","payload":<structured text>}       chat line
	{"type":"position","x":1.5,"y":64,"z":-3}         own position
	{"type":"consumer","attached":true}               an operator took over
	{"type":"kick","payload":<structured text>}       server closed the session

Outbound:

	{"type":"control","control":"forward","state":true}
	{"type":"look","yaw":90,"pitch":0}
	{"type":"swing"}

Dial returns once the relay sends login, or fails after HandshakeTimeout.
Dial attempts run through a circuit breaker so a relay that is down is not
hammered on every reconnect. Once Conn.Start is called, Listener callbacks
run on the connection's read goroutine; OnDisconnect fires exactly once per
connection.

Conn implements idle.Controller so the idle-prevention scheduler drives the
session directly.
*/
package transport
