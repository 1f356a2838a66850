// Queuewatch - Queue Position Tracking and ETA Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/queuewatch

package transport

import (
	"context"
	"errors"

	"github.com/tomtom215/queuewatch/internal/idle"
)

var (
	// ErrNotConnected is returned by writes on a closed connection.
	ErrNotConnected = errors.New("transport: not connected")

	// ErrHandshakeTimeout is returned when the relay never sends login.
	ErrHandshakeTimeout = errors.New("transport: login handshake timed out")

	// ErrKicked is passed to OnDisconnect when the server ended the session.
	ErrKicked = errors.New("transport: kicked by server")
)

// Listener receives inbound signals. Nil callbacks are skipped.
type Listener struct {
	OnStatus     func(payload []byte)
	OnChat       func(payload []byte)
	OnConsumer   func(attached bool)
	OnDisconnect func(err error)
}

// Conn is a live relay session.
type Conn interface {
	idle.Controller

	// Start begins delivering inbound frames to the Listener. Frames that
	// arrive earlier wait in the socket buffer.
	Start()

	// Close releases the connection. A started connection still reports
	// OnDisconnect once, with a nil cause.
	Close() error
}

// Dialer opens relay sessions.
type Dialer interface {
	Dial(ctx context.Context, l Listener) (Conn, error)
}
