// Queuewatch - Queue Position Tracking and ETA Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/queuewatch

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/queuewatch/internal/events"
	"github.com/tomtom215/queuewatch/internal/logging"
)

// EventForwarder is satisfied by *events.Forwarder.
type EventForwarder interface {
	Run(ctx context.Context, bus *events.Bus) error
}

// ForwarderService republishes bus events to NATS while it runs.
type ForwarderService struct {
	forwarder EventForwarder
	bus       *events.Bus
	name      string
}

// NewForwarderService wraps forwarder.
func NewForwarderService(forwarder EventForwarder, bus *events.Bus) *ForwarderService {
	return &ForwarderService{
		forwarder: forwarder,
		bus:       bus,
		name:      "nats-forwarder",
	}
}

// Serve implements suture.Service.
func (f *ForwarderService) Serve(ctx context.Context) error {
	return f.forwarder.Run(ctx, f.bus)
}

// String implements fmt.Stringer for suture's logs.
func (f *ForwarderService) String() string {
	return f.name
}

// NATSServer is satisfied by *events.EmbeddedServer.
type NATSServer interface {
	IsRunning() bool
	Shutdown(ctx context.Context) error
}

// EmbeddedNATSService watches an already started embedded server and shuts
// it down with the tree. The server cannot be restarted in place, so an
// unexpected stop is reported once and not retried.
type EmbeddedNATSService struct {
	server          NATSServer
	checkInterval   time.Duration
	shutdownTimeout time.Duration
	name            string
}

// NewEmbeddedNATSService wraps server.
func NewEmbeddedNATSService(server NATSServer, shutdownTimeout time.Duration) *EmbeddedNATSService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &EmbeddedNATSService{
		server:          server,
		checkInterval:   5 * time.Second,
		shutdownTimeout: shutdownTimeout,
		name:            "nats-server",
	}
}

// Serve implements suture.Service.
func (n *EmbeddedNATSService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(n.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), n.shutdownTimeout)
			defer cancel()
			if err := n.server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("embedded NATS shutdown failed: %w", err)
			}
			return ctx.Err()

		case <-ticker.C:
			if !n.server.IsRunning() {
				logging.Error().Msg("Embedded NATS server stopped unexpectedly")
				return suture.ErrDoNotRestart
			}
		}
	}
}

// String implements fmt.Stringer for suture's logs.
func (n *EmbeddedNATSService) String() string {
	return n.name
}
