// Queuewatch - Queue Position Tracking and ETA Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/queuewatch

// Package services adapts queuewatch components to suture.Service.
//
// Each wrapper takes a small interface rather than the concrete type, so the
// tests drive it with fakes:
//
//   - HTTPServerService: ListenAndServe with graceful Shutdown
//   - WebSocketHubService: the dashboard hub's RunWithContext
//   - LifecycleService: optional auto-start, Stop on shutdown
//   - HistoryService: final session history flush
//   - ForwarderService: bus to NATS forwarding
//   - EmbeddedNATSService: shutdown and liveness of the in-process server
package services
