// Queuewatch - Queue Position Tracking and ETA Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/queuewatch

/*
Package models defines the data structures shared across Queuewatch.

Queue Data:
  - QueueSample: one observed queue position, estimator-internal
  - CompletedSession: an immutable record of one finished or abandoned queue session
  - QueueHistoryPoint: one point of the dashboard chart series

Lifecycle Data:
  - LifecycleState: idle, authenticating, queueing, connected, reconnecting, stopped
  - Snapshot: the full observable state pushed with every stateChange event
  - QueueUpdate: the payload of a queueUpdate event
  - LogEntry: the payload of a log event

API Data:
  - APIResponse, APIError, Metadata: the standard HTTP response envelope

Models carry no behavior beyond small derived accessors. The history package
owns CompletedSession values; the lifecycle package owns Snapshot.
*/
package models
