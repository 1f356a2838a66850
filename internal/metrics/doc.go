// Queuewatch - Queue Position Tracking and ETA Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/queuewatch

/*
Package metrics provides Prometheus metrics for Queuewatch.

All collectors are registered on the default registry through promauto and
exposed at /metrics by the HTTP API:

	curl http://localhost:8730/metrics

# Available Metrics

Queue:
  - queuewatch_queue_position: last observed position
  - queuewatch_queue_eta_minutes: blended ETA
  - queuewatch_parse_failures_total: status payloads without a position

Lifecycle:
  - queuewatch_lifecycle_state{state}: 1 for the current state
  - queuewatch_lifecycle_transitions_total{from_state,to_state}
  - queuewatch_reconnects_total, queuewatch_relogs_total

Sessions:
  - queuewatch_sessions_recorded_total{outcome}
  - queuewatch_sessions_rejected_total{reason}
  - queuewatch_history_writes_total{backend,result}

Transport and resilience:
  - queuewatch_transport_frames_total{direction,type}
  - circuit_breaker_state{name}, circuit_breaker_requests_total{name,result}

Fan-out:
  - queuewatch_events_published_total{type}, queuewatch_events_dropped_total{subscriber}
  - websocket_connections, websocket_messages_sent_total
  - api_requests_total, api_request_duration_seconds
*/
package metrics
