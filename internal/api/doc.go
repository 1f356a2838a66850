// Queuewatch - Queue Position Tracking and ETA Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/queuewatch

/*
Package api serves the queuewatch HTTP API on a chi router.

Routes:

	GET  /api/v1/health/live               liveness
	GET  /api/v1/health/ready              readiness (engine and history wired)
	GET  /api/v1/status                    lifecycle snapshot
	GET  /api/v1/queue/history             position chart series for the run
	GET  /api/v1/sessions?limit=N          stored sessions, newest first
	GET  /api/v1/estimate?position=N       blended estimate with breakdown
	POST /api/v1/commands/start
	POST /api/v1/commands/stop
	POST /api/v1/commands/toggle-auto-restart
	POST /api/v1/commands/toggle-idle-prevention
	GET  /api/v1/ws                        dashboard event stream
	GET  /metrics                          Prometheus

Every JSON response uses the models.APIResponse envelope. Errors carry a
stable code: VALIDATION_ERROR for bad query parameters, INVALID_STATE for a
start during a run, SERVICE_UNAVAILABLE for unwired dependencies and
RATE_LIMIT_EXCEEDED from the per-IP limiter.

When security.api_token is set, command routes require
"Authorization: Bearer <token>". Websocket upgrades are checked against
security.cors_origins instead, since browsers cannot attach headers to
them.
*/
package api
