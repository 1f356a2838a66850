// Queuewatch - Queue Position Tracking and ETA Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/queuewatch

/*
Package middleware provides the HTTP middleware used by the queuewatch API.

  - RequestID: reuses or generates X-Request-ID and stores it for logging.Ctx
  - PrometheusMetrics: request count, latency and in-flight gauge, labeled
    by chi route pattern
  - RequireToken: bearer token check for command routes

All three use the http.HandlerFunc shape; the api package adapts them to
chi's func(http.Handler) http.Handler.
*/
package middleware
