// Queuewatch - Queue Position Tracking and ETA Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/queuewatch

package api

// DefaultSessionsLimit applies when GET /sessions has no limit.
const DefaultSessionsLimit = 50

// SessionsRequest holds the validated query for GET /sessions.
//   - Limit: newest sessions to return (1-100000, default 50)
type SessionsRequest struct {
	Limit int `validate:"min=1,max=100000"`
}

// EstimateRequest holds the validated query for GET /estimate.
//   - Position: queue position to estimate (required, 1-1000000)
type EstimateRequest struct {
	Position int `validate:"min=1,max=1000000"`
}

// LogLevelRequest is the body of POST /commands/log-level.
type LogLevelRequest struct {
	Level string `json:"level" validate:"required,oneof=trace debug info warn error"`
}
