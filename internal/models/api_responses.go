// Queuewatch - Queue Position Tracking and ETA Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/queuewatch

package models

import "time"

// APIResponse is the envelope for every HTTP endpoint.
//
//	{
//	  "status": "success",
//	  "data": {"state": "queueing", "position": 412},
//	  "metadata": {"timestamp": "2026-03-14T12:00:00Z"}
//	}
//
// Status is "success" or "error"; Error is populated only for errors.
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response metadata.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	Count       int       `json:"count,omitempty"`
}

// APIError carries a machine-readable code and a human-readable message.
//
// Codes in use: VALIDATION_ERROR, SERVICE_UNAVAILABLE, INVALID_STATE,
// RATE_LIMIT_EXCEEDED, INTERNAL_ERROR.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// EstimateResponse is returned by the estimate endpoint.
type EstimateResponse struct {
	Position          int      `json:"position"`
	BaseMinutes       float64  `json:"base_minutes"`
	Minutes           int      `json:"minutes"`
	ETA               string   `json:"eta"`
	HistoricalRate    *float64 `json:"historical_rate,omitempty"`
	EffectiveSessions float64  `json:"effective_sessions"`
	LiveRate          *float64 `json:"live_rate,omitempty"`
	StoredSessions    int      `json:"stored_sessions"`
}

// LogLevelResponse is returned by the log-level command.
type LogLevelResponse struct {
	Previous string `json:"previous"`
	Level    string `json:"level"`
}

// CommandResponse is returned by the command endpoints.
type CommandResponse struct {
	Command        string         `json:"command"`
	State          LifecycleState `json:"state"`
	AutoRestart    bool           `json:"auto_restart"`
	IdlePrevention bool           `json:"idle_prevention"`
}

// HealthStatus is returned by the health endpoints.
type HealthStatus struct {
	Status    string         `json:"status"`
	Version   string         `json:"version"`
	State     LifecycleState `json:"state"`
	Uptime    float64        `json:"uptime_seconds"`
	Timestamp time.Time      `json:"timestamp"`
}
