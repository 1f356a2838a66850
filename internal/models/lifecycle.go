// Queuewatch - Queue Position Tracking and ETA Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/queuewatch

package models

import "time"

// LifecycleState is the connection lifecycle state.
type LifecycleState string

const (
	StateIdle           LifecycleState = "idle"
	StateAuthenticating LifecycleState = "authenticating"
	StateQueueing       LifecycleState = "queueing"
	StateConnected      LifecycleState = "connected"
	StateReconnecting   LifecycleState = "reconnecting"

	// StateStopped is terminal: the run-duration budget was spent.
	StateStopped LifecycleState = "stopped"
)

// AllStates lists every lifecycle state, in transition order.
var AllStates = []LifecycleState{
	StateIdle,
	StateAuthenticating,
	StateQueueing,
	StateConnected,
	StateReconnecting,
	StateStopped,
}

// Active reports whether the state holds (or is acquiring) a connection.
func (s LifecycleState) Active() bool {
	switch s {
	case StateAuthenticating, StateQueueing, StateConnected:
		return true
	default:
		return false
	}
}

// Snapshot is the observable lifecycle state, published with every stateChange.
type Snapshot struct {
	State            LifecycleState `json:"state"`
	Position         *int           `json:"position,omitempty"`
	ETA              string         `json:"eta,omitempty"`
	ETAMinutes       int            `json:"eta_minutes,omitempty"`
	FinishTime       *time.Time     `json:"finish_time,omitempty"`
	IdleActive       bool           `json:"idle_active"`
	AutoRestart      bool           `json:"auto_restart"`
	IdlePrevention   bool           `json:"idle_prevention"`
	ConsumerAttached bool           `json:"consumer_attached"`
	SessionStart     *time.Time     `json:"session_start,omitempty"`
	RunStarted       *time.Time     `json:"run_started,omitempty"`
	Reconnects       int            `json:"reconnects"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// QueueUpdate is published when the observed position changes.
type QueueUpdate struct {
	Position   int       `json:"position"`
	ETA        string    `json:"eta"`
	ETAMinutes int       `json:"eta_minutes"`
	FinishTime time.Time `json:"finish_time"`
}

// Log levels carried by LogEntry.
const (
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

// LogEntry is a human-readable lifecycle message for front-ends.
type LogEntry struct {
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
	Level   string    `json:"level"`
}
