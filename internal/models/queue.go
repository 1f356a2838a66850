// Queuewatch - Queue Position Tracking and ETA Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/queuewatch

package models

import "time"

// QueueSample is a single observed queue position.
type QueueSample struct {
	Timestamp time.Time `json:"timestamp"`
	Position  int       `json:"position"`
}

// QueueHistoryPoint is one point of the queue position chart series.
type QueueHistoryPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Position  int       `json:"position"`
}

// CompletedSession records one queue session that lasted long enough and
// moved at a plausible rate. Sessions are never modified after creation.
//
// A session that reached the front of the queue has EndPosition 0. A session
// cut short by a disconnect or a deliberate relog is Partial and records the
// position it reached.
type CompletedSession struct {
	ID               string    `json:"id"`
	StartPosition    int       `json:"start_position"`
	EndPosition      int       `json:"end_position"`
	StartTime        time.Time `json:"start_time"`
	EndTime          time.Time `json:"end_time"`
	DurationMs       int64     `json:"duration_ms"`
	DayOfWeek        int       `json:"day_of_week"`
	StartHour        int       `json:"start_hour"`
	PositionsPerHour float64   `json:"positions_per_hour"`
	Partial          bool      `json:"partial,omitempty"`
}

// Duration returns the session length.
func (s *CompletedSession) Duration() time.Duration {
	return time.Duration(s.DurationMs) * time.Millisecond
}

// IsWeekend reports whether the session started on Saturday or Sunday.
func (s *CompletedSession) IsWeekend() bool {
	return IsWeekend(time.Weekday(s.DayOfWeek))
}

// IsWeekend reports whether d is Saturday or Sunday.
func IsWeekend(d time.Weekday) bool {
	return d == time.Saturday || d == time.Sunday
}
