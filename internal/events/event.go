// Queuewatch - Queue Position Tracking and ETA Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/queuewatch

package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/queuewatch/internal/models"
)

// Type identifies an event.
type Type string

const (
	TypeStateChange   Type = "stateChange"
	TypeQueueUpdate   Type = "queueUpdate"
	TypeQueueFinished Type = "queueFinished"
	TypeStopped       Type = "stopped"
	TypeLog           Type = "log"
)

// AllTypes lists every event type.
var AllTypes = []Type{TypeStateChange, TypeQueueUpdate, TypeQueueFinished, TypeStopped, TypeLog}

// Event is one lifecycle notification. Exactly one payload field is set
// for stateChange, queueUpdate and log; queueFinished and stopped carry none.
type Event struct {
	ID       string              `json:"id"`
	Type     Type                `json:"type"`
	Time     time.Time           `json:"time"`
	Snapshot *models.Snapshot    `json:"snapshot,omitempty"`
	Update   *models.QueueUpdate `json:"update,omitempty"`
	Log      *models.LogEntry    `json:"log,omitempty"`
}

func newEvent(t Type, at time.Time) Event {
	return Event{ID: uuid.New().String(), Type: t, Time: at}
}

// StateChange creates a stateChange event.
func StateChange(snap models.Snapshot, at time.Time) Event {
	ev := newEvent(TypeStateChange, at)
	ev.Snapshot = &snap
	return ev
}

// QueueUpdate creates a queueUpdate event.
func QueueUpdate(update models.QueueUpdate, at time.Time) Event {
	ev := newEvent(TypeQueueUpdate, at)
	ev.Update = &update
	return ev
}

// QueueFinished creates a queueFinished event.
func QueueFinished(at time.Time) Event {
	return newEvent(TypeQueueFinished, at)
}

// Stopped creates a stopped event.
func Stopped(at time.Time) Event {
	return newEvent(TypeStopped, at)
}

// Log creates a log event.
func Log(level, message string, at time.Time) Event {
	ev := newEvent(TypeLog, at)
	ev.Log = &models.LogEntry{Time: at, Message: message, Level: level}
	return ev
}

// Subject returns the NATS subject for the event.
func (e Event) Subject() string {
	return SubjectPrefix + string(e.Type)
}

// SubjectPrefix prefixes every forwarded event subject.
const SubjectPrefix = "queuewatch.events."
