// Queuewatch - Queue Position Tracking and ETA Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/queuewatch

package eta

import (
	"errors"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/queuewatch/internal/clock"
	"github.com/tomtom215/queuewatch/internal/logging"
	"github.com/tomtom215/queuewatch/internal/metrics"
	"github.com/tomtom215/queuewatch/internal/models"
)

// Session outcome errors. None of them leave an active session behind.
var (
	ErrNoSession       = errors.New("eta: no active session")
	ErrSessionTooShort = errors.New("eta: session shorter than minimum duration")
	ErrRateOutOfRange  = errors.New("eta: session rate outside valid range")
	ErrNoProgress      = errors.New("eta: session made no progress")
)

// SessionStore receives accepted sessions and supplies history.
type SessionStore interface {
	Append(session models.CompletedSession)
	Sessions() []models.CompletedSession
}

// Estimator tracks the active session and produces blended estimates.
// It is safe for concurrent use.
type Estimator struct {
	mu     sync.Mutex
	clock  clock.Clock
	store  SessionStore
	logger zerolog.Logger

	active        bool
	startPosition int
	startTime     time.Time
	samples       []models.QueueSample
}

// New creates an Estimator persisting through store.
func New(store SessionStore, clk clock.Clock) *Estimator {
	if clk == nil {
		clk = clock.Real()
	}
	return &Estimator{
		clock:  clk,
		store:  store,
		logger: logging.WithComponent("eta"),
	}
}

// BeginSession starts a session at startPosition with a single sample. It
// is a no-op and returns false when a session is already active.
func (e *Estimator) BeginSession(startPosition int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active {
		return false
	}
	now := e.clock.Now()
	e.active = true
	e.startPosition = startPosition
	e.startTime = now
	e.samples = append(e.samples[:0], models.QueueSample{Timestamp: now, Position: startPosition})
	return true
}

// RecordSample appends a reading to the live window, keeping the newest
// SampleWindow entries. Readings outside a session are ignored.
func (e *Estimator) RecordSample(position int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.active {
		return
	}
	e.samples = append(e.samples, models.QueueSample{Timestamp: e.clock.Now(), Position: position})
	if over := len(e.samples) - SampleWindow; over > 0 {
		e.samples = append(e.samples[:0], e.samples[over:]...)
	}
}

// Active reports whether a session is in progress.
func (e *Estimator) Active() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

// SessionStart returns the active session's start time and position.
func (e *Estimator) SessionStart() (time.Time, int, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.startTime, e.startPosition, e.active
}

// Samples returns a copy of the live window, oldest first.
func (e *Estimator) Samples() []models.QueueSample {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]models.QueueSample(nil), e.samples...)
}

// CompleteSession closes a session that reached the front of the queue.
// Live state is always cleared; the persisted session is returned when it
// passed the duration and rate checks.
func (e *Estimator) CompleteSession() (*models.CompletedSession, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closeLocked(0, false)
}

// SavePartial closes a session cut short at currentPosition. It persists
// only when currentPosition is below the starting position.
func (e *Estimator) SavePartial(currentPosition int) (*models.CompletedSession, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closeLocked(currentPosition, true)
}

// Discard drops the active session without persisting it.
func (e *Estimator) Discard() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.clearLocked()
}

func (e *Estimator) closeLocked(endPosition int, partial bool) (*models.CompletedSession, error) {
	if !e.active {
		return nil, ErrNoSession
	}
	startPosition, startTime := e.startPosition, e.startTime
	e.clearLocked()

	now := e.clock.Now()
	duration := now.Sub(startTime)

	if partial && endPosition >= startPosition {
		metrics.RecordSessionRejected("no_progress")
		return nil, ErrNoProgress
	}
	if duration < MinSessionDuration {
		metrics.RecordSessionRejected("too_short")
		e.logger.Debug().Dur("duration", duration).Msg("Session below minimum duration, discarded")
		return nil, ErrSessionTooShort
	}

	rate := math.Round(float64(startPosition-endPosition) / duration.Hours())
	if rate <= 0 || rate > MaxRate {
		metrics.RecordSessionRejected("rate_out_of_range")
		e.logger.Debug().Float64("positions_per_hour", rate).Msg("Session rate out of range, discarded")
		return nil, ErrRateOutOfRange
	}

	session := models.CompletedSession{
		ID:               uuid.New().String(),
		StartPosition:    startPosition,
		EndPosition:      endPosition,
		StartTime:        startTime,
		EndTime:          now,
		DurationMs:       duration.Milliseconds(),
		DayOfWeek:        int(startTime.Weekday()),
		StartHour:        startTime.Hour(),
		PositionsPerHour: rate,
		Partial:          partial,
	}
	e.store.Append(session)
	metrics.RecordSessionRecorded(partial)

	e.logger.Info().
		Str("session_id", session.ID).
		Int("start_position", startPosition).
		Int("end_position", endPosition).
		Dur("duration", duration).
		Float64("positions_per_hour", rate).
		Bool("partial", partial).
		Msg("Queue session recorded")
	return &session, nil
}

func (e *Estimator) clearLocked() {
	e.active = false
	e.startPosition = 0
	e.startTime = time.Time{}
	e.samples = e.samples[:0]
}

// HistoricalRate computes the weighted rate over stored sessions.
func (e *Estimator) HistoricalRate(now time.Time) (HistoricalRate, bool) {
	return ComputeHistoricalRate(e.store.Sessions(), now)
}

// LiveRate computes the active session's observed rate.
func (e *Estimator) LiveRate() (float64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return ComputeLiveRate(e.samples)
}

// EstimateMinutes returns the blended estimate for currentPosition.
func (e *Estimator) EstimateMinutes(currentPosition int, baseMinutes float64, now time.Time) int {
	return e.Estimate(currentPosition, baseMinutes, now).Minutes
}

// Estimate returns the blended estimate with its per-candidate breakdown.
func (e *Estimator) Estimate(currentPosition int, baseMinutes float64, now time.Time) Breakdown {
	var histPtr *HistoricalRate
	if hist, ok := e.HistoricalRate(now); ok {
		histPtr = &hist
	}

	e.mu.Lock()
	sampleCount := len(e.samples)
	var livePtr *float64
	if live, ok := ComputeLiveRate(e.samples); ok {
		livePtr = &live
	}
	e.mu.Unlock()

	return Blend(currentPosition, baseMinutes, histPtr, livePtr, sampleCount)
}
