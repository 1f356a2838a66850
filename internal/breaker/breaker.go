// Queuewatch - Queue Position Tracking and ETA Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/queuewatch

// Package breaker wraps sony/gobreaker with Queuewatch logging and metrics.
//
// The relay dialer and the NATS forwarder both run their outbound calls
// through a Breaker so that a dead relay or broker is retried at a bounded
// rate instead of on every attempt.
//
// State changes and outcomes are exported as circuit_breaker_* metrics labelled
// with the breaker name. gobreaker keeps its own wall-clock timers, so tests
// exercise the trip threshold rather than the timeout.
package breaker

import (
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/queuewatch/internal/logging"
	"github.com/tomtom215/queuewatch/internal/metrics"
)

// Settings configures a Breaker.
type Settings struct {
	Name string

	// MaxRequests is the number of trial calls allowed while half-open.
	MaxRequests uint32

	// Interval resets the failure counts while closed. Zero never resets.
	Interval time.Duration

	// Timeout is how long the breaker stays open before going half-open.
	Timeout time.Duration

	// FailureThreshold opens the breaker after this many consecutive failures.
	FailureThreshold uint32
}

// DefaultSettings returns settings suitable for a single remote peer.
func DefaultSettings(name string) Settings {
	return Settings{
		Name:             name,
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          2 * time.Minute,
		FailureThreshold: 5,
	}
}

// Breaker is a named circuit breaker for calls returning T.
type Breaker[T any] struct {
	cb   *gobreaker.CircuitBreaker[T]
	name string
}

// New creates a Breaker and initializes its metrics.
func New[T any](s Settings) *Breaker[T] {
	if s.FailureThreshold == 0 {
		s.FailureThreshold = 5
	}
	if s.MaxRequests == 0 {
		s.MaxRequests = 1
	}

	metrics.CircuitBreakerState.WithLabelValues(s.Name).Set(0)
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(s.Name).Set(0)

	threshold := s.FailureThreshold
	cb := gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			trip := counts.ConsecutiveFailures >= threshold
			if trip {
				logging.Warn().
					Str("breaker", s.Name).
					Uint32("consecutive_failures", counts.ConsecutiveFailures).
					Msg("[CIRCUIT BREAKER] Opening circuit")
			}
			return trip
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("breaker", name).
				Str("from", StateString(from)).
				Str("to", StateString(to)).
				Msg("[CIRCUIT BREAKER] State transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, StateString(from), StateString(to)).Inc()
			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},
	})

	return &Breaker[T]{cb: cb, name: s.Name}
}

// Name returns the breaker name.
func (b *Breaker[T]) Name() string { return b.name }

// Execute runs fn through the breaker.
func (b *Breaker[T]) Execute(fn func() (T, error)) (T, error) {
	result, err := b.cb.Execute(fn)
	if err != nil {
		if IsRejected(err) {
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
		} else {
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
			metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(b.name).
				Set(float64(b.cb.Counts().ConsecutiveFailures))
		}
		return result, err
	}
	metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(b.name).Set(0)
	return result, nil
}

// State returns "closed", "half-open" or "open".
func (b *Breaker[T]) State() string {
	return StateString(b.cb.State())
}

// IsRejected reports whether err came from the breaker refusing the call.
func IsRejected(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

// StateString converts a gobreaker state for logs and labels.
func StateString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
