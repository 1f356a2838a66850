// Queuewatch - Queue Position Tracking and ETA Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/queuewatch

// Package notify delivers one-shot operator notifications, such as "the
// queue is nearly done", to webhook endpoints and Discord.
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/queuewatch/internal/logging"
	"github.com/tomtom215/queuewatch/internal/metrics"
)

// Kind classifies a notification.
type Kind string

const (
	KindQueueThreshold Kind = "queue_threshold"
	KindQueueFinished  Kind = "queue_finished"
	KindStopped        Kind = "stopped"
)

// Notification is what gets delivered.
type Notification struct {
	Kind       Kind      `json:"kind"`
	Title      string    `json:"title"`
	Message    string    `json:"message"`
	Position   int       `json:"position"`
	ETA        string    `json:"eta,omitempty"`
	FinishTime time.Time `json:"finish_time,omitempty"`
	Time       time.Time `json:"time"`
}

// Notifier is a delivery channel.
type Notifier interface {
	// Send delivers n. Disabled notifiers return nil without sending.
	Send(ctx context.Context, n *Notification) error

	// Name returns the notifier name (e.g., "discord", "webhook").
	Name() string

	// Enabled returns whether this notifier is enabled.
	Enabled() bool
}

// Dispatcher sends to every enabled notifier.
type Dispatcher struct {
	notifiers []Notifier
	timeout   time.Duration
}

// NewDispatcher creates a dispatcher. Nil notifiers are skipped.
func NewDispatcher(timeout time.Duration, notifiers ...Notifier) *Dispatcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	d := &Dispatcher{timeout: timeout}
	for _, n := range notifiers {
		if n != nil {
			d.notifiers = append(d.notifiers, n)
		}
	}
	return d
}

// Enabled reports whether any notifier would send.
func (d *Dispatcher) Enabled() bool {
	for _, n := range d.notifiers {
		if n.Enabled() {
			return true
		}
	}
	return false
}

// Send delivers n to every enabled notifier and joins their errors.
func (d *Dispatcher) Send(ctx context.Context, n *Notification) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	var errs []error
	for _, notifier := range d.notifiers {
		if !notifier.Enabled() {
			continue
		}
		err := notifier.Send(ctx, n)
		metrics.RecordNotification(notifier.Name(), err)
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).
				Str("notifier", notifier.Name()).
				Str("kind", string(n.Kind)).
				Msg("Notification failed")
			errs = append(errs, fmt.Errorf("%s: %w", notifier.Name(), err))
			continue
		}
		logging.Ctx(ctx).Info().
			Str("notifier", notifier.Name()).
			Str("kind", string(n.Kind)).
			Int("position", n.Position).
			Msg("Notification sent")
	}
	return errors.Join(errs...)
}
