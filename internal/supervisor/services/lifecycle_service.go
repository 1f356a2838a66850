// Queuewatch - Queue Position Tracking and ETA Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/queuewatch

package services

import (
	"context"
	"sync/atomic"

	"github.com/tomtom215/queuewatch/internal/logging"
)

// LifecycleEngine is satisfied by *lifecycle.Engine.
type LifecycleEngine interface {
	Start() error
	Stop()
}

// LifecycleService owns the connection lifecycle for the life of the
// process. The engine runs on its own timers; the service only starts the
// first run when auto-start is on and stops the engine on shutdown.
type LifecycleService struct {
	engine    LifecycleEngine
	autoStart bool
	started   atomic.Bool
	name      string
}

// NewLifecycleService wraps engine.
func NewLifecycleService(engine LifecycleEngine, autoStart bool) *LifecycleService {
	return &LifecycleService{
		engine:    engine,
		autoStart: autoStart,
		name:      "queue-lifecycle",
	}
}

// Serve implements suture.Service. Auto-start happens once per process,
// not on every supervisor restart.
func (s *LifecycleService) Serve(ctx context.Context) error {
	if s.autoStart && s.started.CompareAndSwap(false, true) {
		if err := s.engine.Start(); err != nil {
			logging.Warn().Err(err).Msg("Queue run auto-start skipped")
		}
	}

	<-ctx.Done()
	s.engine.Stop()
	return ctx.Err()
}

// String implements fmt.Stringer for suture's logs.
func (s *LifecycleService) String() string {
	return s.name
}
